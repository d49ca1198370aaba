// Package console is a line-oriented front-end for the article store. It
// reads one command per line and prints plain text, which makes it usable
// over a pipe as well as at a terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/irfansharif/articles/pkg/article"
	"github.com/irfansharif/articles/pkg/editor"
)

// API is what the console needs from the article store client.
type API interface {
	editor.API
	Get(ctx context.Context, id article.ID) (article.Article, error)
}

// Console drives an editor.Session from text commands.
type Console struct {
	api     API
	session *editor.Session
	out     io.Writer
	log     *zap.Logger
	prompt  bool

	scanner *bufio.Scanner
}

// Option configures a Console.
type Option func(*Console)

// WithoutPrompt suppresses the prompt, e.g. when input is not a terminal.
func WithoutPrompt() Option {
	return func(c *Console) { c.prompt = false }
}

// New returns a Console writing to out.
func New(api API, out io.Writer, log *zap.Logger, opts ...Option) *Console {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Console{
		api:     api,
		session: editor.New(nil),
		out:     out,
		log:     log,
		prompt:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches the article list and prints it.
func (c *Console) Load(ctx context.Context) error {
	if err := c.session.Reload(ctx, c.api); err != nil {
		c.failed(err)
		return err
	}
	c.list()
	return nil
}

// Run reads commands from in until quit or EOF.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	c.scanner = bufio.NewScanner(in)
	for {
		if c.prompt {
			fmt.Fprint(c.out, c.promptText())
		}
		if !c.scanner.Scan() {
			return c.scanner.Err()
		}
		line := strings.TrimSpace(c.scanner.Text())
		if line == "" {
			continue
		}
		if quit := c.exec(ctx, line); quit {
			return nil
		}
	}
}

func (c *Console) promptText() string {
	switch c.session.Mode() {
	case editor.ModeEdit:
		id, _ := c.session.EditTarget()
		return fmt.Sprintf("articles(edit #%s)> ", id)
	default:
		return "articles> "
	}
}

// exec runs one command line and reports whether the console should exit.
func (c *Console) exec(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	c.log.Debug("console command", zap.String("cmd", cmd))

	var err error
	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		c.help()
	case "ls", "list":
		c.list()
	case "show":
		err = c.show(ctx, arg)
	case "new":
		if err = c.session.New(); err == nil {
			fmt.Fprintln(c.out, "editing new article")
		}
	case "edit":
		err = c.edit(arg)
	case "title":
		err = c.session.SetTitle(arg)
	case "body":
		err = c.session.SetBody(arg)
	case "published":
		err = c.setPublished(arg)
	case "save":
		err = c.save(ctx)
	case "cancel":
		if err = c.session.Cancel(); err == nil {
			fmt.Fprintln(c.out, "cancelled")
		}
	case "rm", "remove":
		err = c.remove(ctx, arg)
	case "filter":
		err = c.filter(arg)
	case "reload":
		if err = c.session.Reload(ctx, c.api); err == nil {
			c.list()
		}
	default:
		fmt.Fprintf(c.out, "unknown command %q (try help)\n", cmd)
	}
	if err != nil {
		c.failed(err)
	}
	return false
}

// failed prints the session notice for err if there is one, err otherwise.
func (c *Console) failed(err error) {
	if n := c.session.Notice(); n != nil {
		fmt.Fprintf(c.out, "error: %s\n", n.Message)
		c.session.ClearNotice()
		return
	}
	fmt.Fprintf(c.out, "error: %v\n", err)
}

func (c *Console) list() {
	visible := c.session.Visible()
	fmt.Fprintf(c.out, "articles (filter: %s)\n", c.session.Filter())
	if len(visible) == 0 {
		fmt.Fprintln(c.out, "  (no articles)")
		return
	}
	target, editing := c.session.EditTarget()
	for _, a := range visible {
		marker := " "
		if editing && a.ID == target {
			marker = ">"
		}
		fmt.Fprintf(c.out, "%s %-5s %-13s %s\n", marker, "#"+a.ID.String(), status(a), a.Title)
	}
}

func status(a article.Article) string {
	if a.Published {
		return "[published]"
	}
	return "[unpublished]"
}

func (c *Console) show(ctx context.Context, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	a, err := c.api.Get(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "#%s %s %s\n\n%s\n", a.ID, a.Title, status(a), a.Body)
	return nil
}

func (c *Console) edit(arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	if err := c.session.Edit(id); err != nil {
		return err
	}
	a, _ := c.session.Editing()
	fmt.Fprintf(c.out, "editing #%s: title=%q body=%q published=%t\n", a.ID, a.Title, a.Body, a.Published)
	return nil
}

func (c *Console) setPublished(arg string) error {
	b, err := strconv.ParseBool(arg)
	if err != nil {
		return fmt.Errorf("published wants true or false, got %q", arg)
	}
	return c.session.SetPublished(b)
}

func (c *Console) save(ctx context.Context) error {
	op, err := c.session.Save()
	if err != nil {
		return err
	}
	if op == nil {
		fmt.Fprintln(c.out, "no changes")
		return nil
	}
	saved, err := c.session.Run(ctx, c.api, op)
	if err != nil {
		c.log.Warn("request failed", zap.Stringer("op", op), zap.Error(err))
		return err
	}
	c.log.Info("request succeeded", zap.Stringer("op", op))
	if op.Kind == editor.OpUpdate {
		fmt.Fprintf(c.out, "saved #%s\n", saved.ID)
	} else {
		fmt.Fprintf(c.out, "created #%s\n", saved.ID)
	}
	return nil
}

// remove asks for confirmation on the next input line before deleting.
func (c *Console) remove(ctx context.Context, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	switch c.session.Mode() {
	case editor.ModeEdit:
		return editor.ErrBusy
	case editor.ModeSaving:
		return editor.ErrPending
	}
	a, ok := find(c.session.Articles(), id)
	if !ok {
		return fmt.Errorf("%w: %s", editor.ErrUnknownArticle, id)
	}

	fmt.Fprintf(c.out, "remove #%s %q? [y/N] ", a.ID, a.Title)
	if !c.confirmed() {
		fmt.Fprintln(c.out, "not removed")
		return nil
	}
	op, err := c.session.Remove(id)
	if err != nil {
		return err
	}
	if _, err := c.session.Run(ctx, c.api, op); err != nil {
		c.log.Warn("request failed", zap.Stringer("op", op), zap.Error(err))
		return err
	}
	fmt.Fprintf(c.out, "removed #%s\n", id)
	return nil
}

func (c *Console) confirmed() bool {
	if c.scanner == nil || !c.scanner.Scan() {
		fmt.Fprintln(c.out)
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(c.scanner.Text()))
	if !c.prompt {
		// Echo the answer so transcripts read naturally.
		fmt.Fprintln(c.out, answer)
	}
	return answer == "y" || answer == "yes"
}

func (c *Console) filter(arg string) error {
	f, err := editor.ParseFilter(arg)
	if err != nil {
		return err
	}
	if err := c.session.SetFilter(f); err != nil {
		return err
	}
	c.list()
	return nil
}

func (c *Console) help() {
	fmt.Fprint(c.out, `commands:
  ls                        list articles
  show ID                   fetch and print one article
  new                       start a new article
  edit ID                   edit an article
  title TEXT                set the title of the article being edited
  body TEXT                 set the body
  published true|false      set the published flag
  save                      save the article being edited
  cancel                    discard the edit
  rm ID                     remove an article (asks first)
  filter none|published|not-published
  reload                    fetch the list again
  quit                      exit
`)
}

func parseID(arg string) (article.ID, error) {
	if arg == "" {
		return 0, errors.New("missing article id")
	}
	id, err := article.ParseID(arg)
	if err != nil {
		return 0, err
	}
	if id.IsDraft() {
		return 0, fmt.Errorf("invalid article id %q", arg)
	}
	return id, nil
}

func find(articles []article.Article, id article.ID) (article.Article, bool) {
	for _, a := range articles {
		if a.ID == id {
			return a, true
		}
	}
	return article.Article{}, false
}
