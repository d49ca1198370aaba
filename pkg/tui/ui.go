package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/irfansharif/articles/pkg/article"
	"github.com/irfansharif/articles/pkg/editor"
)

// API is what the TUI needs from the article store client.
type API interface {
	editor.API
	Get(ctx context.Context, id article.ID) (article.Article, error)
}

// State represents the current UI state.
type State int

const (
	stateList State = iota
	stateEdit
	stateConfirm
	stateDetail
	stateTerminal
)

// Model is the main TUI model.
type Model struct {
	ctx     context.Context
	api     API
	log     *zap.Logger
	session *editor.Session
	keys    KeyMap
	styles  Styles
	state   State
	width   int
	height  int

	cursor    int
	form      FormModel
	confirmID article.ID
	detail    *article.Article
	term      *Terminal
	bodyPath  string

	spinner spinner.Model
	loading bool

	// Status line; cleared statusTimeout after it was last set.
	err           error
	status        string
	statusSeq     int
	statusTimeout time.Duration
}

// Messages
type (
	articlesLoadedMsg struct {
		articles []article.Article
		err      error
	}
	opFinishedMsg struct {
		op     *editor.Op
		result article.Article
		err    error
	}
	articleFetchedMsg struct {
		article article.Article
		err     error
	}
	clearStatusMsg struct{ seq int }
)

// New creates a new TUI model talking to api. Status and error lines stay
// visible for statusTimeout.
func New(ctx context.Context, api API, log *zap.Logger, statusTimeout time.Duration) Model {
	if log == nil {
		log = zap.NewNop()
	}
	styles := DefaultStyles()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	return Model{
		ctx:           ctx,
		api:           api,
		log:           log,
		session:       editor.New(nil),
		keys:          DefaultKeyMap(),
		styles:        styles,
		state:         stateList,
		spinner:       s,
		loading:       true,
		statusTimeout: statusTimeout,
	}
}

// Init loads the article list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchArticles())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.form = m.form.SetWidth(msg.Width)
		if m.term != nil {
			m.term.Resize(m.terminalSize())
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case articlesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.log.Warn("listing articles failed", zap.Error(msg.err))
			return m.fail(msg.err)
		}
		if err := m.session.Load(msg.articles); err != nil {
			return m.fail(err)
		}
		m.clampCursor()
		m.log.Debug("listed articles", zap.Int("count", len(msg.articles)))
		return m.notify(fmt.Sprintf("Loaded %d articles", len(msg.articles)))

	case opFinishedMsg:
		return m.handleOpFinished(msg)

	case articleFetchedMsg:
		m.loading = false
		if m.state != stateDetail {
			return m, nil
		}
		if msg.err != nil {
			m.state = stateList
			return m.fail(msg.err)
		}
		a := msg.article
		m.detail = &a
		return m, nil

	case terminalTickMsg:
		if m.term != nil {
			return m, m.term.Update(msg)
		}
		return m, nil

	case terminalExitMsg:
		return m.handleEditorExit(msg)

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.err = nil
			m.status = ""
			m.session.ClearNotice()
		}
		return m, nil
	}

	// Cursor blinks and the like go to the form.
	if m.state == stateEdit {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state == stateTerminal {
		return m, m.term.Update(msg)
	}
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state {
	case stateEdit:
		return m.handleEditKeys(msg)
	case stateConfirm:
		return m.handleConfirmKeys(msg)
	case stateDetail:
		if key.Matches(msg, m.keys.Cancel, m.keys.Quit, m.keys.Open) {
			m.state = stateList
			m.detail = nil
		}
		return m, nil
	}

	// List state keys
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.session.Visible())-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.cursor = max(0, len(m.session.Visible())-1)
		return m, nil
	}

	// Nothing below may start while a request is in flight.
	if m.busy() {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Open):
		a, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.state = stateDetail
		m.detail = nil
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetchArticle(a.ID))

	case key.Matches(msg, m.keys.New):
		return m.beginEdit(m.session.New())

	case key.Matches(msg, m.keys.Edit):
		a, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m.beginEdit(m.session.Edit(a.ID))

	case key.Matches(msg, m.keys.Remove):
		a, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.state = stateConfirm
		m.confirmID = a.ID
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		if err := m.session.SetFilter(m.session.Filter().Next()); err != nil {
			return m.fail(err)
		}
		m.clampCursor()
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetchArticles())
	}

	return m, nil
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.session.Pending() != nil {
		return m, nil
	}

	var cmd tea.Cmd
	switch {
	case key.Matches(msg, m.keys.Cancel):
		if err := m.session.Cancel(); err != nil {
			return m.fail(err)
		}
		m.state = stateList
		m.clampCursor()
		return m, nil

	case key.Matches(msg, m.keys.Save):
		return m.save()

	case key.Matches(msg, m.keys.NextField):
		m.form, cmd = m.form.Cycle(1)
		return m, cmd

	case key.Matches(msg, m.keys.PrevField):
		m.form, cmd = m.form.Cycle(-1)
		return m, cmd

	case key.Matches(msg, m.keys.ExtEditor):
		return m.openBodyEditor()

	case key.Matches(msg, m.keys.Toggle) && m.form.OnPublished():
		m.form = m.form.Toggle()
		return m.syncForm()
	}

	m.form, cmd = m.form.Update(msg)
	var sync tea.Cmd
	m, sync = m.syncForm()
	return m, tea.Batch(cmd, sync)
}

func (m Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Yes):
		m.state = stateList
		op, err := m.session.Remove(m.confirmID)
		if err != nil {
			return m.fail(err)
		}
		return m, tea.Batch(m.spinner.Tick, m.execute(op))
	}
	// Anything but yes declines.
	m.state = stateList
	return m, nil
}

// beginEdit switches to the form after a successful Edit or New.
func (m Model) beginEdit(err error) (tea.Model, tea.Cmd) {
	if err != nil {
		return m.fail(err)
	}
	a, _ := m.session.Editing()
	m.form = NewForm(a.Fields(), m.width, m.styles)
	m.state = stateEdit
	m.err = nil
	if i := m.editIndex(); i >= 0 {
		m.cursor = i
	}
	return m, textinput.Blink
}

func (m Model) save() (tea.Model, tea.Cmd) {
	if err := m.session.SetFields(m.form.Fields()); err != nil {
		return m.fail(err)
	}
	op, err := m.session.Save()
	if err != nil {
		var verr *article.ValidationError
		if errors.As(err, &verr) {
			// Already recorded as the session notice.
			return m.expire()
		}
		return m.fail(err)
	}
	if op == nil {
		m.state = stateList
		return m.notify("No changes")
	}
	return m, tea.Batch(m.spinner.Tick, m.execute(op))
}

func (m Model) handleOpFinished(msg opFinishedMsg) (tea.Model, tea.Cmd) {
	if err := m.session.Complete(msg.op, msg.result, msg.err); err != nil {
		m.log.Error("completing request", zap.Stringer("op", msg.op), zap.Error(err))
		return m.fail(err)
	}

	if m.session.Mode() == editor.ModeEdit {
		m.state = stateEdit
	} else {
		m.state = stateList
	}

	if n := m.session.Notice(); n != nil {
		m.log.Warn("request failed", zap.Stringer("op", msg.op), zap.String("notice", n.Message), zap.Error(msg.err))
		return m.expire()
	}
	m.log.Info("request succeeded", zap.Stringer("op", msg.op))

	var status string
	switch msg.op.Kind {
	case editor.OpCreate:
		status = fmt.Sprintf("Created #%s", msg.result.ID)
	case editor.OpUpdate:
		status = fmt.Sprintf("Saved #%s", msg.result.ID)
	case editor.OpRemove:
		status = fmt.Sprintf("Removed #%s", msg.op.ID)
	}
	if msg.op.Kind != editor.OpRemove {
		if i := m.visibleIndex(msg.result.ID); i >= 0 {
			m.cursor = i
		}
	}
	m.clampCursor()
	return m.notify(status)
}

func (m Model) openBodyEditor() (tea.Model, tea.Cmd) {
	path, err := writeBodyFile(m.form.Fields().Body)
	if err != nil {
		return m.fail(err)
	}
	w, h := m.terminalSize()
	term, cmd, err := StartTerminal(editorCommand(path), w, h)
	if err != nil {
		os.Remove(path)
		return m.fail(fmt.Errorf("starting editor: %w", err))
	}
	m.term = term
	m.bodyPath = path
	m.state = stateTerminal
	return m, cmd
}

func (m Model) handleEditorExit(msg terminalExitMsg) (tea.Model, tea.Cmd) {
	if m.term != nil {
		m.term.Close()
		m.term = nil
	}
	m.state = stateEdit
	path := m.bodyPath
	m.bodyPath = ""
	defer os.Remove(path)

	if msg.err != nil {
		return m.fail(fmt.Errorf("editor: %w", msg.err))
	}
	body, err := readBodyFile(path)
	if err != nil {
		return m.fail(err)
	}
	m.form = m.form.SetBody(body)
	return m.syncForm()
}

// syncForm copies the form into the session's working copy.
func (m Model) syncForm() (Model, tea.Cmd) {
	if err := m.session.SetFields(m.form.Fields()); err != nil {
		return m.fail(err)
	}
	return m, nil
}

func (m Model) fetchArticles() tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		articles, err := api.List(ctx)
		return articlesLoadedMsg{articles: articles, err: err}
	}
}

func (m Model) fetchArticle(id article.ID) tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		a, err := api.Get(ctx, id)
		return articleFetchedMsg{article: a, err: err}
	}
}

// execute issues op off the event loop; the outcome comes back as an
// opFinishedMsg.
func (m Model) execute(op *editor.Op) tea.Cmd {
	ctx, api, log := m.ctx, m.api, m.log
	return func() tea.Msg {
		log.Debug("issuing request", zap.Stringer("op", op))
		result, err := editor.Execute(ctx, api, op)
		return opFinishedMsg{op: op, result: result, err: err}
	}
}

func (m Model) notify(status string) (Model, tea.Cmd) {
	m.status = status
	m.err = nil
	return m.expire()
}

func (m Model) fail(err error) (Model, tea.Cmd) {
	m.err = err
	m.status = ""
	return m.expire()
}

// expire schedules clearing whatever the status line shows now. A later
// status supersedes the pending clear.
func (m Model) expire() (Model, tea.Cmd) {
	m.statusSeq++
	seq := m.statusSeq
	return m, tea.Tick(m.statusTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

func (m Model) busy() bool {
	return m.loading || m.session.Pending() != nil
}

func (m Model) selected() (article.Article, bool) {
	visible := m.session.Visible()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return article.Article{}, false
	}
	return visible[m.cursor], true
}

func (m Model) visibleIndex(id article.ID) int {
	for i, a := range m.session.Visible() {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (m Model) editIndex() int {
	id, ok := m.session.EditTarget()
	if !ok {
		return -1
	}
	return m.visibleIndex(id)
}

func (m *Model) clampCursor() {
	n := len(m.session.Visible())
	if m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}

func (m Model) terminalSize() (int, int) {
	return max(20, m.width-4), max(5, m.height-5)
}

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	if m.state == stateTerminal && m.term != nil {
		return m.styles.App.Render(
			m.styles.Header.Render("Editing body") + "\n\n" + m.term.View(),
		)
	}

	var sb strings.Builder

	// Header
	persisted := 0
	for _, a := range m.session.Visible() {
		if !a.ID.IsDraft() {
			persisted++
		}
	}
	sb.WriteString(renderHeader(persisted, len(m.session.Articles()), m.session.Filter(), m.styles))
	sb.WriteString("\n\n")

	// Main content area
	switch {
	case m.state == stateDetail && m.detail == nil:
		sb.WriteString(m.spinner.View())
		sb.WriteString(" Fetching article...")
	case m.state == stateDetail:
		sb.WriteString(renderDetail(*m.detail, m.styles))
	case m.loading && len(m.session.Articles()) == 0:
		sb.WriteString(m.spinner.View())
		sb.WriteString(" Loading articles...")
	default:
		sb.WriteString(m.renderList())
	}

	if m.state == stateConfirm {
		sb.WriteString("\n\n")
		sb.WriteString(m.styles.Confirm.Render(fmt.Sprintf("Remove article #%s? [y/N]", m.confirmID)))
	}
	if op := m.session.Pending(); op != nil {
		sb.WriteString("\n\n")
		sb.WriteString(m.spinner.View())
		if op.Kind == editor.OpRemove {
			sb.WriteString(" Removing...")
		} else {
			sb.WriteString(" Saving...")
		}
	}

	statusLine := m.renderStatus()

	// Footer, pushed to the bottom.
	content := sb.String()
	contentHeight := strings.Count(content, "\n") + 1
	appPaddingV := 2
	footerLines := 1
	if statusLine != "" {
		footerLines += 2
	}
	if remaining := m.height - contentHeight - appPaddingV - footerLines; remaining > 0 {
		sb.WriteString(strings.Repeat("\n", remaining))
	}

	if statusLine != "" {
		sb.WriteString(statusLine)
		sb.WriteString("\n")
	}
	sb.WriteString(m.styles.Footer.Render(m.renderHelp()))

	return m.styles.App.Render(sb.String())
}

func (m Model) renderStatus() string {
	if m.err != nil {
		return m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err))
	}
	if n := m.session.Notice(); n != nil {
		if n.Kind == editor.NoticeInfo {
			return m.styles.Muted.Render(n.Message)
		}
		return m.styles.Error.Render(n.Message)
	}
	if m.status != "" {
		return m.styles.Success.Render(m.status)
	}
	return ""
}

func (m Model) renderList() string {
	visible := m.session.Visible()
	if len(visible) == 0 {
		return renderEmptyState(m.session.Filter(), m.styles)
	}

	var fieldErrs map[string][]string
	if n := m.session.Notice(); n != nil && n.Kind == editor.NoticeValidation {
		fieldErrs = n.Fields
	}
	target, editing := m.session.EditTarget()

	listHeight := m.height - 10
	itemHeight := 3 // two lines plus a blank one
	if editing {
		listHeight -= 12 // the form
	}
	visibleItems := max(1, listHeight/itemHeight)

	start := 0
	if m.cursor >= visibleItems {
		start = m.cursor - visibleItems + 1
	}
	end := min(start+visibleItems, len(visible))

	var sb strings.Builder
	for i := start; i < end; i++ {
		if i > start {
			sb.WriteString("\n\n")
		}
		a := visible[i]
		if editing && a.ID == target {
			heading := "Editing #" + a.ID.String()
			if a.ID.IsDraft() {
				heading = "New article"
			}
			sb.WriteString(m.form.View(heading, fieldErrs))
			continue
		}
		sb.WriteString(renderArticleItem(a, !editing && i == m.cursor, m.width-4, m.styles))
	}
	return sb.String()
}

func (m Model) renderHelp() string {
	var parts []string

	switch {
	case m.session.Pending() != nil:
		parts = append(parts, "[ctrl+c] quit")
	case m.state == stateEdit:
		parts = append(parts,
			"[tab] next field",
			"[space] toggle published",
			"[ctrl+e] body in $EDITOR",
			"[ctrl+s] save",
			"[esc] cancel",
		)
	case m.state == stateConfirm:
		parts = append(parts, "[y]es", "[n]o")
	case m.state == stateDetail:
		parts = append(parts, "[esc] back")
	default:
		parts = append(parts,
			"[n]ew",
			"[e]dit",
			"[d]elete",
			"[enter] view",
			"[f]ilter",
			"[r]eload",
			"[q]uit",
		)
	}

	return strings.Join(parts, "  ")
}
