// Package editor holds the client-side article list and the
// edit/save/cancel state machine that drives it.
//
// A Session is owned by a single event loop. Transitions that need the
// server return an *Op and mark the session pending; the loop executes the
// Op however it likes (synchronously, or in a background command) and hands
// the outcome back through Complete. While an Op is pending every other
// mutation is refused, so at most one request is ever in flight.
package editor

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/irfansharif/articles/pkg/article"
	"github.com/irfansharif/articles/pkg/client"
)

var (
	// ErrPending is returned by any mutation while a request is in flight.
	ErrPending = errors.New("a request is in progress")
	// ErrBusy is returned when an edit is already active.
	ErrBusy = errors.New("another article is being edited")
	// ErrNotEditing is returned by edit-mode operations outside edit mode.
	ErrNotEditing = errors.New("no article is being edited")
	// ErrFilterLocked is returned when changing the filter during an edit.
	ErrFilterLocked = errors.New("filter cannot change while editing")
	// ErrUnknownArticle is returned for an ID not in the list.
	ErrUnknownArticle = errors.New("no such article")
	// ErrNotPending is returned by Complete for an Op that is not in flight.
	ErrNotPending = errors.New("operation is not pending")
	// ErrUnexpectedResponse is returned for a success response that does
	// not describe the article the request was about.
	ErrUnexpectedResponse = errors.New("unexpected response from server")
)

// Mode is the externally visible state of a Session.
type Mode int

const (
	// ModeView renders every article read-only.
	ModeView Mode = iota
	// ModeEdit has exactly one article editable.
	ModeEdit
	// ModeSaving has a request in flight; all controls are disabled.
	ModeSaving
)

func (m Mode) String() string {
	switch m {
	case ModeView:
		return "view"
	case ModeEdit:
		return "edit"
	case ModeSaving:
		return "saving"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// OpKind names the request an Op stands for.
type OpKind int

const (
	OpCreate OpKind = iota
	OpUpdate
	OpRemove
)

// Op is a persistence request produced by a transition.
type Op struct {
	Kind   OpKind
	ID     article.ID
	Fields article.Fields
}

func (o *Op) String() string {
	f := fmt.Sprintf("title=%q body=%q published=%t", o.Fields.Title, o.Fields.Body, o.Fields.Published)
	switch o.Kind {
	case OpCreate:
		return "create " + f
	case OpUpdate:
		return fmt.Sprintf("update %s %s", o.ID, f)
	case OpRemove:
		return fmt.Sprintf("remove %s", o.ID)
	}
	return fmt.Sprintf("Op(%d)", int(o.Kind))
}

// NoticeKind classifies a Notice.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeValidation
	NoticeNotFound
	NoticeFailure
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeInfo:
		return "info"
	case NoticeValidation:
		return "validation"
	case NoticeNotFound:
		return "not-found"
	case NoticeFailure:
		return "failure"
	}
	return fmt.Sprintf("NoticeKind(%d)", int(k))
}

// Notice is the message front-ends show after a transition.
type Notice struct {
	Kind    NoticeKind
	Message string
	// Fields holds per-field violations for NoticeValidation.
	Fields map[string][]string
}

// edit is the single active edit: the target, its working copy and the
// values it had when editing began.
type edit struct {
	id       article.ID
	fields   article.Fields
	snapshot article.Fields
}

// Session is the client-side article list state.
type Session struct {
	articles []article.Article
	edit     *edit
	pending  *Op
	filter   Filter
	notice   *Notice
}

// New returns a Session in view mode over articles, in server order.
func New(articles []article.Article) *Session {
	return &Session{articles: slices.Clone(articles)}
}

// Mode reports the current state.
func (s *Session) Mode() Mode {
	switch {
	case s.pending != nil:
		return ModeSaving
	case s.edit != nil:
		return ModeEdit
	default:
		return ModeView
	}
}

// Articles returns the persisted articles. Edits in progress and drafts are
// not included.
func (s *Session) Articles() []article.Article {
	return slices.Clone(s.articles)
}

// Draft returns the unsaved draft, if one exists.
func (s *Session) Draft() (article.Article, bool) {
	if s.edit == nil || !s.edit.id.IsDraft() {
		return article.Article{}, false
	}
	return article.Article{ID: article.DraftID}.With(s.edit.fields), true
}

// EditTarget returns the ID of the article being edited.
func (s *Session) EditTarget() (article.ID, bool) {
	if s.edit == nil {
		return 0, false
	}
	return s.edit.id, true
}

// Editing returns the working copy of the article being edited.
func (s *Session) Editing() (article.Article, bool) {
	if s.edit == nil {
		return article.Article{}, false
	}
	return article.Article{ID: s.edit.id}.With(s.edit.fields), true
}

// Pending returns the in-flight Op, or nil.
func (s *Session) Pending() *Op { return s.pending }

// Filter returns the active filter.
func (s *Session) Filter() Filter { return s.filter }

// Notice returns the latest notice, or nil.
func (s *Session) Notice() *Notice { return s.notice }

// ClearNotice drops the latest notice.
func (s *Session) ClearNotice() { s.notice = nil }

// Visible returns what a renderer should display: the filtered persisted
// articles, with the working copy standing in for the edit target, followed
// by the draft if there is one.
func (s *Session) Visible() []article.Article {
	list := s.Articles()
	var keep *article.ID
	if s.edit != nil && !s.edit.id.IsDraft() {
		keep = &s.edit.id
		if i := s.index(s.edit.id); i >= 0 {
			list[i] = list[i].With(s.edit.fields)
		}
	}
	out := s.filter.Apply(list, keep)
	if d, ok := s.Draft(); ok {
		out = append(out, d)
	}
	return out
}

// Load replaces the article list, e.g. after a reload.
func (s *Session) Load(articles []article.Article) error {
	if err := s.checkIdle(); err != nil {
		return err
	}
	s.articles = slices.Clone(articles)
	return nil
}

// Edit enters edit mode on the article with the given ID.
func (s *Session) Edit(id article.ID) error {
	if err := s.checkIdle(); err != nil {
		return err
	}
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownArticle, id)
	}
	f := s.articles[i].Fields()
	s.edit = &edit{id: id, fields: f, snapshot: f}
	s.notice = nil
	return nil
}

// New adds an empty draft and enters edit mode on it.
func (s *Session) New() error {
	if err := s.checkIdle(); err != nil {
		return err
	}
	s.edit = &edit{id: article.DraftID}
	s.notice = nil
	return nil
}

// SetFields replaces the working copy of the article being edited.
func (s *Session) SetFields(f article.Fields) error {
	if err := s.checkEditing(); err != nil {
		return err
	}
	s.edit.fields = f
	return nil
}

// SetTitle sets the working title.
func (s *Session) SetTitle(title string) error {
	return s.modify(func(f *article.Fields) { f.Title = title })
}

// SetBody sets the working body.
func (s *Session) SetBody(body string) error {
	return s.modify(func(f *article.Fields) { f.Body = body })
}

// SetPublished sets the working published flag.
func (s *Session) SetPublished(published bool) error {
	return s.modify(func(f *article.Fields) { f.Published = published })
}

func (s *Session) modify(fn func(*article.Fields)) error {
	if err := s.checkEditing(); err != nil {
		return err
	}
	fn(&s.edit.fields)
	return nil
}

// Cancel leaves edit mode. A draft is discarded; an existing article keeps
// the values it had before editing began.
func (s *Session) Cancel() error {
	if err := s.checkEditing(); err != nil {
		return err
	}
	s.edit = nil
	s.notice = nil
	return nil
}

// Save validates the working copy and returns the request that persists
// it. Invalid input is reported as a *article.ValidationError and the
// session stays in edit mode. Saving an existing article whose fields are
// unchanged returns to view mode with no request.
func (s *Session) Save() (*Op, error) {
	if err := s.checkEditing(); err != nil {
		return nil, err
	}
	f := s.edit.fields
	if err := f.Validate(); err != nil {
		s.notice = noticeFor(err)
		return nil, err
	}
	if !s.edit.id.IsDraft() && f == s.edit.snapshot {
		s.edit = nil
		s.notice = nil
		return nil, nil
	}

	op := &Op{Kind: OpUpdate, ID: s.edit.id, Fields: f}
	if s.edit.id.IsDraft() {
		op.Kind = OpCreate
	}
	s.pending = op
	s.notice = nil
	return op, nil
}

// Remove returns the request that deletes the article with the given ID.
// Callers confirm with the user first; an unconfirmed remove is simply
// never requested.
func (s *Session) Remove(id article.ID) (*Op, error) {
	if err := s.checkIdle(); err != nil {
		return nil, err
	}
	i := s.index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownArticle, id)
	}
	op := &Op{Kind: OpRemove, ID: id, Fields: s.articles[i].Fields()}
	s.pending = op
	s.notice = nil
	return op, nil
}

// SetFilter changes the active filter. It is locked during an edit.
func (s *Session) SetFilter(f Filter) error {
	if s.pending != nil {
		return ErrPending
	}
	if s.edit != nil {
		return ErrFilterLocked
	}
	s.filter = f
	return nil
}

// Complete applies the outcome of the pending op. result is the article the
// server returned for create and update; it is ignored for remove. On
// failure the list is left unchanged: a failed save stays in edit mode with
// the working copy intact, a failed remove stays in view mode.
func (s *Session) Complete(op *Op, result article.Article, err error) error {
	if op == nil || s.pending != op {
		return ErrNotPending
	}
	s.pending = nil

	if err == nil {
		err = checkResult(op, result)
	}
	if err != nil {
		s.notice = noticeFor(err)
		return nil
	}

	switch op.Kind {
	case OpCreate:
		s.articles = append(s.articles, result)
		s.edit = nil
	case OpUpdate:
		if i := s.index(op.ID); i >= 0 {
			s.articles[i] = result
		}
		s.edit = nil
	case OpRemove:
		if i := s.index(op.ID); i >= 0 {
			s.articles = slices.Delete(s.articles, i, i+1)
		}
	}
	s.notice = nil
	return nil
}

// checkResult rejects a create or update response that carries no id, or
// an update response for some other article.
func checkResult(op *Op, result article.Article) error {
	switch op.Kind {
	case OpCreate:
		if result.ID.IsDraft() {
			return ErrUnexpectedResponse
		}
	case OpUpdate:
		if result.ID != op.ID {
			return fmt.Errorf("%w: asked for #%s, got #%s", ErrUnexpectedResponse, op.ID, result.ID)
		}
	}
	return nil
}

func (s *Session) checkIdle() error {
	if s.pending != nil {
		return ErrPending
	}
	if s.edit != nil {
		return ErrBusy
	}
	return nil
}

func (s *Session) checkEditing() error {
	if s.pending != nil {
		return ErrPending
	}
	if s.edit == nil {
		return ErrNotEditing
	}
	return nil
}

func (s *Session) index(id article.ID) int {
	return slices.IndexFunc(s.articles, func(a article.Article) bool { return a.ID == id })
}

// noticeFor maps a request or validation error onto a Notice.
func noticeFor(err error) *Notice {
	var verr *article.ValidationError
	var nf *client.NotFoundError
	switch {
	case errors.Is(err, ErrUnexpectedResponse):
		return &Notice{Kind: NoticeFailure, Message: "Unexpected response from server"}
	case errors.As(err, &verr):
		return &Notice{
			Kind:    NoticeValidation,
			Message: strings.Join(verr.Messages(), ", "),
			Fields:  verr.Fields,
		}
	case errors.As(err, &nf):
		return &Notice{Kind: NoticeNotFound, Message: fmt.Sprintf("Article %s no longer exists; reload to refresh", nf.ID)}
	default:
		return &Notice{Kind: NoticeFailure, Message: "Request failed: " + err.Error()}
	}
}
