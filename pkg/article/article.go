package article

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ID identifies a persisted article. The zero ID is never assigned by the
// store; it marks a draft that only exists client-side.
type ID int64

// DraftID is the ID carried by an article that has not been created yet.
const DraftID ID = 0

// IsDraft reports whether id refers to an unsaved draft.
func (id ID) IsDraft() bool { return id == DraftID }

func (id ID) String() string {
	if id.IsDraft() {
		return "new"
	}
	return strconv.FormatInt(int64(id), 10)
}

// ParseID parses a decimal article ID. "new" parses to DraftID.
func ParseID(s string) (ID, error) {
	if s == "new" {
		return DraftID, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid article id %q", s)
	}
	return ID(n), nil
}

// Article is a stored article.
type Article struct {
	ID        ID     `json:"id" db:"id"`
	Title     string `json:"title" db:"title"`
	Body      string `json:"body" db:"body"`
	Published bool   `json:"published" db:"published"`
}

// Fields returns the editable fields of a.
func (a Article) Fields() Fields {
	return Fields{Title: a.Title, Body: a.Body, Published: a.Published}
}

// Fields holds the user-editable part of an article.
type Fields struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
}

// Validate checks that title and body are non-blank.
func (f Fields) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(f.Title) == "" {
		verr.Add("title", MsgBlank)
	}
	if strings.TrimSpace(f.Body) == "" {
		verr.Add("body", MsgBlank)
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// With returns a with its editable fields replaced.
func (a Article) With(f Fields) Article {
	a.Title = f.Title
	a.Body = f.Body
	a.Published = f.Published
	return a
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Title     *string `json:"title,omitempty"`
	Body      *string `json:"body,omitempty"`
	Published *bool   `json:"published,omitempty"`
}

// FullPatch returns a patch that sets every field of f.
func FullPatch(f Fields) Patch {
	return Patch{Title: &f.Title, Body: &f.Body, Published: &f.Published}
}

// Apply returns f with the non-nil fields of p written over it.
func (p Patch) Apply(f Fields) Fields {
	if p.Title != nil {
		f.Title = *p.Title
	}
	if p.Body != nil {
		f.Body = *p.Body
	}
	if p.Published != nil {
		f.Published = *p.Published
	}
	return f
}

// MsgBlank is reported for a missing or whitespace-only field.
const MsgBlank = "can't be blank"

// ValidationError maps field names to the rules they violate. It is the
// body of a 422 response.
type ValidationError struct {
	Fields map[string][]string
}

// Add records msg against field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty reports whether no violations were recorded.
func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

// Messages flattens the violations into "field msg" strings, sorted by field.
func (e *ValidationError) Messages() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []string
	for _, name := range names {
		for _, msg := range e.Fields[name] {
			out = append(out, name+" "+msg)
		}
	}
	return out
}

func (e *ValidationError) Error() string {
	return "invalid article: " + strings.Join(e.Messages(), ", ")
}
