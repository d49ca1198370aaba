package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/irfansharif/articles/pkg/article"
)

// field identifies the focused input of a FormModel.
type field int

const (
	fieldTitle field = iota
	fieldBody
	fieldPublished
	numFields
)

var fieldNames = [...]string{
	fieldTitle:     "title",
	fieldBody:      "body",
	fieldPublished: "published",
}

// FormModel is the inline editor for the article being edited.
type FormModel struct {
	title     textinput.Model
	body      textarea.Model
	published bool
	focus     field
	styles    Styles
}

// NewForm creates a form holding f, with the title focused.
func NewForm(f article.Fields, width int, styles Styles) FormModel {
	ti := textinput.New()
	ti.Placeholder = "Title"
	ti.CharLimit = 256
	ti.SetValue(f.Title)

	ta := textarea.New()
	ta.Placeholder = "Body"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(6)
	ta.SetValue(f.Body)

	m := FormModel{
		title:     ti,
		body:      ta,
		published: f.Published,
		styles:    styles,
	}
	m = m.SetWidth(width)
	m.title.Focus()
	return m
}

// Update routes msg to the focused input.
func (m FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case fieldTitle:
		m.title, cmd = m.title.Update(msg)
	case fieldBody:
		m.body, cmd = m.body.Update(msg)
	}
	return m, cmd
}

// Fields returns the values currently in the form.
func (m FormModel) Fields() article.Fields {
	return article.Fields{
		Title:     m.title.Value(),
		Body:      m.body.Value(),
		Published: m.published,
	}
}

// SetBody replaces the body, e.g. after an external edit.
func (m FormModel) SetBody(body string) FormModel {
	m.body.SetValue(body)
	return m
}

// Toggle flips the published flag.
func (m FormModel) Toggle() FormModel {
	m.published = !m.published
	return m
}

// Cycle moves focus by delta fields, wrapping around.
func (m FormModel) Cycle(delta int) (FormModel, tea.Cmd) {
	m.focus = field((int(m.focus) + delta + int(numFields)) % int(numFields))
	m.title.Blur()
	m.body.Blur()
	switch m.focus {
	case fieldTitle:
		return m, m.title.Focus()
	case fieldBody:
		return m, m.body.Focus()
	}
	return m, nil
}

// Focused returns the name of the focused field.
func (m FormModel) Focused() string { return fieldNames[m.focus] }

// OnPublished reports whether the published checkbox has focus.
func (m FormModel) OnPublished() bool { return m.focus == fieldPublished }

// SetWidth sizes the inputs to fit width columns.
func (m FormModel) SetWidth(width int) FormModel {
	w := width - 6 // border and padding
	if w < 20 {
		w = 20
	}
	m.title.Width = w
	m.body.SetWidth(w)
	return m
}

// View renders the form. errs holds per-field validation messages.
func (m FormModel) View(heading string, errs map[string][]string) string {
	var sb strings.Builder
	sb.WriteString(m.styles.FocusLabel.Render(heading))
	sb.WriteString("\n")

	sb.WriteString(m.label(fieldTitle))
	sb.WriteString(m.title.View())
	sb.WriteString(m.fieldErrors(fieldTitle, errs))
	sb.WriteString("\n")

	sb.WriteString(m.label(fieldBody))
	sb.WriteString("\n")
	sb.WriteString(m.body.View())
	sb.WriteString(m.fieldErrors(fieldBody, errs))
	sb.WriteString("\n")

	box := "[ ]"
	if m.published {
		box = "[x]"
	}
	sb.WriteString(m.label(fieldPublished))
	sb.WriteString(m.styles.Checkbox.Render(box))
	sb.WriteString(m.fieldErrors(fieldPublished, errs))

	return m.styles.FormBox.Render(sb.String())
}

func (m FormModel) label(f field) string {
	name := fieldNames[f] + ": "
	if f == m.focus {
		return m.styles.FocusLabel.Render(name)
	}
	return m.styles.FormLabel.Render(name)
}

func (m FormModel) fieldErrors(f field, errs map[string][]string) string {
	msgs := errs[fieldNames[f]]
	if len(msgs) == 0 {
		return ""
	}
	return "\n" + m.styles.FieldError.Render(fieldNames[f]+" "+strings.Join(msgs, ", "))
}
