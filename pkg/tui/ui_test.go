package tui

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfansharif/articles/pkg/article"
	"github.com/irfansharif/articles/pkg/client"
	"github.com/irfansharif/articles/pkg/editor"
)

type fakeAPI struct {
	articles []article.Article
	calls    []string
	err      error
}

func (f *fakeAPI) List(context.Context) ([]article.Article, error) {
	f.calls = append(f.calls, "list")
	return append([]article.Article(nil), f.articles...), f.err
}

func (f *fakeAPI) Get(_ context.Context, id article.ID) (article.Article, error) {
	f.calls = append(f.calls, "get")
	for _, a := range f.articles {
		if a.ID == id {
			return a, nil
		}
	}
	return article.Article{}, &client.NotFoundError{ID: id}
}

func (f *fakeAPI) Create(_ context.Context, fields article.Fields) (article.Article, error) {
	f.calls = append(f.calls, "create")
	if f.err != nil {
		return article.Article{}, f.err
	}
	a := article.Article{ID: article.ID(len(f.articles) + 1)}.With(fields)
	f.articles = append(f.articles, a)
	return a, nil
}

func (f *fakeAPI) Update(_ context.Context, id article.ID, fields article.Fields) (article.Article, error) {
	f.calls = append(f.calls, "update")
	if f.err != nil {
		return article.Article{}, f.err
	}
	for i := range f.articles {
		if f.articles[i].ID == id {
			f.articles[i] = f.articles[i].With(fields)
			return f.articles[i], nil
		}
	}
	return article.Article{}, &client.NotFoundError{ID: id}
}

func (f *fakeAPI) Remove(_ context.Context, id article.ID) error {
	f.calls = append(f.calls, "remove")
	if f.err != nil {
		return f.err
	}
	for i := range f.articles {
		if f.articles[i].ID == id {
			f.articles = append(f.articles[:i], f.articles[i+1:]...)
			return nil
		}
	}
	return &client.NotFoundError{ID: id}
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keySave  = tea.KeyMsg{Type: tea.KeyCtrlS}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// loaded returns a sized model whose initial list request has completed.
func loaded(t *testing.T, api *fakeAPI) Model {
	t.Helper()
	m := New(context.Background(), api, nil, time.Millisecond)
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	articles, err := api.List(context.Background())
	return send(t, m, articlesLoadedMsg{articles: articles, err: err})
}

// finish runs the pending request against api and feeds the outcome back,
// as the Bubble Tea runtime would.
func finish(t *testing.T, m Model, api *fakeAPI) Model {
	t.Helper()
	op := m.session.Pending()
	require.NotNil(t, op, "no request in flight")
	result, err := editor.Execute(context.Background(), api, op)
	return send(t, m, opFinishedMsg{op: op, result: result, err: err})
}

func TestCreateArticle(t *testing.T) {
	api := &fakeAPI{}
	m := loaded(t, api)
	assert.Contains(t, m.View(), "No articles yet")

	m = send(t, m, runes("n"))
	require.Equal(t, stateEdit, m.state)
	m = send(t, m, runes("Test title"))
	m = send(t, m, keyTab)
	m = send(t, m, runes("Test body"))
	assert.Contains(t, m.View(), "New article")

	m = send(t, m, keySave)
	assert.Equal(t, editor.ModeSaving, m.session.Mode())
	assert.Contains(t, m.View(), "Saving...")

	// Keys are ignored while the request is in flight.
	m = send(t, m, keyEsc)
	assert.Equal(t, editor.ModeSaving, m.session.Mode())

	m = finish(t, m, api)
	assert.Equal(t, stateList, m.state)
	assert.Equal(t, []article.Article{{ID: 1, Title: "Test title", Body: "Test body"}}, m.session.Articles())
	assert.Equal(t, "Created #1", m.status)
	assert.Equal(t, []string{"list", "create"}, api.calls)
}

func TestSaveValidationIssuesNoRequest(t *testing.T) {
	api := &fakeAPI{articles: []article.Article{{ID: 1, Title: "A", Body: "B"}}}
	m := loaded(t, api)

	m = send(t, m, runes("e"))
	require.Equal(t, stateEdit, m.state)
	m.form.title.SetValue("")
	m = send(t, m, keySave)

	assert.Equal(t, stateEdit, m.state)
	assert.Nil(t, m.session.Pending())
	require.NotNil(t, m.session.Notice())
	assert.Equal(t, editor.NoticeValidation, m.session.Notice().Kind)
	assert.Contains(t, m.View(), "title can't be blank")

	m = send(t, m, keyEsc)
	assert.Equal(t, stateList, m.state)
	assert.Equal(t, []article.Article{{ID: 1, Title: "A", Body: "B"}}, m.session.Articles())
	assert.Equal(t, []string{"list"}, api.calls)
}

func TestCreateWithoutID(t *testing.T) {
	api := &fakeAPI{}
	m := loaded(t, api)

	m = send(t, m, runes("n"))
	m = send(t, m, runes("T"))
	m = send(t, m, keyTab)
	m = send(t, m, runes("B"))
	m = send(t, m, keySave)
	op := m.session.Pending()
	require.NotNil(t, op)

	m = send(t, m, opFinishedMsg{op: op, result: article.Article{Title: "T", Body: "B"}})
	assert.Equal(t, stateEdit, m.state)
	assert.NotContains(t, m.status, "Created")
	assert.Empty(t, m.session.Articles())
	require.NotNil(t, m.session.Notice())
	assert.Contains(t, m.View(), "Unexpected response from server")
}

func TestTogglePublished(t *testing.T) {
	api := &fakeAPI{articles: []article.Article{{ID: 1, Title: "A", Body: "B"}}}
	m := loaded(t, api)

	m = send(t, m, runes("e"))
	m = send(t, m, keyTab)
	m = send(t, m, keyTab)
	require.Equal(t, "published", m.form.Focused())
	m = send(t, m, keySpace)
	a, ok := m.session.Editing()
	require.True(t, ok)
	assert.True(t, a.Published)

	m = send(t, m, keySave)
	m = finish(t, m, api)
	assert.True(t, m.session.Articles()[0].Published)
	assert.Equal(t, "Saved #1", m.status)
}

func TestRemoveConfirmation(t *testing.T) {
	api := &fakeAPI{articles: []article.Article{
		{ID: 1, Title: "A", Body: "B"},
		{ID: 2, Title: "C", Body: "D"},
	}}
	m := loaded(t, api)

	m = send(t, m, runes("d"))
	require.Equal(t, stateConfirm, m.state)
	assert.Contains(t, m.View(), "Remove article #1? [y/N]")
	m = send(t, m, runes("n"))
	assert.Equal(t, stateList, m.state)
	assert.Nil(t, m.session.Pending())
	assert.Len(t, m.session.Articles(), 2)

	// Any key other than y declines.
	m = send(t, m, runes("d"))
	m = send(t, m, runes("x"))
	assert.Equal(t, stateList, m.state)
	assert.Nil(t, m.session.Pending())

	m = send(t, m, runes("j"))
	m = send(t, m, runes("d"))
	m = send(t, m, runes("y"))
	m = finish(t, m, api)
	assert.Equal(t, []article.Article{{ID: 1, Title: "A", Body: "B"}}, m.session.Articles())
	assert.Equal(t, 0, m.cursor)
}

func TestRemoveVanishedArticle(t *testing.T) {
	start := []article.Article{{ID: 1, Title: "A", Body: "B"}}
	api := &fakeAPI{articles: start}
	m := loaded(t, api)
	api.articles = nil

	m = send(t, m, runes("d"))
	m = send(t, m, runes("y"))
	m = finish(t, m, api)
	assert.Equal(t, start, m.session.Articles())
	require.NotNil(t, m.session.Notice())
	assert.Equal(t, editor.NoticeNotFound, m.session.Notice().Kind)
	assert.Contains(t, m.View(), "Article 1 no longer exists")
}

func TestFilterLockedWhileEditing(t *testing.T) {
	api := &fakeAPI{articles: []article.Article{
		{ID: 1, Title: "A", Body: "B", Published: true},
		{ID: 2, Title: "C", Body: "D"},
	}}
	m := loaded(t, api)

	m = send(t, m, runes("f"))
	assert.Equal(t, editor.FilterPublished, m.session.Filter())
	assert.Contains(t, m.View(), "Articles (1 of 2)")

	// In edit mode "f" is just text.
	m = send(t, m, runes("e"))
	m = send(t, m, runes("f"))
	assert.Equal(t, editor.FilterPublished, m.session.Filter())
	a, _ := m.session.Editing()
	assert.Equal(t, "Af", a.Title)
}

func TestStatusExpires(t *testing.T) {
	api := &fakeAPI{err: &client.NetworkError{Op: "list", Err: errors.New("connection refused")}}
	m := loaded(t, api)
	require.Error(t, m.err)
	assert.Contains(t, m.View(), "connection refused")

	stale := m.statusSeq - 1
	m = send(t, m, clearStatusMsg{seq: stale})
	assert.Error(t, m.err)

	m = send(t, m, clearStatusMsg{seq: m.statusSeq})
	assert.NoError(t, m.err)
	assert.NotContains(t, m.View(), "connection refused")
}

func TestDetailView(t *testing.T) {
	api := &fakeAPI{articles: []article.Article{{ID: 1, Title: "A", Body: "Full body"}}}
	m := loaded(t, api)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, stateDetail, m.state)
	assert.Contains(t, m.View(), "Fetching article...")

	a, err := api.Get(context.Background(), 1)
	m = send(t, m, articleFetchedMsg{article: a, err: err})
	assert.Contains(t, m.View(), "Full body")

	m = send(t, m, keyEsc)
	assert.Equal(t, stateList, m.state)
}

func TestEncodeKey(t *testing.T) {
	for _, tc := range []struct {
		msg  tea.KeyMsg
		want string
	}{
		{runes("é"), "é"},
		{tea.KeyMsg{Type: tea.KeyEnter}, "\r"},
		{tea.KeyMsg{Type: tea.KeyUp}, "\x1b[A"},
		{tea.KeyMsg{Type: tea.KeyCtrlA}, "\x01"},
		{tea.KeyMsg{Type: tea.KeyCtrlX}, "\x18"},
		{tea.KeyMsg{Type: tea.KeyF5}, "\x1b[15~"},
	} {
		assert.Equal(t, tc.want, string(encodeKey(tc.msg)), tc.msg.String())
	}
}

func TestBodyFileRoundTrip(t *testing.T) {
	path, err := writeBodyFile("line one\nline two")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Remove(path) })

	body, err := readBodyFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", body)
}
