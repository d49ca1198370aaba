package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/irfansharif/articles/pkg/article"
	"github.com/irfansharif/articles/pkg/client"
	"github.com/irfansharif/articles/pkg/server"
	"github.com/irfansharif/articles/pkg/storage"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := storage.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "articles.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ts := httptest.NewServer(server.NewRouter(store, zap.NewNop()))
	t.Cleanup(ts.Close)
	return ts
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := client.New(newServer(t).URL + "/")

	list, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	a, err := c.Create(ctx, article.Fields{Title: "Test title", Body: "Test body"})
	require.NoError(t, err)
	assert.Equal(t, article.Article{ID: 1, Title: "Test title", Body: "Test body"}, a)

	got, err := c.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	u, err := c.Update(ctx, a.ID, article.Fields{Title: "A", Body: "B", Published: true})
	require.NoError(t, err)
	assert.Equal(t, article.Article{ID: 1, Title: "A", Body: "B", Published: true}, u)

	list, err = c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []article.Article{u}, list)

	require.NoError(t, c.Remove(ctx, a.ID))

	err = c.Remove(ctx, a.ID)
	var nf *client.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, article.ID(1), nf.ID)
	assert.True(t, client.IsNotFound(err))

	_, err = c.Update(ctx, a.ID, article.Fields{Title: "A", Body: "B"})
	assert.True(t, client.IsNotFound(err))
}

func TestClientValidationError(t *testing.T) {
	c := client.New(newServer(t).URL)

	_, err := c.Create(context.Background(), article.Fields{Title: "only a title"})
	var verr *article.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string][]string{"body": {"can't be blank"}}, verr.Fields)
}

func TestClientServerErrors(t *testing.T) {
	ctx := context.Background()
	mux := http.NewServeMux()
	mux.HandleFunc("/articles", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			// 422 without a field map is not a validation error.
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`oops`))
			return
		}
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	})
	mux.HandleFunc("/articles/1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()
	c := client.New(ts.URL)

	var serr *client.ServerError

	_, err := c.List(ctx)
	require.True(t, errors.As(err, &serr), "%v", err)
	assert.Equal(t, http.StatusOK, serr.Status)

	_, err = c.Create(ctx, article.Fields{Title: "T", Body: "B"})
	require.True(t, errors.As(err, &serr), "%v", err)
	assert.Equal(t, http.StatusUnprocessableEntity, serr.Status)
	assert.Equal(t, "oops", serr.Body)

	err = c.Remove(ctx, 1)
	require.True(t, errors.As(err, &serr), "%v", err)
	assert.Equal(t, http.StatusInternalServerError, serr.Status)
	assert.Contains(t, serr.Error(), "remove: HTTP 500")
}

func TestClientNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := client.New(url).List(context.Background())
	var nerr *client.NetworkError
	require.True(t, errors.As(err, &nerr), "%v", err)
	assert.Equal(t, "list", nerr.Op)
}
