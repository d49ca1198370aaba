package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfansharif/articles/pkg/article"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "articles.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func ptr[T any](v T) *T { return &v }

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
	require.NotNil(t, list)

	a, err := s.Create(ctx, article.Fields{Title: "New Article", Body: "New Article Body"})
	require.NoError(t, err)
	assert.Equal(t, article.ID(1), a.ID)
	assert.False(t, a.Published)

	b, err := s.Create(ctx, article.Fields{Title: "Second", Body: "Body", Published: true})
	require.NoError(t, err)
	assert.Equal(t, article.ID(2), b.ID)

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	updated, err := s.Update(ctx, a.ID, article.Patch{Title: ptr("Updated Title")})
	require.NoError(t, err)
	assert.Equal(t, article.Article{ID: 1, Title: "Updated Title", Body: "New Article Body"}, updated)

	updated, err = s.Update(ctx, a.ID, article.Patch{Published: ptr(true)})
	require.NoError(t, err)
	assert.True(t, updated.Published)

	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []article.ID{1, 2}, []article.ID{list[0].ID, list[1].ID})

	require.NoError(t, s.Delete(ctx, a.ID))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Get(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, a.ID), ErrNotFound)
	_, err = s.Update(ctx, a.ID, article.Patch{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreValidation(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Create(ctx, article.Fields{Body: "Body of the article"})
	var verr *article.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"can't be blank"}, verr.Fields["title"])

	_, err = s.Create(ctx, article.Fields{Title: "Title of the article"})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"can't be blank"}, verr.Fields["body"])

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	a, err := s.Create(ctx, article.Fields{Title: "T", Body: "B"})
	require.NoError(t, err)
	_, err = s.Update(ctx, a.ID, article.Patch{Body: ptr("   ")})
	require.True(t, errors.As(err, &verr))

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Body)
}

func TestStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "articles.db")

	s, err := Open(ctx, "sqlite", path)
	require.NoError(t, err)
	_, err = s.Create(ctx, article.Fields{Title: "Persist", Body: "me"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, "sqlite", path)
	require.NoError(t, err)
	defer s.Close()
	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Persist", list[0].Title)
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS articles").
		WillReturnResult(sqlmock.NewResult(0, 0))
	s, err := New(context.Background(), sqlx.NewDb(db, "sqlmock"))
	require.NoError(t, err)
	return s, mock
}

func TestStoreDriverErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")

	t.Run("list", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery("SELECT id, title, body, published FROM articles").WillReturnError(boom)
		_, err := s.List(ctx)
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec("DELETE FROM articles").WithArgs(int64(7)).WillReturnError(boom)
		err := s.Delete(ctx, 7)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update rolls back", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, title, body, published FROM articles WHERE id").
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "body", "published"}).
				AddRow(3, "T", "B", false))
		mock.ExpectQuery("UPDATE articles SET").WillReturnError(boom)
		mock.ExpectRollback()

		_, err := s.Update(ctx, 3, article.Patch{Title: ptr("New")})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("schema", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectExec("CREATE TABLE").WillReturnError(boom)
		_, err = New(ctx, sqlx.NewDb(db, "sqlmock"))
		assert.ErrorIs(t, err, boom)
	})
}
