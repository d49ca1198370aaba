package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"   // postgres driver
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/irfansharif/articles/pkg/article"
)

// ErrNotFound is returned when no article has the requested ID.
var ErrNotFound = errors.New("article not found")

const sqliteSchema = `CREATE TABLE IF NOT EXISTS articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	published BOOLEAN NOT NULL DEFAULT FALSE
)`

const postgresSchema = `CREATE TABLE IF NOT EXISTS articles (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	published BOOLEAN NOT NULL DEFAULT FALSE
)`

const columns = "id, title, body, published"

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Store persists articles in a single SQL table.
type Store struct {
	db *sqlx.DB
}

// Open connects to the database named by driver ("sqlite" or "postgres")
// and dsn, and creates the articles table if needed.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// One writer; also keeps ":memory:" databases on a single connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	s, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database handle, creating the articles table if needed.
func New(ctx context.Context, db *sqlx.DB) (*Store, error) {
	schema := sqliteSchema
	if db.DriverName() == "postgres" {
		schema = postgresSchema
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("creating articles table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// List returns all articles in ascending ID order.
func (s *Store) List(ctx context.Context) ([]article.Article, error) {
	articles := []article.Article{}
	if err := s.db.SelectContext(ctx, &articles,
		"SELECT "+columns+" FROM articles ORDER BY id"); err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	return articles, nil
}

// Get retrieves an article by ID.
func (s *Store) Get(ctx context.Context, id article.ID) (article.Article, error) {
	return get(ctx, s.db, id)
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

func get(ctx context.Context, q queryer, id article.ID) (article.Article, error) {
	var a article.Article
	err := sqlx.GetContext(ctx, q, &a,
		q.Rebind("SELECT "+columns+" FROM articles WHERE id = ?"), int64(id))
	if errors.Is(err, sql.ErrNoRows) {
		return article.Article{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return article.Article{}, fmt.Errorf("reading article %s: %w", id, err)
	}
	return a, nil
}

// Create validates f and inserts it, returning the stored article with its
// assigned ID.
func (s *Store) Create(ctx context.Context, f article.Fields) (article.Article, error) {
	if err := f.Validate(); err != nil {
		return article.Article{}, err
	}
	var a article.Article
	err := s.db.QueryRowxContext(ctx,
		s.db.Rebind("INSERT INTO articles (title, body, published) VALUES (?, ?, ?) RETURNING "+columns),
		f.Title, f.Body, f.Published,
	).StructScan(&a)
	if err != nil {
		return article.Article{}, fmt.Errorf("inserting article: %w", err)
	}
	return a, nil
}

// Update applies p to the article with the given ID. The merged result must
// pass validation.
func (s *Store) Update(ctx context.Context, id article.ID, p article.Patch) (_ article.Article, retErr error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return article.Article{}, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	current, err := get(ctx, tx, id)
	if err != nil {
		return article.Article{}, err
	}
	f := p.Apply(current.Fields())
	if err := f.Validate(); err != nil {
		return article.Article{}, err
	}

	var a article.Article
	err = tx.QueryRowxContext(ctx,
		tx.Rebind("UPDATE articles SET title = ?, body = ?, published = ? WHERE id = ? RETURNING "+columns),
		f.Title, f.Body, f.Published, int64(id),
	).StructScan(&a)
	if err != nil {
		return article.Article{}, fmt.Errorf("updating article %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return article.Article{}, fmt.Errorf("commit: %w", err)
	}
	return a, nil
}

// Delete removes an article by ID.
func (s *Store) Delete(ctx context.Context, id article.ID) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM articles WHERE id = ?"), int64(id))
	if err != nil {
		return fmt.Errorf("deleting article %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting article %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Count returns the total number of articles.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM articles"); err != nil {
		return 0, fmt.Errorf("counting articles: %w", err)
	}
	return n, nil
}
