package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/irfansharif/articles/pkg/article"
	"github.com/irfansharif/articles/pkg/storage"
)

// Store is the persistence the handlers need.
type Store interface {
	List(ctx context.Context) ([]article.Article, error)
	Get(ctx context.Context, id article.ID) (article.Article, error)
	Create(ctx context.Context, f article.Fields) (article.Article, error)
	Update(ctx context.Context, id article.ID, p article.Patch) (article.Article, error)
	Delete(ctx context.Context, id article.ID) error
	Count(ctx context.Context) (int, error)
}

// Handler serves the articles resource.
type Handler struct {
	store Store
	log   *zap.Logger
}

// NewHandler creates a Handler backed by store.
func NewHandler(store Store, log *zap.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// List handles GET /articles.
func (h *Handler) List(c *gin.Context) {
	articles, err := h.store.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, articles)
}

// Show handles GET /articles/:id.
func (h *Handler) Show(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}
	a, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// Create handles POST /articles.
func (h *Handler) Create(c *gin.Context) {
	p, ok := h.patch(c)
	if !ok {
		return
	}
	a, err := h.store.Create(c.Request.Context(), p.Apply(article.Fields{}))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.log.Info("Article created", zap.Int64("id", int64(a.ID)))
	c.JSON(http.StatusCreated, a)
}

// Update handles PATCH and PUT /articles/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}
	// An unknown article is a 404 whatever the body holds.
	if _, err := h.store.Get(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	p, ok := h.patch(c)
	if !ok {
		return
	}
	a, err := h.store.Update(c.Request.Context(), id, p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// Destroy handles DELETE /articles/:id.
func (h *Handler) Destroy(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.log.Info("Article deleted", zap.Int64("id", int64(id)))
	c.Status(http.StatusNoContent)
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	n, err := h.store.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "articles": n})
}

// id parses the :id path parameter. Anything that cannot name a stored
// article is answered with 404.
func (h *Handler) id(c *gin.Context) (article.ID, bool) {
	id, err := article.ParseID(c.Param("id"))
	if err != nil || id.IsDraft() {
		c.JSON(http.StatusNotFound, gin.H{"error": storage.ErrNotFound.Error()})
		return 0, false
	}
	return id, true
}

func (h *Handler) patch(c *gin.Context) (article.Patch, bool) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return article.Patch{}, false
	}
	p, err := article.ParsePatch(data)
	if err != nil {
		h.fail(c, err)
		return article.Patch{}, false
	}
	return p, true
}

// fail maps store and parse errors onto HTTP statuses.
func (h *Handler) fail(c *gin.Context, err error) {
	var verr *article.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, verr.Fields)
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": storage.ErrNotFound.Error()})
	case errors.Is(err, article.ErrMalformed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		h.log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
