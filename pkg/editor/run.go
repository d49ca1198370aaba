package editor

import (
	"context"
	"fmt"

	"github.com/irfansharif/articles/pkg/article"
)

// API is the subset of the REST client a Session is driven against.
type API interface {
	List(ctx context.Context) ([]article.Article, error)
	Create(ctx context.Context, f article.Fields) (article.Article, error)
	Update(ctx context.Context, id article.ID, f article.Fields) (article.Article, error)
	Remove(ctx context.Context, id article.ID) error
}

// Execute issues the request op stands for. It does not touch any Session.
// A success response that does not match op is reported as
// ErrUnexpectedResponse.
func Execute(ctx context.Context, api API, op *Op) (article.Article, error) {
	var result article.Article
	var err error
	switch op.Kind {
	case OpCreate:
		result, err = api.Create(ctx, op.Fields)
	case OpUpdate:
		result, err = api.Update(ctx, op.ID, op.Fields)
	case OpRemove:
		err = api.Remove(ctx, op.ID)
	default:
		return article.Article{}, fmt.Errorf("unknown op kind %d", op.Kind)
	}
	if err == nil {
		err = checkResult(op, result)
	}
	return result, err
}

// Run executes op and applies its outcome, returning the article the
// server stored. The returned error is the request's; it has already been
// turned into a Notice.
func (s *Session) Run(ctx context.Context, api API, op *Op) (article.Article, error) {
	result, err := Execute(ctx, api, op)
	if cerr := s.Complete(op, result, err); cerr != nil {
		return article.Article{}, cerr
	}
	if err != nil {
		return article.Article{}, err
	}
	return result, nil
}

// Reload replaces the list with a fresh copy from the server. It is only
// allowed in view mode.
func (s *Session) Reload(ctx context.Context, api API) error {
	if err := s.checkIdle(); err != nil {
		return err
	}
	articles, err := api.List(ctx)
	if err != nil {
		s.notice = noticeFor(err)
		return err
	}
	s.notice = nil
	return s.Load(articles)
}
