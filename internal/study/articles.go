package study

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/abhisek/readlevel/internal/assess"
	"github.com/abhisek/readlevel/internal/store"
)

// AddArticle stores a new unclassified article.
func (s *Service) AddArticle(ctx context.Context, title, content, source string) (*store.Article, error) {
	if content == "" {
		return nil, fmt.Errorf("add article: content is required")
	}
	a := &store.Article{ID: uuid.NewString(), Title: title, Content: content, Source: source}
	if err := s.store.Articles().Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ClassifyArticle scores a stored article and writes its level back.
// Scoring runs outside the transaction since it may call a model.
func (s *Service) ClassifyArticle(ctx context.Context, articleID string) (*store.Article, assess.Result, error) {
	a, err := s.store.Articles().Get(ctx, articleID)
	if err != nil {
		return nil, assess.Result{}, err
	}
	res, err := s.scorer.Assess(ctx, a.Content)
	if err != nil {
		return nil, assess.Result{}, fmt.Errorf("classify article %s: %w", articleID, err)
	}

	a.Classified = true
	a.RawScore = res.RawScore
	a.RALevel = res.RALevel
	a.CEFRLevel = res.CEFRLevel
	if err := s.store.Articles().Update(ctx, a); err != nil {
		return nil, assess.Result{}, err
	}
	s.log.Info("article classified", "article", a.ID, "ra_level", a.RALevel, "cefr", a.CEFRLevel, "fallback", res.Fallback)
	return a, res, nil
}
