package study

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/abhisek/readlevel/internal/level"
	"github.com/abhisek/readlevel/internal/store"
)

// Policy names recorded on level events.
const (
	PolicyRating   = "rating"
	PolicyAccuracy = "accuracy"
	PolicyXP       = "xp"
)

// User returns a reader's level record, or a level-0 record that has not
// been saved yet when the reader is unknown.
func (s *Service) User(ctx context.Context, userID string) (*store.UserRecord, error) {
	return loadUser(ctx, s.store.Repos(), userID)
}

// CompleteQuiz re-centers userID on the level of articleID from their quiz
// answers and counts the article as read.
func (s *Service) CompleteQuiz(ctx context.Context, userID, articleID string, answers []bool) (level.UserLevel, error) {
	accuracy, err := level.QuizAccuracy(answers)
	if err != nil {
		return level.UserLevel{}, err
	}

	var out level.UserLevel
	err = s.inTx(ctx, func(r store.Repos) error {
		article, err := r.Articles.Get(ctx, articleID)
		if err != nil {
			return err
		}
		if !article.Classified {
			return fmt.Errorf("%w: %s", ErrUnclassified, articleID)
		}
		user, err := loadUser(ctx, r, userID)
		if err != nil {
			return err
		}

		next, err := s.adj.Adjust(level.AccuracySignal{
			ArticleRALevel:    article.RALevel,
			PercentageCorrect: accuracy,
			XP:                user.Level.XP,
		})
		if err != nil {
			return err
		}

		article.ReadCount++
		if err := r.Articles.Update(ctx, article); err != nil {
			return err
		}
		out = next
		return s.applyLevel(ctx, r, user, next, store.LevelEventData{
			Policy:    PolicyAccuracy,
			ArticleID: articleID,
			Input:     "accuracy=" + strconv.FormatFloat(accuracy, 'f', 2, 64),
		})
	})
	if err != nil {
		return level.UserLevel{}, err
	}
	s.log.Info("quiz completed", "user", userID, "article", articleID, "accuracy", accuracy, "ra_level", out.RALevel)
	return out, nil
}

// RateArticle moves userID's level by their 1-5 difficulty rating of
// articleID and folds the rating into the article's average.
func (s *Service) RateArticle(ctx context.Context, userID, articleID string, rating int) (level.UserLevel, error) {
	var out level.UserLevel
	err := s.inTx(ctx, func(r store.Repos) error {
		article, err := r.Articles.Get(ctx, articleID)
		if err != nil {
			return err
		}
		user, err := loadUser(ctx, r, userID)
		if err != nil {
			return err
		}

		next, err := s.adj.Adjust(level.RatingDelta{
			CurrentRALevel: user.Level.RALevel,
			Rating:         rating,
			XP:             user.Level.XP,
		})
		if err != nil {
			return err
		}

		article.AverageRating, article.RatingCount = level.UpdateAverageRating(article.AverageRating, article.RatingCount, rating)
		if err := r.Articles.Update(ctx, article); err != nil {
			return err
		}
		out = next
		return s.applyLevel(ctx, r, user, next, store.LevelEventData{
			Policy:    PolicyRating,
			ArticleID: articleID,
			Input:     "rating=" + strconv.Itoa(rating),
		})
	})
	if err != nil {
		return level.UserLevel{}, err
	}
	s.log.Info("article rated", "user", userID, "article", articleID, "rating", rating, "ra_level", out.RALevel)
	return out, nil
}

// AwardXP adds points to userID's total and derives the level from it.
// A negative amount is allowed as long as the total stays non-negative.
func (s *Service) AwardXP(ctx context.Context, userID string, points int) (level.UserLevel, error) {
	var out level.UserLevel
	err := s.inTx(ctx, func(r store.Repos) error {
		user, err := loadUser(ctx, r, userID)
		if err != nil {
			return err
		}
		next, err := s.adj.Adjust(level.CumulativeXP{XP: user.Level.XP + points})
		if err != nil {
			return err
		}
		out = next
		return s.applyLevel(ctx, r, user, next, store.LevelEventData{
			Policy: PolicyXP,
			Input:  fmt.Sprintf("xp=%+d", points),
		})
	})
	if err != nil {
		return level.UserLevel{}, err
	}
	s.log.Info("xp awarded", "user", userID, "points", points, "xp", out.XP, "ra_level", out.RALevel)
	return out, nil
}

// loadUser returns the stored reader or an unsaved level-0 record.
func loadUser(ctx context.Context, r store.Repos, userID string) (*store.UserRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("user is required")
	}
	rec, err := r.Users.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return &store.UserRecord{ID: userID, Level: level.NewUserLevel(0, 0)}, nil
	}
	return rec, err
}

// applyLevel saves next as user's level, appends the level event and takes
// a progress snapshot.
func (s *Service) applyLevel(ctx context.Context, r store.Repos, user *store.UserRecord, next level.UserLevel, ev store.LevelEventData) error {
	before := user.Level.RALevel
	user.Level = next
	var err error
	if user.Version == 0 {
		err = r.Users.Create(ctx, user)
	} else {
		err = r.Users.Update(ctx, user)
	}
	if err != nil {
		return err
	}

	ev.UserID = user.ID
	ev.RABefore = before
	ev.RAAfter = next.RALevel
	ev.CEFRAfter = next.CEFRLevel
	ev.XP = next.XP
	if _, err := r.Events.AppendLevel(ctx, ev); err != nil {
		return err
	}
	return s.snapshot(ctx, r, user)
}
