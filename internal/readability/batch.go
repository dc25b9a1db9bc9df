package readability

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ClassifyAll classifies texts with at most concurrency workers and returns
// results in input order. A non-positive concurrency uses GOMAXPROCS.
// It stops early only when ctx is cancelled.
func (c *Classifier) ClassifyAll(ctx context.Context, texts []string, concurrency int) ([]Result, error) {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	results := make([]Result, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, text := range texts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.Classify(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
