package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/abhisek/readlevel/internal/assess"
	"github.com/abhisek/readlevel/internal/logger"
	"github.com/abhisek/readlevel/internal/readability"
	"github.com/abhisek/readlevel/internal/store"
)

const easyText = "The cat sat on the mat. The dog ran to the park. We like to play in the sun."

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func addArticle(t *testing.T, s *store.Store, id, content string) {
	t.Helper()
	require.NoError(t, s.Articles().Create(context.Background(), &store.Article{
		ID: id, Title: id, Content: content, Source: "test",
	}))
}

// fakeScorer returns a fixed result per text and fails on "boom".
type fakeScorer struct {
	calls  atomic.Int32
	before func(text string)
}

func (f *fakeScorer) Assess(_ context.Context, text string) (assess.Result, error) {
	f.calls.Add(1)
	if f.before != nil {
		f.before(text)
	}
	if text == "boom" {
		return assess.Result{}, errors.New("scorer exploded")
	}
	r := readability.FromScore(7.4)
	return assess.Result{Result: r, Readability: r}, nil
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10*time.Minute, cfg.Interval)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Zero(t, cfg.Limit)
}

func TestRunOnce_ClassifiesPending(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	addArticle(t, s, "a1", easyText)
	addArticle(t, s, "a2", easyText+" It is fun.")
	addArticle(t, s, "a3", "boom")

	scorer := &fakeScorer{}
	r := NewRunner(s.Articles(), scorer, Config{Concurrency: 2}, logger.Nop())
	rep, err := r.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, Report{Pending: 3, Classified: 2, Failed: 1}, rep)

	got, err := s.Articles().Get(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, got.Classified)
	assert.Equal(t, 7, got.RALevel)
	assert.Equal(t, readability.FromScore(7.4).CEFRLevel, got.CEFRLevel)
	assert.InDelta(t, 7.4, got.RawScore, 1e-9)

	// The failed article stays pending; the classified ones are not revisited.
	rep, err = r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Pending: 1, Failed: 1}, rep)
	assert.EqualValues(t, 4, scorer.calls.Load())
}

func TestRunOnce_Limit(t *testing.T) {
	s := openStore(t)
	for _, id := range []string{"a1", "a2", "a3"} {
		addArticle(t, s, id, easyText)
	}

	r := NewRunner(s.Articles(), &fakeScorer{}, Config{Concurrency: 1, Limit: 2}, nil)
	rep, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Pending)
	assert.Equal(t, 2, rep.Classified)

	left, err := s.Articles().List(context.Background(), store.ArticleFilter{Unclassified: true})
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestRunOnce_NothingPending(t *testing.T) {
	s := openStore(t)
	scorer := &fakeScorer{}
	rep, err := NewRunner(s.Articles(), scorer, DefaultConfig(), nil).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{}, rep)
	assert.Zero(t, scorer.calls.Load())
}

func TestRunOnce_ConcurrentEditIsSkipped(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	addArticle(t, s, "a1", easyText)

	// Someone renames the article while it is being scored.
	scorer := &fakeScorer{before: func(string) {
		a, err := s.Articles().Get(ctx, "a1")
		if !assert.NoError(t, err) {
			return
		}
		a.Title = "renamed"
		assert.NoError(t, s.Articles().Update(ctx, a))
	}}

	rep, err := NewRunner(s.Articles(), scorer, Config{Concurrency: 1}, nil).RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Pending: 1, Skipped: 1}, rep)

	got, err := s.Articles().Get(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, got.Classified)
	assert.Equal(t, "renamed", got.Title)
}

func TestRunOnce_Canceled(t *testing.T) {
	s := openStore(t)
	addArticle(t, s, "a1", easyText)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRunner(s.Articles(), &fakeScorer{}, Config{Concurrency: 1}, nil).RunOnce(ctx)
	require.Error(t, err)
}

func TestRunOnce_ReadabilityOnlyAssessor(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	addArticle(t, s, "a1", easyText)

	a := assess.New(nil, nil, assess.DefaultConfig(), nil)
	rep, err := NewRunner(s.Articles(), a, Config{Concurrency: 1}, nil).RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Classified)

	got, err := s.Articles().Get(ctx, "a1")
	require.NoError(t, err)
	want := readability.Classify(easyText)
	assert.Equal(t, want.RALevel, got.RALevel)
	assert.Equal(t, want.CEFRLevel, got.CEFRLevel)
}

func TestWatch_RunsUntilCanceled(t *testing.T) {
	s := openStore(t)
	addArticle(t, s, "a1", easyText)

	r := NewRunner(s.Articles(), &fakeScorer{}, Config{Concurrency: 1}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx, 50*time.Millisecond) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after its context ended")
	}

	got, err := s.Articles().Get(context.Background(), "a1")
	require.NoError(t, err)
	assert.True(t, got.Classified)
}

func TestWatch_RejectsNonPositiveInterval(t *testing.T) {
	s := openStore(t)
	r := NewRunner(s.Articles(), &fakeScorer{}, Config{Concurrency: 1}, nil)
	assert.Error(t, r.Watch(context.Background(), 0))
}

func writeXLSX(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		for j, v := range row {
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", name, v))
		}
	}
	path := filepath.Join(t.TempDir(), "articles.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestImport_XLSX(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	path := writeXLSX(t, [][]any{
		{"Title", "Content", "Source"},
		{"Cats", easyText, "reader"},
		{"Empty", "", ""},
		{"Dogs", "Dogs bark loudly at night.", ""},
	})

	res, err := Import(ctx, s.Articles(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalProcessed)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Row 3")
	require.Len(t, res.IDs, 2)

	first, err := s.Articles().Get(ctx, res.IDs[0])
	require.NoError(t, err)
	assert.Equal(t, "Cats", first.Title)
	assert.Equal(t, "reader", first.Source)
	assert.False(t, first.Classified)

	second, err := s.Articles().Get(ctx, res.IDs[1])
	require.NoError(t, err)
	assert.Equal(t, "articles.xlsx", second.Source)
}

func TestImport_CSV(t *testing.T) {
	s := openStore(t)
	path := filepath.Join(t.TempDir(), "articles.csv")
	data := "content,title\n\"One, two.\",Numbers\n,\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	res, err := Import(context.Background(), s.Articles(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.TotalProcessed)

	a, err := s.Articles().Get(context.Background(), res.IDs[0])
	require.NoError(t, err)
	assert.Equal(t, "One, two.", a.Content)
	assert.Equal(t, "Numbers", a.Title)
}

func TestImport_Errors(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, err := Import(ctx, s.Articles(), filepath.Join(t.TempDir(), "notes.txt"))
	assert.ErrorContains(t, err, "unsupported import file")

	_, err = Import(ctx, s.Articles(), filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)

	path := writeXLSX(t, [][]any{{"Heading", "Body"}, {"x", "y"}})
	_, err = Import(ctx, s.Articles(), path)
	assert.ErrorContains(t, err, "title and content")
}
