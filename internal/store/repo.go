package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/readlevel/internal/level"
	"github.com/abhisek/readlevel/internal/srs"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when a record changed since it was read.
	// The caller should reload and retry.
	ErrConflict = errors.New("store: record was modified concurrently")
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
	Latest bool      // newest first instead of oldest first
}

// CardKind says what a card was saved from.
type CardKind string

const (
	KindVocabulary CardKind = "vocabulary"
	KindSentence   CardKind = "sentence"
)

// CardRecord is a scheduled card plus ownership and bookkeeping.
type CardRecord struct {
	srs.Card
	UserID    string
	Kind      CardKind
	Ref       string // the saved word or sentence
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CardFilter narrows ListByUser.
type CardFilter struct {
	DueBy time.Time // only cards due at or before this time; zero = all
	Limit int
}

// CardRepo persists flashcards.
type CardRepo interface {
	// Create inserts a new card and sets its Version to 1.
	Create(ctx context.Context, rec *CardRecord) error

	Get(ctx context.Context, id string) (*CardRecord, error)

	// Update writes rec if its Version still matches the stored one and
	// bumps rec.Version. It returns ErrConflict on a lost race.
	Update(ctx context.Context, rec *CardRecord) error

	Delete(ctx context.Context, id string) error

	// ListByUser returns a user's cards ordered by due date.
	ListByUser(ctx context.Context, userID string, f CardFilter) ([]CardRecord, error)
}

// UserRecord is a reader's level plus bookkeeping.
type UserRecord struct {
	ID        string
	Level     level.UserLevel
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserRepo persists reader levels.
type UserRepo interface {
	Create(ctx context.Context, rec *UserRecord) error
	Get(ctx context.Context, id string) (*UserRecord, error)

	// Update has the same optimistic semantics as CardRepo.Update.
	Update(ctx context.Context, rec *UserRecord) error

	List(ctx context.Context) ([]UserRecord, error)
}

// Article is a piece of reading content and its level metadata.
type Article struct {
	ID            string
	Title         string
	Content       string
	Source        string
	Classified    bool
	RawScore      float64
	RALevel       int
	CEFRLevel     string
	AverageRating float64
	RatingCount   int
	ReadCount     int
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ArticleFilter narrows ArticleRepo.List.
type ArticleFilter struct {
	Unclassified bool
	Limit        int
}

// ArticleRepo persists articles.
type ArticleRepo interface {
	Create(ctx context.Context, a *Article) error
	Get(ctx context.Context, id string) (*Article, error)

	// Update has the same optimistic semantics as CardRepo.Update.
	Update(ctx context.Context, a *Article) error

	// List returns articles in creation order.
	List(ctx context.Context, f ArticleFilter) ([]Article, error)
}

// ReviewEventData captures one card review.
type ReviewEventData struct {
	CardID        string
	UserID        string
	Rating        srs.Rating
	StateBefore   srs.State
	StateAfter    srs.State
	Stability     float64
	Difficulty    float64
	ScheduledDays float64
	Due           time.Time
}

// ReviewEvent is a stored ReviewEventData.
type ReviewEvent struct {
	Sequence  int64
	Timestamp time.Time
	ReviewEventData
}

// LevelEventData captures one level adjustment.
type LevelEventData struct {
	UserID    string
	Policy    string // "rating", "accuracy" or "xp"
	ArticleID string
	Input     string // the signal, e.g. "rating=5"
	RABefore  int
	RAAfter   int
	CEFRAfter string
	XP        int
}

// LevelEvent is a stored LevelEventData.
type LevelEvent struct {
	Sequence  int64
	Timestamp time.Time
	LevelEventData
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLMRequestEventData.
type LLMRequestEvent struct {
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	AppendReview(ctx context.Context, data ReviewEventData) (int64, error)
	AppendLevel(ctx context.Context, data LevelEventData) (int64, error)

	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryReviews returns review events, optionally for one card.
	QueryReviews(ctx context.Context, cardID string, opts QueryOpts) ([]ReviewEvent, error)

	// QueryLevels returns level events, optionally for one user.
	QueryLevels(ctx context.Context, userID string, opts QueryOpts) ([]LevelEvent, error)

	QueryLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)
}

// SnapshotData captures a reader's progress at a point in time.
type SnapshotData struct {
	Version    int             `json:"version"`
	Level      level.UserLevel `json:"level"`
	CardStates map[string]int  `json:"card_states"` // card count per srs.State name
	DueCards   int             `json:"due_cards"`
}

// Snapshot represents a point-in-time capture of a reader's progress.
type Snapshot struct {
	Sequence  int64
	UserID    string
	Timestamp time.Time
	Data      SnapshotData
}

// SnapshotRepo manages progress snapshots.
type SnapshotRepo interface {
	// Save stores a new snapshot, assigning its Sequence and Timestamp.
	Save(ctx context.Context, snap *Snapshot) error

	// Latest returns the most recent snapshot for userID, or nil if none exist.
	Latest(ctx context.Context, userID string) (*Snapshot, error)

	// Prune deletes all but the keep most recent snapshots of userID.
	Prune(ctx context.Context, userID string, keep int) error
}
