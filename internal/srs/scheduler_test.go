package srs

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewScheduler(Config{})
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	return s
}

// graduatedCard takes a new card to Review with consecutive Good ratings.
func graduatedCard(t *testing.T, s *Scheduler) (Card, time.Time) {
	t.Helper()
	c := NewCard("card-1", t0)
	now := t0
	for i := 0; i < s.GraduationReviews(); i++ {
		var err error
		c, err = s.Schedule(c, Good, now)
		if err != nil {
			t.Fatalf("Schedule() error = %v", err)
		}
		now = c.Due
	}
	if c.State != Review {
		t.Fatalf("state after %d Good = %v, want Review", s.GraduationReviews(), c.State)
	}
	return c, now
}

func TestSchedule_NewCardAnyRatingEntersLearning(t *testing.T) {
	s := newTestScheduler(t)
	for _, r := range Ratings {
		c, err := s.Schedule(NewCard("c", t0), r, t0)
		if err != nil {
			t.Fatalf("Schedule(%v) error = %v", r, err)
		}
		if c.State != Learning {
			t.Errorf("Schedule(%v).State = %v, want Learning", r, c.State)
		}
		if !c.Due.After(t0) {
			t.Errorf("Schedule(%v).Due = %v, want after %v", r, c.Due, t0)
		}
		if c.LastReview == nil || !c.LastReview.Equal(t0) {
			t.Errorf("Schedule(%v).LastReview = %v, want %v", r, c.LastReview, t0)
		}
	}
}

func TestSchedule_NewCardSteps(t *testing.T) {
	s := newTestScheduler(t)
	tests := []struct {
		rating   Rating
		wantStep int
		wantWait time.Duration
	}{
		{Again, 0, time.Minute},
		{Hard, 0, 330 * time.Second},
		{Good, 1, 10 * time.Minute},
		{Easy, 1, 10 * time.Minute},
	}
	for _, tt := range tests {
		c, err := s.Schedule(NewCard("c", t0), tt.rating, t0)
		if err != nil {
			t.Fatalf("Schedule(%v) error = %v", tt.rating, err)
		}
		if c.Step != tt.wantStep {
			t.Errorf("Schedule(%v).Step = %d, want %d", tt.rating, c.Step, tt.wantStep)
		}
		if got := c.Due.Sub(t0); got != tt.wantWait {
			t.Errorf("Schedule(%v) wait = %v, want %v", tt.rating, got, tt.wantWait)
		}
	}
}

func TestSchedule_GraduationConstant(t *testing.T) {
	s := newTestScheduler(t)
	if got := s.GraduationReviews(); got != 2 {
		t.Fatalf("GraduationReviews() = %d, want 2", got)
	}

	c := NewCard("c", t0)
	now := t0
	for i := 1; i <= 2; i++ {
		var err error
		c, err = s.Schedule(c, Good, now)
		if err != nil {
			t.Fatalf("Schedule() error = %v", err)
		}
		now = c.Due
		if i < 2 && c.State != Learning {
			t.Errorf("after %d Good state = %v, want Learning", i, c.State)
		}
	}
	if c.State != Review {
		t.Errorf("after 2 Good state = %v, want Review", c.State)
	}
	if c.ScheduledDays < 1 {
		t.Errorf("ScheduledDays = %f, want >= 1", c.ScheduledDays)
	}
}

func TestGraduationReviews_FollowsLearningSteps(t *testing.T) {
	tests := []struct {
		steps []time.Duration
		want  int
	}{
		{[]time.Duration{}, 2},
		{[]time.Duration{time.Minute}, 2},
		{[]time.Duration{time.Minute, 5 * time.Minute, time.Hour}, 3},
	}
	for _, tt := range tests {
		s, err := NewScheduler(Config{LearningSteps: tt.steps})
		if err != nil {
			t.Fatalf("NewScheduler() error = %v", err)
		}
		if got := s.GraduationReviews(); got != tt.want {
			t.Errorf("GraduationReviews() with %d steps = %d, want %d", len(tt.steps), got, tt.want)
		}

		c := NewCard("c", t0)
		now := t0
		for i := 0; i < tt.want; i++ {
			c, err = s.Schedule(c, Good, now)
			if err != nil {
				t.Fatalf("Schedule() error = %v", err)
			}
			now = c.Due
		}
		if c.State != Review {
			t.Errorf("with %d steps, state after %d Good = %v, want Review", len(tt.steps), tt.want, c.State)
		}
	}
}

func TestSchedule_EasyGraduatesFromLearning(t *testing.T) {
	s := newTestScheduler(t)
	c, err := s.Schedule(NewCard("c", t0), Again, t0)
	if err != nil {
		t.Fatal(err)
	}
	c, err = s.Schedule(c, Easy, c.Due)
	if err != nil {
		t.Fatal(err)
	}
	if c.State != Review {
		t.Errorf("State = %v, want Review", c.State)
	}
}

func TestSchedule_LapsePenalty(t *testing.T) {
	s := newTestScheduler(t)
	c, _ := graduatedCard(t, s)

	for _, wait := range []time.Duration{0, time.Hour, 24 * time.Hour, 3 * 24 * time.Hour, 60 * 24 * time.Hour} {
		now := *c.LastReview
		if wait > 0 {
			now = c.Due.Add(wait)
		}
		got, err := s.Schedule(c, Again, now)
		if err != nil {
			t.Fatalf("Schedule(Again) error = %v", err)
		}
		if got.Stability >= c.Stability {
			t.Errorf("wait %v: stability %f -> %f, want decrease", wait, c.Stability, got.Stability)
		}
		if got.Lapses != c.Lapses+1 {
			t.Errorf("wait %v: Lapses = %d, want %d", wait, got.Lapses, c.Lapses+1)
		}
		if got.Reps != c.Reps {
			t.Errorf("wait %v: Reps = %d, want %d", wait, got.Reps, c.Reps)
		}
		if got.State != Relearning {
			t.Errorf("wait %v: State = %v, want Relearning", wait, got.State)
		}
		if want := now.Add(10 * time.Minute); !got.Due.Equal(want) {
			t.Errorf("wait %v: Due = %v, want %v", wait, got.Due, want)
		}
	}
}

func TestSchedule_RelearningRecovers(t *testing.T) {
	s := newTestScheduler(t)
	c, now := graduatedCard(t, s)

	c, err := s.Schedule(c, Again, now)
	if err != nil {
		t.Fatal(err)
	}
	c, err = s.Schedule(c, Good, c.Due)
	if err != nil {
		t.Fatal(err)
	}
	if c.State != Review {
		t.Errorf("State = %v, want Review", c.State)
	}
}

func TestSchedule_OnTimeReviewGrowsMoreThanEarly(t *testing.T) {
	s := newTestScheduler(t)
	c, _ := graduatedCard(t, s)

	early, err := s.Schedule(c, Good, c.LastReview.Add(36*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	onTime, err := s.Schedule(c, Good, c.Due)
	if err != nil {
		t.Fatal(err)
	}
	if onTime.Stability <= early.Stability {
		t.Errorf("on-time stability %f <= early stability %f", onTime.Stability, early.Stability)
	}
}

func TestSchedule_RatingOrdersStability(t *testing.T) {
	s := newTestScheduler(t)
	c, _ := graduatedCard(t, s)

	prev := 0.0
	for _, r := range []Rating{Hard, Good, Easy} {
		got, err := s.Schedule(c, r, c.Due)
		if err != nil {
			t.Fatal(err)
		}
		if got.Stability <= prev {
			t.Errorf("%v stability %f not above previous %f", r, got.Stability, prev)
		}
		prev = got.Stability
	}
}

func TestSchedule_DifficultyDirection(t *testing.T) {
	s := newTestScheduler(t)
	c, _ := graduatedCard(t, s)

	again, _ := s.Schedule(c, Again, c.Due)
	easy, _ := s.Schedule(c, Easy, c.Due)
	if again.Difficulty <= c.Difficulty {
		t.Errorf("Again difficulty %f, want above %f", again.Difficulty, c.Difficulty)
	}
	if easy.Difficulty >= c.Difficulty {
		t.Errorf("Easy difficulty %f, want below %f", easy.Difficulty, c.Difficulty)
	}
}

func TestSchedule_MaximumInterval(t *testing.T) {
	s, err := NewScheduler(Config{MaximumInterval: 5})
	if err != nil {
		t.Fatal(err)
	}
	last := t0.Add(-400 * 24 * time.Hour)
	c := Card{
		ID: "c", State: Review, Stability: 300, Difficulty: 2,
		Due: t0, LastReview: &last, Reps: 10,
	}
	got, err := s.Schedule(c, Easy, t0)
	if err != nil {
		t.Fatal(err)
	}
	if got.ScheduledDays != 5 {
		t.Errorf("ScheduledDays = %f, want 5", got.ScheduledDays)
	}
	if want := t0.Add(5 * day); !got.Due.Equal(want) {
		t.Errorf("Due = %v, want %v", got.Due, want)
	}
}

func TestSchedule_HugeStabilityCapsAtMaximumInterval(t *testing.T) {
	s := newTestScheduler(t)
	last := t0.Add(-2 * day)
	c := Card{
		ID: "c", State: Review, Stability: 1e20, Difficulty: 5,
		Due: t0, LastReview: &last, Reps: 10,
	}
	got, err := s.Schedule(c, Good, t0)
	if err != nil {
		t.Fatal(err)
	}
	if got.ScheduledDays != DefaultMaximumInterval {
		t.Errorf("ScheduledDays = %f, want %d", got.ScheduledDays, DefaultMaximumInterval)
	}
	if !got.Due.After(t0) {
		t.Errorf("Due = %v, want after %v", got.Due, t0)
	}
}

func TestSchedule_SameDayHardKeepsStability(t *testing.T) {
	s := newTestScheduler(t)
	c, _ := graduatedCard(t, s)

	got, err := s.Schedule(c, Hard, c.LastReview.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if got.Stability < c.Stability {
		t.Errorf("same-day Hard stability %f -> %f, want no decrease", c.Stability, got.Stability)
	}
}

// Repeated lapses keep lowering stability even once it reaches MinStability.
func TestSchedule_LapseBelowStabilityFloor(t *testing.T) {
	s := newTestScheduler(t)
	c, now := graduatedCard(t, s)

	for i := 0; i < 100; i++ {
		got, err := s.Schedule(c, Again, now)
		if err != nil {
			t.Fatalf("lapse %d: %v", i, err)
		}
		if got.Stability >= c.Stability {
			t.Fatalf("lapse %d: stability %g -> %g, want decrease", i, c.Stability, got.Stability)
		}
		if got.Stability <= 0 {
			t.Fatalf("lapse %d: stability %g, want positive", i, got.Stability)
		}
		c, now = got, got.Due
	}
	if c.Stability >= MinStability {
		t.Errorf("stability after 100 lapses = %g, want below %g", c.Stability, MinStability)
	}

	last := t0.Add(-3 * day)
	floor := Card{
		ID: "c", State: Review, Stability: MinStability, Difficulty: 9,
		Due: t0, LastReview: &last, Reps: 4,
	}
	got, err := s.Schedule(floor, Again, t0)
	if err != nil {
		t.Fatal(err)
	}
	if got.Stability >= MinStability {
		t.Errorf("overdue lapse at floor stability = %g, want below %g", got.Stability, MinStability)
	}
}

func TestSchedule_DoesNotModifyInput(t *testing.T) {
	s := newTestScheduler(t)
	c, _ := graduatedCard(t, s)
	last := *c.LastReview
	before := c

	if _, err := s.Schedule(c, Again, c.Due); err != nil {
		t.Fatal(err)
	}
	if !c.LastReview.Equal(last) || c.Stability != before.Stability || c.State != before.State {
		t.Errorf("input card modified: %+v", c)
	}
}

// Random rating sequences of length 1..1000: difficulty stays in range,
// every rating yields a future due date and counters never decrease.
func TestSchedule_RandomSequences(t *testing.T) {
	s := newTestScheduler(t)
	rng := rand.New(rand.NewSource(42))

	for _, n := range []int{1, 2, 10, 57, 250, 1000} {
		c := NewCard("c", t0)
		now := t0
		for i := 0; i < n; i++ {
			r := Ratings[rng.Intn(len(Ratings))]
			// Review anywhere between the previous review and a week past due.
			if c.LastReview != nil {
				span := c.Due.Sub(*c.LastReview) + 7*day
				now = c.LastReview.Add(time.Duration(rng.Int63n(int64(span))))
			}

			next, err := s.Schedule(c, r, now)
			if err != nil {
				t.Fatalf("n=%d i=%d: Schedule(%v) error = %v", n, i, r, err)
			}
			if next.Difficulty < MinDifficulty || next.Difficulty > MaxDifficulty {
				t.Fatalf("n=%d i=%d: difficulty %f out of [%v, %v]", n, i, next.Difficulty, MinDifficulty, MaxDifficulty)
			}
			if !next.Due.After(now) {
				t.Fatalf("n=%d i=%d: due %v not after %v", n, i, next.Due, now)
			}
			if next.Reps < c.Reps || next.Lapses < c.Lapses {
				t.Fatalf("n=%d i=%d: counters decreased", n, i)
			}
			if c.State == Review && r == Again {
				if next.State != Relearning {
					t.Fatalf("n=%d i=%d: Again on Review gave %v", n, i, next.State)
				}
				if c.Stability > MinStability && next.Stability >= c.Stability {
					t.Fatalf("n=%d i=%d: lapse stability %f -> %f", n, i, c.Stability, next.Stability)
				}
			}
			c = next
		}
	}
}

func TestSchedule_InvalidRating(t *testing.T) {
	s := newTestScheduler(t)
	for _, r := range []Rating{0, 5, -1} {
		_, err := s.Schedule(NewCard("c", t0), r, t0)
		var sigErr *InvalidSignalError
		if !errors.As(err, &sigErr) {
			t.Errorf("Schedule(%d) error = %v, want InvalidSignalError", r, err)
		}
	}
}

func TestSchedule_InvalidCardState(t *testing.T) {
	s := newTestScheduler(t)
	last := t0.Add(-24 * time.Hour)
	valid := Card{ID: "c", State: Review, Stability: 3, Difficulty: 5, Due: t0, LastReview: &last, Reps: 2}

	tests := []struct {
		name   string
		mutate func(*Card)
		now    time.Time
	}{
		{"zero stability", func(c *Card) { c.Stability = 0 }, t0},
		{"negative stability", func(c *Card) { c.Stability = -1 }, t0},
		{"difficulty too high", func(c *Card) { c.Difficulty = 11 }, t0},
		{"difficulty too low", func(c *Card) { c.Difficulty = 0.5 }, t0},
		{"missing last review", func(c *Card) { c.LastReview = nil }, t0},
		{"negative lapses", func(c *Card) { c.Lapses = -1 }, t0},
		{"unknown state", func(c *Card) { c.State = State(9) }, t0},
		{"review before last review", func(c *Card) {}, last.Add(-time.Minute)},
		{"due before last review", func(c *Card) { c.Due = last.Add(-time.Hour) }, t0},
		{"new card with history", func(c *Card) { c.State = New }, t0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid.clone()
			tt.mutate(&c)
			_, err := s.Schedule(c, Good, tt.now)
			var stateErr *InvalidCardStateError
			if !errors.As(err, &stateErr) {
				t.Fatalf("Schedule() error = %v, want InvalidCardStateError", err)
			}
			if stateErr.CardID != "c" {
				t.Errorf("CardID = %q, want %q", stateErr.CardID, "c")
			}
		})
	}
}

func TestNewScheduler_InvalidConfig(t *testing.T) {
	badWeights := DefaultParameters
	badWeights[17] = 0

	tests := []struct {
		name string
		cfg  Config
	}{
		{"retention above one", Config{DesiredRetention: 1.2}},
		{"retention negative", Config{DesiredRetention: -0.1}},
		{"negative maximum interval", Config{MaximumInterval: -3}},
		{"maximum interval beyond cap", Config{MaximumInterval: 200000}},
		{"zero learning step", Config{LearningSteps: []time.Duration{0}}},
		{"negative relearning step", Config{RelearningSteps: []time.Duration{-time.Minute}}},
		{"weight out of bounds", Config{Parameters: badWeights}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewScheduler(tt.cfg); err == nil {
				t.Error("NewScheduler() error = nil, want error")
			}
		})
	}

	if _, err := NewScheduler(Config{Parameters: badWeights}); !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("error = %v, want ErrInvalidParameters", err)
	}
}

func TestScheduler_ConfigDefaults(t *testing.T) {
	s := newTestScheduler(t)
	cfg := s.Config()
	if cfg.DesiredRetention != DefaultDesiredRetention {
		t.Errorf("DesiredRetention = %f, want %f", cfg.DesiredRetention, DefaultDesiredRetention)
	}
	if cfg.MaximumInterval != DefaultMaximumInterval {
		t.Errorf("MaximumInterval = %d, want %d", cfg.MaximumInterval, DefaultMaximumInterval)
	}
	if len(cfg.LearningSteps) != 2 || len(cfg.RelearningSteps) != 1 {
		t.Errorf("steps = %v / %v, want 2 learning and 1 relearning", cfg.LearningSteps, cfg.RelearningSteps)
	}
	if cfg.Parameters != DefaultParameters {
		t.Error("Parameters differ from DefaultParameters")
	}
}

func TestRetrievability(t *testing.T) {
	s := newTestScheduler(t)
	if got := s.Retrievability(NewCard("c", t0), t0); got != 0 {
		t.Errorf("Retrievability(new) = %f, want 0", got)
	}

	last := t0
	c := Card{ID: "c", State: Review, Stability: 10, Difficulty: 5, Due: t0.Add(10 * day), LastReview: &last}
	if got := s.Retrievability(c, t0); got != 1 {
		t.Errorf("Retrievability at review = %f, want 1", got)
	}
	got := s.Retrievability(c, t0.Add(10*day))
	if got < 0.8999 || got > 0.9001 {
		t.Errorf("Retrievability after S days = %f, want ~0.9", got)
	}
}

func TestPreview(t *testing.T) {
	s := newTestScheduler(t)
	c, now := graduatedCard(t, s)

	out, err := s.Preview(c, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(Ratings) {
		t.Fatalf("len(Preview) = %d, want %d", len(out), len(Ratings))
	}
	for _, r := range Ratings {
		want, _ := s.Schedule(c, r, now)
		if out[r].Stability != want.Stability || !out[r].Due.Equal(want.Due) {
			t.Errorf("Preview[%v] = %+v, want %+v", r, out[r], want)
		}
	}
	if out[Again].State != Relearning {
		t.Errorf("Preview[Again].State = %v, want Relearning", out[Again].State)
	}
}
