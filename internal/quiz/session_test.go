package quiz

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/domain"
)

func testTiming() Timing {
	return Timing{
		QuestionTimeout: time.Second,
		SettleDelay:     20 * time.Millisecond,
		ChallengeExpiry: time.Second,
	}
}

func newTestSessionEngine(store *fakeStore, notifier *fakeNotifier, questions []domain.Question, timing Timing, admins ...string) *SessionEngine {
	return NewSessionEngine(SessionEngineConfig{
		Registry: newFakeSessionRegistry(),
		Provider: &fakeProvider{questions: questions},
		Store:    store,
		Notifier: notifier,
		Timing:   timing,
		Admins:   admins,
		Clock:    fixedClock(),
		Logf:     discardLogf,
	})
}

func TestSessionLifecycleRanksAndSettles(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	notifier := &fakeNotifier{}
	engine := newTestSessionEngine(store, notifier, testQuestions(2), testTiming())

	s, err := engine.Start(ctx, "group-1", "u1", "science", domain.DifficultyEasy, 2)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := engine.Advance(ctx, s.ID()); err != nil {
		t.Fatalf("advance: %v", err)
	}
	waitUntil(t, "first question", func() bool { return notifier.hasQuestion("group-1", 1) })

	out, err := engine.SubmitAnswer(ctx, s.ID(), "u1", "Alice", 0)
	if err != nil {
		t.Fatalf("submit u1: %v", err)
	}
	if !out.Correct || out.Points != 40 {
		t.Fatalf("expected correct answer worth 40 points, got correct=%v points=%d", out.Correct, out.Points)
	}
	if _, err := engine.SubmitAnswer(ctx, s.ID(), "u2", "Bob", 1); err != nil {
		t.Fatalf("submit u2: %v", err)
	}

	waitUntil(t, "second question", func() bool { return notifier.hasQuestion("group-1", 2) })
	out, err = engine.SubmitAnswer(ctx, s.ID(), "u1", "Alice", 0)
	if err != nil {
		t.Fatalf("submit u1 q2: %v", err)
	}
	if out.TotalScore != 80 {
		t.Fatalf("expected total 80, got %d", out.TotalScore)
	}

	waitUntil(t, "settlement", func() bool { return len(store.savedRounds()) == 1 })
	round := store.savedRounds()[0]
	if round.Outcome != "completed" || round.Kind != domain.RoundGroup {
		t.Fatalf("unexpected round record: %+v", round)
	}
	if round.WinnerID != "u1" {
		t.Fatalf("expected u1 to win, got %q", round.WinnerID)
	}
	if len(round.Ranking) != 2 || round.Ranking[0].UserID != "u1" || round.Ranking[1].UserID != "u2" {
		t.Fatalf("unexpected ranking: %+v", round.Ranking)
	}

	u1 := store.deltaFor("u1")
	if u1.Points != 80 || u1.QuizzesPlayed != 1 || u1.QuizzesWon != 1 || u1.CorrectAnswers != 2 || u1.TotalAnswers != 2 {
		t.Fatalf("unexpected u1 delta: %+v", u1)
	}
	u2 := store.deltaFor("u2")
	if u2.Points != 0 || u2.QuizzesWon != 0 || u2.TotalAnswers != 1 {
		t.Fatalf("unexpected u2 delta: %+v", u2)
	}

	if _, ok := engine.SessionByGroup("group-1"); ok {
		t.Fatalf("expected session removed after settlement")
	}
}

func TestSessionDuplicateAnswerNotRescored(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	notifier := &fakeNotifier{}
	engine := newTestSessionEngine(store, notifier, testQuestions(2), testTiming())

	s, _ := engine.Start(ctx, "group-1", "u1", "science", domain.DifficultyEasy, 2)
	_ = engine.Advance(ctx, s.ID())
	waitUntil(t, "first question", func() bool { return notifier.hasQuestion("group-1", 1) })

	first, err := engine.SubmitAnswer(ctx, s.ID(), "u1", "Alice", 0)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := engine.SubmitAnswer(ctx, s.ID(), "u1", "Alice", 1)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if !second.Duplicate {
		t.Fatalf("expected duplicate outcome")
	}
	if second.TotalScore != first.TotalScore || second.Correct != first.Correct {
		t.Fatalf("duplicate changed the outcome: first=%+v second=%+v", first, second)
	}
}

func TestSessionStartConflict(t *testing.T) {
	ctx := context.Background()
	engine := newTestSessionEngine(newFakeStore(), &fakeNotifier{}, testQuestions(2), testTiming())

	if _, err := engine.Start(ctx, "group-1", "u1", "science", domain.DifficultyEasy, 2); err != nil {
		t.Fatalf("first start: %v", err)
	}
	_, err := engine.Start(ctx, "group-1", "u2", "history", domain.DifficultyEasy, 2)
	if !errors.Is(err, domain.ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict classification, got %v", err)
	}
}

func TestSessionConcurrentStartsOneWinner(t *testing.T) {
	ctx := context.Background()
	engine := newTestSessionEngine(newFakeStore(), &fakeNotifier{}, testQuestions(2), testTiming())

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Start(ctx, "group-1", "u1", "science", domain.DifficultyEasy, 2)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrSessionActive):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one winner, got %d", successes)
	}
}

func TestSessionStoreConflictBlocksStart(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	// Another instance holds the group.
	_ = store.MarkSessionActive(ctx, "group-1", "elsewhere")
	engine := newTestSessionEngine(store, &fakeNotifier{}, testQuestions(2), testTiming())

	if _, err := engine.Start(ctx, "group-1", "u1", "science", domain.DifficultyEasy, 2); !errors.Is(err, domain.ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}
}

func TestSessionStoreFailureDoesNotBlockStart(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.findErr = errors.New("store down")
	engine := newTestSessionEngine(store, &fakeNotifier{}, testQuestions(2), testTiming())

	if _, err := engine.Start(ctx, "group-1", "u1", "science", domain.DifficultyEasy, 2); err != nil {
		t.Fatalf("expected start despite preflight failure, got %v", err)
	}
}

func TestSessionStartQuestionShortfall(t *testing.T) {
	ctx := context.Background()
	engine := newTestSessionEngine(newFakeStore(), &fakeNotifier{}, testQuestions(3), testTiming())

	_, err := engine.Start(ctx, "group-1", "u1", "science", domain.DifficultyEasy, 10)
	if !errors.Is(err, domain.ErrQuestionShortfall) {
		t.Fatalf("expected ErrQuestionShortfall, got %v", err)
	}
	if !errors.Is(err, domain.ErrProvider) {
		t.Fatalf("expected provider classification, got %v", err)
	}
}

func TestSessionStartRejectsUnknownDifficulty(t *testing.T) {
	ctx := context.Background()
	engine := newTestSessionEngine(newFakeStore(), &fakeNotifier{}, testQuestions(2), testTiming())

	if _, err := engine.Start(ctx, "group-1", "u1", "science", "impossible", 2); err == nil {
		t.Fatalf("expected error for unknown difficulty")
	}
}

func TestSessionStopPermission(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	notifier := &fakeNotifier{}
	engine := newTestSessionEngine(store, notifier, testQuestions(2), testTiming(), "admin-1")

	s, _ := engine.Start(ctx, "group-1", "u1", "science", domain.DifficultyEasy, 2)
	_ = engine.Advance(ctx, s.ID())

	err := engine.Stop(ctx, "group-1", "u2")
	if !errors.Is(err, domain.ErrNotStarter) || !errors.Is(err, domain.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}

	if err := engine.Stop(ctx, "group-1", "admin-1"); err != nil {
		t.Fatalf("admin stop: %v", err)
	}
	waitUntil(t, "stopped round persisted", func() bool { return len(store.savedRounds()) == 1 })
	if store.savedRounds()[0].Outcome != "stopped" {
		t.Fatalf("expected stopped outcome, got %s", store.savedRounds()[0].Outcome)
	}
}

func TestSessionQuestionTimeoutRevealsAndAdvances(t *testing.T) {
	ctx := context.Background()
	timing := testTiming()
	timing.QuestionTimeout = 30 * time.Millisecond
	notifier := &fakeNotifier{}
	engine := newTestSessionEngine(newFakeStore(), notifier, testQuestions(2), timing)

	s, _ := engine.Start(ctx, "group-1", "u1", "science", domain.DifficultyEasy, 2)
	_ = engine.Advance(ctx, s.ID())

	waitUntil(t, "timeout reveal", func() bool { return notifier.countResults("group-1", "Time's up") >= 1 })
	waitUntil(t, "second question", func() bool { return notifier.hasQuestion("group-1", 2) })
}

func TestSessionAnswerDisarmsQuestionTimer(t *testing.T) {
	ctx := context.Background()
	timing := testTiming()
	timing.QuestionTimeout = 30 * time.Millisecond
	timing.SettleDelay = 200 * time.Millisecond
	notifier := &fakeNotifier{}
	engine := newTestSessionEngine(newFakeStore(), notifier, testQuestions(2), timing)

	s, _ := engine.Start(ctx, "group-1", "u1", "science", domain.DifficultyEasy, 2)
	_ = engine.Advance(ctx, s.ID())
	waitUntil(t, "first question", func() bool { return notifier.hasQuestion("group-1", 1) })

	if _, err := engine.SubmitAnswer(ctx, s.ID(), "u1", "Alice", 0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if n := notifier.countResults("group-1", "Time's up"); n != 0 {
		t.Fatalf("expected no timeout reveal after an answer, got %d", n)
	}
}

func TestSessionNobodyAnswers(t *testing.T) {
	ctx := context.Background()
	timing := testTiming()
	timing.QuestionTimeout = 20 * time.Millisecond
	store := newFakeStore()
	notifier := &fakeNotifier{}
	engine := newTestSessionEngine(store, notifier, testQuestions(2), timing)

	s, _ := engine.Start(ctx, "group-1", "u1", "science", domain.DifficultyEasy, 2)
	_ = engine.Advance(ctx, s.ID())

	waitUntil(t, "settlement", func() bool { return len(store.savedRounds()) == 1 })
	round := store.savedRounds()[0]
	if round.WinnerID != "" || len(round.Ranking) != 0 {
		t.Fatalf("expected empty result for a silent round, got %+v", round)
	}
	if notifier.countResults("group-1", "Nobody answered") != 1 {
		t.Fatalf("expected the empty-round result text")
	}
}

func TestSessionOutOfBoundsOptionScoresZero(t *testing.T) {
	ctx := context.Background()
	notifier := &fakeNotifier{}
	engine := newTestSessionEngine(newFakeStore(), notifier, testQuestions(2), testTiming())

	s, _ := engine.Start(ctx, "group-1", "u1", "science", domain.DifficultyEasy, 2)
	_ = engine.Advance(ctx, s.ID())
	waitUntil(t, "first question", func() bool { return notifier.hasQuestion("group-1", 1) })

	out, err := engine.SubmitAnswer(ctx, s.ID(), "u1", "Alice", 99)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Correct || out.Points != 0 {
		t.Fatalf("out-of-bounds option must score zero, got %+v", out)
	}
}

func TestSessionSubmitWithoutActiveQuestion(t *testing.T) {
	ctx := context.Background()
	engine := newTestSessionEngine(newFakeStore(), &fakeNotifier{}, testQuestions(2), testTiming())

	s, _ := engine.Start(ctx, "group-1", "u1", "science", domain.DifficultyEasy, 2)
	// Still in Ready, no question dispatched.
	if _, err := engine.SubmitAnswer(ctx, s.ID(), "u1", "Alice", 0); !errors.Is(err, domain.ErrNoActiveQuestion) {
		t.Fatalf("expected ErrNoActiveQuestion, got %v", err)
	}
}
