package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/domain"
	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/quiz"
)

type noopNotifier struct{}

func (noopNotifier) DeliverQuestion(string, domain.Question, int, int) {}
func (noopNotifier) DeliverResult(string, string)                      {}

func newSessionEngine(registry *SessionRegistry) *quiz.SessionEngine {
	return quiz.NewSessionEngine(quiz.SessionEngineConfig{
		Registry: registry,
		Provider: NewSampleProvider(),
		Store:    NewStore(),
		Notifier: noopNotifier{},
	})
}

func TestSessionRegistryOnePerGroup(t *testing.T) {
	ctx := context.Background()
	registry := NewSessionRegistry()
	engine := newSessionEngine(registry)

	s, err := engine.Start(ctx, "group-1", "u1", "science", domain.DifficultyEasy, 3)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if got, ok := registry.GetByGroup("group-1"); !ok || got.ID() != s.ID() {
		t.Fatalf("expected session indexed by group")
	}

	if _, err := engine.Start(ctx, "group-1", "u2", "history", domain.DifficultyEasy, 3); !errors.Is(err, domain.ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}

	registry.Remove(s.ID())
	if _, ok := registry.Get(s.ID()); ok {
		t.Fatalf("expected session removed")
	}
	if _, ok := registry.GetByGroup("group-1"); ok {
		t.Fatalf("expected group index cleared")
	}
}

func TestChallengeRegistryOnePerPair(t *testing.T) {
	ctx := context.Background()
	registry := NewChallengeRegistry()
	engine := quiz.NewChallengeEngine(quiz.ChallengeEngineConfig{
		Registry: registry,
		Provider: NewSampleProvider(),
		Store:    NewStore(),
		Notifier: noopNotifier{},
	})

	c, err := engine.Propose(ctx, "u1", "Alice", "u2", "Bob", "science", domain.DifficultyEasy)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if got, ok := registry.GetByPair(domain.NewPairKey("u2", "u1")); !ok || got.ID() != c.ID() {
		t.Fatalf("expected challenge indexed by unordered pair")
	}

	if _, err := engine.Propose(ctx, "u2", "Bob", "u1", "Alice", "history", domain.DifficultyHard); !errors.Is(err, domain.ErrChallengeOpen) {
		t.Fatalf("expected ErrChallengeOpen, got %v", err)
	}

	registry.Remove(c.ID())
	if _, ok := registry.GetByPair(c.PairKey()); ok {
		t.Fatalf("expected pair index cleared")
	}
}
