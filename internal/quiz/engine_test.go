package quiz

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/domain"
)

// Shared fakes for the engine tests. The registries mirror the in-memory
// implementations; the store records everything it is given.

type fakeProvider struct {
	mu        sync.Mutex
	questions []domain.Question
	err       error
	calls     int
}

func (p *fakeProvider) Fetch(_ context.Context, _ string, _ domain.Difficulty, count int) ([]domain.Question, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	if count > len(p.questions) {
		count = len(p.questions)
	}
	out := make([]domain.Question, count)
	copy(out, p.questions[:count])
	return out, nil
}

type fakeStore struct {
	mu       sync.Mutex
	rounds   []domain.RoundResult
	deltas   map[string]domain.StatsDelta
	names    map[string]string
	blocked  map[string]bool
	markers  map[string]string // "kind:key" -> round id
	byRound  map[string]string
	saveErr  error
	statsErr map[string]error
	findErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		deltas:   make(map[string]domain.StatsDelta),
		names:    make(map[string]string),
		blocked:  make(map[string]bool),
		markers:  make(map[string]string),
		byRound:  make(map[string]string),
		statsErr: make(map[string]error),
	}
}

func (s *fakeStore) SaveRoundResult(_ context.Context, result domain.RoundResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.rounds = append(s.rounds, result)
	if key, ok := s.byRound[result.ID]; ok {
		delete(s.markers, key)
		delete(s.byRound, result.ID)
	}
	return nil
}

func (s *fakeStore) UpdateParticipantStats(_ context.Context, userID, name string, delta domain.StatsDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.statsErr[userID]; err != nil {
		return err
	}
	cur := s.deltas[userID]
	cur.Points += delta.Points
	cur.QuizzesPlayed += delta.QuizzesPlayed
	cur.QuizzesWon += delta.QuizzesWon
	cur.ChallengesPlayed += delta.ChallengesPlayed
	cur.ChallengesWon += delta.ChallengesWon
	cur.CorrectAnswers += delta.CorrectAnswers
	cur.TotalAnswers += delta.TotalAnswers
	s.deltas[userID] = cur
	s.names[userID] = name
	return nil
}

func (s *fakeStore) MarkSessionActive(_ context.Context, groupID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers["group:"+groupID] = sessionID
	s.byRound[sessionID] = "group:" + groupID
	return nil
}

func (s *fakeStore) MarkChallengeOpen(_ context.Context, pair domain.PairKey, challengeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers["challenge:"+string(pair)] = challengeID
	s.byRound[challengeID] = "challenge:" + string(pair)
	return nil
}

func (s *fakeStore) FindActiveSession(_ context.Context, groupID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return false, s.findErr
	}
	_, ok := s.markers["group:"+groupID]
	return ok, nil
}

func (s *fakeStore) FindNonTerminalChallenge(_ context.Context, pair domain.PairKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return false, s.findErr
	}
	_, ok := s.markers["challenge:"+string(pair)]
	return ok, nil
}

func (s *fakeStore) IsBlocked(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocked[userID], nil
}

func (s *fakeStore) savedRounds() []domain.RoundResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.RoundResult, len(s.rounds))
	copy(out, s.rounds)
	return out
}

func (s *fakeStore) deltaFor(userID string) domain.StatsDelta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deltas[userID]
}

type notifierEvent struct {
	target   string
	kind     string // "question" or "result"
	text     string
	index    int
	total    int
	question domain.Question
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notifierEvent
}

func (n *fakeNotifier) DeliverQuestion(target string, q domain.Question, index, total int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notifierEvent{target: target, kind: "question", index: index, total: total, question: q})
}

func (n *fakeNotifier) DeliverResult(target, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notifierEvent{target: target, kind: "result", text: text})
}

func (n *fakeNotifier) hasQuestion(target string, index int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ev := range n.events {
		if ev.kind == "question" && ev.target == target && ev.index == index {
			return true
		}
	}
	return false
}

func (n *fakeNotifier) countResults(target, substring string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, ev := range n.events {
		if ev.kind == "result" && ev.target == target && strings.Contains(ev.text, substring) {
			count++
		}
	}
	return count
}

type fakeSessionRegistry struct {
	mu      sync.Mutex
	byID    map[string]*Session
	byGroup map[string]string
}

func newFakeSessionRegistry() *fakeSessionRegistry {
	return &fakeSessionRegistry{byID: make(map[string]*Session), byGroup: make(map[string]string)}
}

func (r *fakeSessionRegistry) Create(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byGroup[s.GroupID()]; ok {
		return domain.ErrSessionActive
	}
	r.byID[s.ID()] = s
	r.byGroup[s.GroupID()] = s.ID()
	return nil
}

func (r *fakeSessionRegistry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	return s, ok
}

func (r *fakeSessionRegistry) GetByGroup(groupID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byGroup[groupID]
	if !ok {
		return nil, false
	}
	s, ok := r.byID[id]
	return s, ok
}

func (r *fakeSessionRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	delete(r.byGroup, s.GroupID())
}

type fakeChallengeRegistry struct {
	mu     sync.Mutex
	byID   map[string]*Challenge
	byPair map[domain.PairKey]string
}

func newFakeChallengeRegistry() *fakeChallengeRegistry {
	return &fakeChallengeRegistry{byID: make(map[string]*Challenge), byPair: make(map[domain.PairKey]string)}
}

func (r *fakeChallengeRegistry) Create(c *Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byPair[c.PairKey()]; ok {
		return domain.ErrChallengeOpen
	}
	r.byID[c.ID()] = c
	r.byPair[c.PairKey()] = c.ID()
	return nil
}

func (r *fakeChallengeRegistry) Get(id string) (*Challenge, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	return c, ok
}

func (r *fakeChallengeRegistry) GetByPair(pair domain.PairKey) (*Challenge, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byPair[pair]
	if !ok {
		return nil, false
	}
	c, ok := r.byID[id]
	return c, ok
}

func (r *fakeChallengeRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	delete(r.byPair, c.PairKey())
}

// testQuestions builds n easy questions where option 0 is always correct.
func testQuestions(n int) []domain.Question {
	out := make([]domain.Question, n)
	for i := range out {
		out[i] = domain.Question{
			Prompt:        fmt.Sprintf("Question %d?", i+1),
			Options:       []string{"Right", "Wrong", "Also wrong", "Nope"},
			CorrectAnswer: "Right",
		}
	}
	return out
}

// waitUntil polls cond until it holds or the deadline passes.
func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func fixedClock() func() time.Time {
	at := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func discardLogf(string, ...any) {}
