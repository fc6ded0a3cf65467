package memory

import (
	"context"
	"sync"

	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/domain"
)

// Profile is one user's accumulated stats as kept by the in-memory store.
type Profile struct {
	UserID           string
	Name             string
	Points           int
	QuizzesPlayed    int
	QuizzesWon       int
	ChallengesPlayed int
	ChallengesWon    int
	CorrectAnswers   int
	TotalAnswers     int
	Accuracy         int
	Rank             string
	Blocked          bool
}

// Store is an in-memory implementation of quiz.Store, used when no database is
// configured and as the default fake in tests.
type Store struct {
	mu       sync.RWMutex
	rounds   map[string]domain.RoundResult
	profiles map[string]*Profile

	// Live-round markers, mirrored by the durable stores. Keyed both ways
	// so SaveRoundResult can clear by round id.
	activeGroups map[string]string
	activePairs  map[domain.PairKey]string
	markerKeys   map[string]string
}

func NewStore() *Store {
	return &Store{
		rounds:       make(map[string]domain.RoundResult),
		profiles:     make(map[string]*Profile),
		activeGroups: make(map[string]string),
		activePairs:  make(map[domain.PairKey]string),
		markerKeys:   make(map[string]string),
	}
}

func (s *Store) SaveRoundResult(_ context.Context, result domain.RoundResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[result.ID] = result
	if key, ok := s.markerKeys[result.ID]; ok {
		delete(s.activeGroups, key)
		delete(s.activePairs, domain.PairKey(key))
		delete(s.markerKeys, result.ID)
	}
	return nil
}

func (s *Store) UpdateParticipantStats(_ context.Context, userID, name string, delta domain.StatsDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		p = &Profile{UserID: userID}
		s.profiles[userID] = p
	}
	if name != "" {
		p.Name = name
	}
	p.Points += delta.Points
	p.QuizzesPlayed += delta.QuizzesPlayed
	p.QuizzesWon += delta.QuizzesWon
	p.ChallengesPlayed += delta.ChallengesPlayed
	p.ChallengesWon += delta.ChallengesWon
	p.CorrectAnswers += delta.CorrectAnswers
	p.TotalAnswers += delta.TotalAnswers
	if p.TotalAnswers > 0 {
		p.Accuracy = (p.CorrectAnswers*100 + p.TotalAnswers/2) / p.TotalAnswers
	}
	p.Rank = domain.RankFor(p.Points)
	return nil
}

func (s *Store) MarkSessionActive(_ context.Context, groupID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeGroups[groupID] = sessionID
	s.markerKeys[sessionID] = groupID
	return nil
}

func (s *Store) MarkChallengeOpen(_ context.Context, pair domain.PairKey, challengeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activePairs[pair] = challengeID
	s.markerKeys[challengeID] = string(pair)
	return nil
}

func (s *Store) FindActiveSession(_ context.Context, groupID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.activeGroups[groupID]
	return ok, nil
}

func (s *Store) FindNonTerminalChallenge(_ context.Context, pair domain.PairKey) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.activePairs[pair]
	return ok, nil
}

func (s *Store) IsBlocked(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	return ok && p.Blocked, nil
}

// SetBlocked marks a user as unchallengeable. Test and admin helper.
func (s *Store) SetBlocked(userID string, blocked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		p = &Profile{UserID: userID}
		s.profiles[userID] = p
	}
	p.Blocked = blocked
}

// ProfileOf returns a copy of the stored profile.
func (s *Store) ProfileOf(userID string) (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return Profile{}, false
	}
	return *p, true
}

// RoundOf returns a persisted round record.
func (s *Store) RoundOf(id string) (domain.RoundResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rounds[id]
	return r, ok
}
