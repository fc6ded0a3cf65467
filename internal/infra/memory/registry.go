package memory

import (
	"sync"

	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/domain"
	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/quiz"
)

// SessionRegistry is the in-memory implementation of quiz.SessionRegistry.
// The group index enforces at most one active session per group.
type SessionRegistry struct {
	mu      sync.RWMutex
	byID    map[string]*quiz.Session
	byGroup map[string]string
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		byID:    make(map[string]*quiz.Session),
		byGroup: make(map[string]string),
	}
}

func (r *SessionRegistry) Create(s *quiz.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byGroup[s.GroupID()]; ok {
		return domain.ErrSessionActive
	}
	r.byID[s.ID()] = s
	r.byGroup[s.GroupID()] = s.ID()
	return nil
}

func (r *SessionRegistry) Get(sessionID string) (*quiz.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[sessionID]
	return s, ok
}

func (r *SessionRegistry) GetByGroup(groupID string) (*quiz.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byGroup[groupID]
	if !ok {
		return nil, false
	}
	s, ok := r.byID[id]
	return s, ok
}

func (r *SessionRegistry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[sessionID]
	if !ok {
		return
	}
	delete(r.byID, sessionID)
	delete(r.byGroup, s.GroupID())
}

// ChallengeRegistry is the in-memory implementation of quiz.ChallengeRegistry.
// The pair index enforces at most one non-terminal challenge per unordered
// player pair.
type ChallengeRegistry struct {
	mu     sync.RWMutex
	byID   map[string]*quiz.Challenge
	byPair map[domain.PairKey]string
}

func NewChallengeRegistry() *ChallengeRegistry {
	return &ChallengeRegistry{
		byID:   make(map[string]*quiz.Challenge),
		byPair: make(map[domain.PairKey]string),
	}
}

func (r *ChallengeRegistry) Create(c *quiz.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byPair[c.PairKey()]; ok {
		return domain.ErrChallengeOpen
	}
	r.byID[c.ID()] = c
	r.byPair[c.PairKey()] = c.ID()
	return nil
}

func (r *ChallengeRegistry) Get(challengeID string) (*quiz.Challenge, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[challengeID]
	return c, ok
}

func (r *ChallengeRegistry) GetByPair(pair domain.PairKey) (*quiz.Challenge, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPair[pair]
	if !ok {
		return nil, false
	}
	c, ok := r.byID[id]
	return c, ok
}

func (r *ChallengeRegistry) Remove(challengeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[challengeID]
	if !ok {
		return
	}
	delete(r.byID, challengeID)
	delete(r.byPair, c.PairKey())
}
