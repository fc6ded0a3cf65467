package quiz

import (
	"context"
	"time"

	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/domain"
)

// QuestionProvider fetches a graded question set for one round. It may return
// fewer questions than requested; the engines decide whether that is fatal.
type QuestionProvider interface {
	Fetch(ctx context.Context, category string, difficulty domain.Difficulty, count int) ([]domain.Question, error)
}

// Store persists terminal round records and profile stats, and answers
// pre-flight conflict checks. It never holds in-round mutable state.
type Store interface {
	SaveRoundResult(ctx context.Context, result domain.RoundResult) error
	UpdateParticipantStats(ctx context.Context, userID, name string, delta domain.StatsDelta) error
	// MarkSessionActive and MarkChallengeOpen record a live round so the
	// Find* pre-flight checks survive a restart. SaveRoundResult clears
	// the marker for the settled round.
	MarkSessionActive(ctx context.Context, groupID, sessionID string) error
	MarkChallengeOpen(ctx context.Context, pair domain.PairKey, challengeID string) error
	FindActiveSession(ctx context.Context, groupID string) (bool, error)
	FindNonTerminalChallenge(ctx context.Context, pair domain.PairKey) (bool, error)
	IsBlocked(ctx context.Context, userID string) (bool, error)
}

// Notifier delivers questions and result texts to a chat target (a group id or
// a user id). Delivery is best-effort; the engines never depend on it
// succeeding.
type Notifier interface {
	DeliverQuestion(target string, q domain.Question, index, total int)
	DeliverResult(target, text string)
}

// SessionRegistry indexes live group sessions. Create enforces at most one
// active session per group.
type SessionRegistry interface {
	Create(s *Session) error
	Get(sessionID string) (*Session, bool)
	GetByGroup(groupID string) (*Session, bool)
	Remove(sessionID string)
}

// ChallengeRegistry indexes live challenges. Create enforces at most one
// non-terminal challenge per unordered player pair.
type ChallengeRegistry interface {
	Create(c *Challenge) error
	Get(challengeID string) (*Challenge, bool)
	GetByPair(pair domain.PairKey) (*Challenge, bool)
	Remove(challengeID string)
}

// Round timing defaults, matching the bot's original behavior.
const (
	DefaultQuestionTimeout = 30 * time.Second
	DefaultSettleDelay     = 2 * time.Second
	DefaultChallengeExpiry = 2 * time.Minute

	// ChallengeQuestionCount is the (shorter) challenge round size;
	// MinChallengeQuestions is the usable-question floor below which a
	// challenge cannot start.
	ChallengeQuestionCount  = 5
	MinChallengeQuestions   = 3
	DefaultSessionQuestions = 10
)

// Timing bundles the engine timer durations. Zero values fall back to the
// defaults above.
type Timing struct {
	QuestionTimeout time.Duration
	SettleDelay     time.Duration
	ChallengeExpiry time.Duration
}

func (t Timing) withDefaults() Timing {
	if t.QuestionTimeout <= 0 {
		t.QuestionTimeout = DefaultQuestionTimeout
	}
	if t.SettleDelay <= 0 {
		t.SettleDelay = DefaultSettleDelay
	}
	if t.ChallengeExpiry <= 0 {
		t.ChallengeExpiry = DefaultChallengeExpiry
	}
	return t
}

// AnswerOutcome summarizes one graded submission for the submitting user.
type AnswerOutcome struct {
	Correct       bool
	CorrectAnswer string
	Points        int
	TotalScore    int
	// Duplicate marks a repeated submission for an already-answered
	// question; nothing was scored.
	Duplicate bool
	// Ignored marks an off-turn challenge submission that was dropped.
	Ignored bool
}
