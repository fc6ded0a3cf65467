package domain

import (
	"sort"
	"time"
)

// Difficulty selects the base point value for a round's questions.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// BasePoints returns the flat score for a correct answer before the time bonus.
func (d Difficulty) BasePoints() int {
	switch d {
	case DifficultyMedium:
		return 15
	case DifficultyHard:
		return 20
	default:
		return 10
	}
}

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Question is a graded multiple-choice question. Exactly one entry of Options
// equals CorrectAnswer. Immutable once a round starts.
type Question struct {
	Prompt        string        `json:"prompt"`
	Options       []string      `json:"options"`
	CorrectAnswer string        `json:"correctAnswer"`
	Points        int           `json:"points"`
	TimeLimit     time.Duration `json:"timeLimit"`
}

// CorrectIndex returns the position of CorrectAnswer in Options, or -1.
func (q Question) CorrectIndex() int {
	for i, opt := range q.Options {
		if opt == q.CorrectAnswer {
			return i
		}
	}
	return -1
}

// Answer records one graded submission (or a timed-out non-answer).
type Answer struct {
	QuestionIndex int       `json:"questionIndex"`
	ChosenOption  string    `json:"chosenOption"`
	Correct       bool      `json:"correct"`
	PointsEarned  int       `json:"pointsEarned"`
	LatencyMs     int64     `json:"latencyMs"`
	AnsweredAt    time.Time `json:"answeredAt"`
}

// Participant accumulates one user's answers within a single round.
type Participant struct {
	UserID  string   `json:"userId"`
	Name    string   `json:"name"`
	Score   int      `json:"score"`
	Answers []Answer `json:"answers"`
}

// CorrectCount returns how many of the participant's answers were correct.
func (p *Participant) CorrectCount() int {
	n := 0
	for _, a := range p.Answers {
		if a.Correct {
			n++
		}
	}
	return n
}

// SessionStage is the group session lifecycle state.
type SessionStage string

const (
	StageReady          SessionStage = "ready"
	StageQuestionActive SessionStage = "question_active"
	StageEnded          SessionStage = "ended"
)

// ChallengeStatus is the 1v1 challenge lifecycle state.
type ChallengeStatus string

const (
	ChallengePending    ChallengeStatus = "pending"
	ChallengeAccepted   ChallengeStatus = "accepted"
	ChallengeInProgress ChallengeStatus = "in_progress"
	ChallengeCompleted  ChallengeStatus = "completed"
	ChallengeDeclined   ChallengeStatus = "declined"
	ChallengeExpired    ChallengeStatus = "expired"
)

// Terminal reports whether no further transitions are possible.
func (s ChallengeStatus) Terminal() bool {
	switch s {
	case ChallengeCompleted, ChallengeDeclined, ChallengeExpired:
		return true
	}
	return false
}

// Turn identifies which challenge player may answer next.
type Turn int

const (
	TurnChallenger Turn = iota
	TurnOpponent
)

// PairKey identifies an unordered player pair for challenge conflict checks.
type PairKey string

// NewPairKey builds the canonical key for two user ids regardless of order.
func NewPairKey(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey(a + "|" + b)
}

// RoundKind distinguishes persisted group rounds from 1v1 challenges.
type RoundKind string

const (
	RoundGroup     RoundKind = "group"
	RoundChallenge RoundKind = "challenge"
)

// RankingEntry is one line of a settled leaderboard.
type RankingEntry struct {
	Position int    `json:"position"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// RoundResult is the terminal record persisted when a round settles.
type RoundResult struct {
	ID         string         `json:"id"`
	Kind       RoundKind      `json:"kind"`
	GroupID    string         `json:"groupId,omitempty"`
	Category   string         `json:"category"`
	Difficulty Difficulty     `json:"difficulty"`
	Questions  int            `json:"questions"`
	Outcome    string         `json:"outcome"`
	Ranking    []RankingEntry `json:"ranking"`
	WinnerID   string         `json:"winnerId,omitempty"`
	WinnerName string         `json:"winnerName,omitempty"`
	StartedAt  time.Time      `json:"startedAt"`
	EndedAt    time.Time      `json:"endedAt"`
}

// StatsDelta is the per-participant profile update produced by settlement.
// The Store applies it as one logical update.
type StatsDelta struct {
	Points           int
	QuizzesPlayed    int
	QuizzesWon       int
	ChallengesPlayed int
	ChallengesWon    int
	CorrectAnswers   int
	TotalAnswers     int
}

// RankTier is a named points band. MaxPoints < 0 means unbounded.
type RankTier struct {
	Name      string
	MinPoints int
	MaxPoints int
}

// RankTiers is the fixed ordered ladder; the first matching band wins.
var RankTiers = []RankTier{
	{Name: "Beginner", MinPoints: 0, MaxPoints: 100},
	{Name: "Learner", MinPoints: 101, MaxPoints: 500},
	{Name: "Scholar", MinPoints: 501, MaxPoints: 1000},
	{Name: "Expert", MinPoints: 1001, MaxPoints: 2000},
	{Name: "Master", MinPoints: 2001, MaxPoints: 5000},
	{Name: "Legend", MinPoints: 5001, MaxPoints: -1},
}

// RankFor maps cumulative profile points onto a tier name.
func RankFor(points int) string {
	for _, tier := range RankTiers {
		if points >= tier.MinPoints && (tier.MaxPoints < 0 || points <= tier.MaxPoints) {
			return tier.Name
		}
	}
	return RankTiers[0].Name
}

// Rank orders participants by score descending. Ties keep the given first-seen
// order, so the earlier joiner wins the tie.
func Rank(participants []*Participant) []RankingEntry {
	ranked := make([]*Participant, len(participants))
	copy(ranked, participants)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	entries := make([]RankingEntry, 0, len(ranked))
	for i, p := range ranked {
		entries = append(entries, RankingEntry{
			Position: i + 1,
			UserID:   p.UserID,
			Name:     p.Name,
			Score:    p.Score,
		})
	}
	return entries
}
