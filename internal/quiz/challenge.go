package quiz

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/domain"
)

// Challenge is the in-memory aggregate for one 1v1 encounter. Players answer
// the shared question list in strict alternation: each question goes to exactly
// one side, starting with the challenger.
type Challenge struct {
	mu sync.Mutex

	id         string
	category   string
	difficulty domain.Difficulty
	questions  []domain.Question

	challenger *domain.Participant
	opponent   *domain.Participant

	status  domain.ChallengeStatus
	current int
	turn    domain.Turn
	// pendingDispatch is set between an answered question and the delayed
	// dispatch of the next one; no submission is valid in that window.
	pendingDispatch   bool
	questionStartedAt time.Time
	createdAt         time.Time
	startedAt         time.Time
	expiresAt         time.Time

	epoch       int
	expiryTimer *roundTimer
	turnTimer   *roundTimer
	settleTimer *roundTimer
}

func (c *Challenge) ID() string { return c.id }

// PairKey returns the unordered key for the two players.
func (c *Challenge) PairKey() domain.PairKey {
	return domain.NewPairKey(c.challenger.UserID, c.opponent.UserID)
}

func (c *Challenge) onTurn() *domain.Participant {
	if c.turn == domain.TurnChallenger {
		return c.challenger
	}
	return c.opponent
}

func (c *Challenge) offTurn() *domain.Participant {
	if c.turn == domain.TurnChallenger {
		return c.opponent
	}
	return c.challenger
}

// ChallengeSnapshot is a read-only snapshot for the transport layer.
type ChallengeSnapshot struct {
	ChallengeID     string                 `json:"challengeId"`
	ChallengerID    string                 `json:"challengerId"`
	ChallengerName  string                 `json:"challengerName"`
	OpponentID      string                 `json:"opponentId"`
	OpponentName    string                 `json:"opponentName"`
	Category        string                 `json:"category"`
	Difficulty      domain.Difficulty      `json:"difficulty"`
	Status          domain.ChallengeStatus `json:"status"`
	CurrentQuestion int                    `json:"currentQuestion"`
	TotalQuestions  int                    `json:"totalQuestions"`
	ChallengerScore int                    `json:"challengerScore"`
	OpponentScore   int                    `json:"opponentScore"`
	ExpiresAt       time.Time              `json:"expiresAt"`
}

// Snapshot returns a consistent view of the challenge.
func (c *Challenge) Snapshot() ChallengeSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ChallengeSnapshot{
		ChallengeID:     c.id,
		ChallengerID:    c.challenger.UserID,
		ChallengerName:  c.challenger.Name,
		OpponentID:      c.opponent.UserID,
		OpponentName:    c.opponent.Name,
		Category:        c.category,
		Difficulty:      c.difficulty,
		Status:          c.status,
		CurrentQuestion: c.current + 1,
		TotalQuestions:  len(c.questions),
		ChallengerScore: c.challenger.Score,
		OpponentScore:   c.opponent.Score,
		ExpiresAt:       c.expiresAt,
	}
}

// ChallengeEngineConfig wires the challenge engine's collaborators.
type ChallengeEngineConfig struct {
	Registry ChallengeRegistry
	Provider QuestionProvider
	Store    Store
	Notifier Notifier
	Timing   Timing
	Clock    func() time.Time
	Logf     func(format string, args ...any)
}

// ChallengeEngine drives 1v1 challenges through the acceptance handshake, the
// alternating-turn round and settlement.
type ChallengeEngine struct {
	challenges ChallengeRegistry
	provider   QuestionProvider
	store      Store
	notifier   Notifier
	timing     Timing
	now        func() time.Time
	logf       func(format string, args ...any)
}

func NewChallengeEngine(c ChallengeEngineConfig) *ChallengeEngine {
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.Logf == nil {
		c.Logf = log.Printf
	}
	return &ChallengeEngine{
		challenges: c.Registry,
		provider:   c.Provider,
		store:      c.Store,
		notifier:   c.Notifier,
		timing:     c.Timing.withDefaults(),
		now:        c.Clock,
		logf:       c.Logf,
	}
}

// Propose creates a Pending challenge between two distinct players and arms
// the expiry timer. The opponent must respond before the window elapses.
func (e *ChallengeEngine) Propose(ctx context.Context, challengerID, challengerName, opponentID, opponentName, category string, difficulty domain.Difficulty) (*Challenge, error) {
	if challengerID == opponentID {
		return nil, domain.ErrSelfChallenge
	}
	if blocked, err := e.store.IsBlocked(ctx, opponentID); err != nil {
		e.logf("blocked check failed for %s: %v", opponentID, err)
	} else if blocked {
		return nil, domain.ErrOpponentBlocked
	}

	pair := domain.NewPairKey(challengerID, opponentID)
	if _, ok := e.challenges.GetByPair(pair); ok {
		return nil, domain.ErrChallengeOpen
	}
	if open, err := e.store.FindNonTerminalChallenge(ctx, pair); err != nil {
		e.logf("challenge preflight failed for %s: %v", pair, err)
	} else if open {
		return nil, domain.ErrChallengeOpen
	}

	questions, err := e.provider.Fetch(ctx, category, difficulty, ChallengeQuestionCount)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w: %v", domain.ErrQuestionShortfall, err)
	}
	if len(questions) < MinChallengeQuestions {
		return nil, fmt.Errorf("got %d of %d questions: %w", len(questions), MinChallengeQuestions, domain.ErrQuestionShortfall)
	}
	for i := range questions {
		if questions[i].Points == 0 {
			questions[i].Points = difficulty.BasePoints()
		}
		if questions[i].TimeLimit <= 0 {
			questions[i].TimeLimit = e.timing.QuestionTimeout
		}
	}

	now := e.now()
	c := &Challenge{
		id:         newID("challenge"),
		category:   category,
		difficulty: difficulty,
		questions:  questions,
		challenger: &domain.Participant{UserID: challengerID, Name: challengerName},
		opponent:   &domain.Participant{UserID: opponentID, Name: opponentName},
		status:     domain.ChallengePending,
		current:    -1,
		turn:       domain.TurnChallenger,
		createdAt:  now,
		expiresAt:  now.Add(e.timing.ChallengeExpiry),
	}
	if err := e.challenges.Create(c); err != nil {
		return nil, err
	}
	if err := e.store.MarkChallengeOpen(ctx, pair, c.id); err != nil {
		e.logf("mark challenge %s open failed: %v", c.id, err)
	}
	c.mu.Lock()
	c.expiryTimer = newRoundTimer(e.timing.ChallengeExpiry, func() {
		e.expire(c)
	})
	c.mu.Unlock()

	e.notifier.DeliverResult(opponentID, fmt.Sprintf(
		"%s challenged you to a %s quiz duel (%s, %d questions)! Reply accept or decline.",
		challengerName, category, difficulty, len(questions)))
	e.notifier.DeliverResult(challengerID, fmt.Sprintf("Challenge sent to %s. Waiting for a response...", opponentName))
	return c, nil
}

// ChallengeByID returns the live challenge, if any.
func (e *ChallengeEngine) ChallengeByID(challengeID string) (*Challenge, bool) {
	return e.challenges.Get(challengeID)
}

// Respond accepts or declines a pending challenge. Only the addressed opponent
// may respond. Accepting dispatches the first question to the challenger.
func (e *ChallengeEngine) Respond(ctx context.Context, challengeID, responderID string, accept bool) error {
	c, ok := e.challenges.Get(challengeID)
	if !ok {
		return domain.ErrChallengeNotFound
	}

	c.mu.Lock()
	if c.status != domain.ChallengePending {
		c.mu.Unlock()
		return domain.ErrChallengeNotPending
	}
	if responderID != c.opponent.UserID {
		c.mu.Unlock()
		return domain.ErrNotOpponent
	}
	c.expiryTimer.Stop()

	if !accept {
		c.status = domain.ChallengeDeclined
		settled := e.settleLocked(c, "declined")
		c.mu.Unlock()

		e.notifier.DeliverResult(c.challenger.UserID, fmt.Sprintf("%s declined your challenge.", c.opponent.Name))
		e.finishChallenge(ctx, c, settled)
		return nil
	}

	c.status = domain.ChallengeAccepted
	c.startedAt = e.now()
	// InProgress begins with the first dispatch; the challenger is on turn.
	c.status = domain.ChallengeInProgress
	c.turn = domain.TurnChallenger
	dispatch := e.dispatchLocked(c)
	c.mu.Unlock()

	e.notifier.DeliverResult(c.challenger.UserID, fmt.Sprintf("%s accepted your challenge. Game on!", c.opponent.Name))
	e.notifier.DeliverResult(c.opponent.UserID, "Challenge accepted! Your rival answers first.")
	e.deliver(dispatch)
	return nil
}

// dispatchLocked advances to the next question and arms the turn timer for the
// player on turn. Caller holds c.mu.
func (e *ChallengeEngine) dispatchLocked(c *Challenge) *questionDispatch {
	c.current++
	c.epoch++
	c.pendingDispatch = false
	c.questionStartedAt = e.now()

	q := c.questions[c.current]
	epoch := c.epoch
	c.turnTimer = newRoundTimer(q.TimeLimit, func() {
		e.turnTimeout(c, epoch)
	})
	return &questionDispatch{target: c.onTurn().UserID, question: q, index: c.current + 1, total: len(c.questions)}
}

func (e *ChallengeEngine) deliver(dispatch *questionDispatch) {
	if dispatch == nil {
		return
	}
	e.notifier.DeliverQuestion(dispatch.target, dispatch.question, dispatch.index, dispatch.total)
}

// SubmitAnswer grades the on-turn player's choice and hands the turn over. A
// submission from the off-turn player is dropped without error, since stale or
// duplicate deliveries are expected from the messaging layer.
func (e *ChallengeEngine) SubmitAnswer(ctx context.Context, challengeID, playerID string, optionIndex int) (AnswerOutcome, error) {
	c, ok := e.challenges.Get(challengeID)
	if !ok {
		return AnswerOutcome{}, domain.ErrChallengeNotFound
	}

	c.mu.Lock()
	if c.status != domain.ChallengeInProgress {
		c.mu.Unlock()
		return AnswerOutcome{}, domain.ErrChallengeNotRunning
	}
	if playerID != c.challenger.UserID && playerID != c.opponent.UserID {
		c.mu.Unlock()
		return AnswerOutcome{}, domain.ErrNotOpponent
	}
	if c.pendingDispatch || playerID != c.onTurn().UserID {
		c.mu.Unlock()
		return AnswerOutcome{Ignored: true}, nil
	}

	q := c.questions[c.current]
	now := e.now()
	elapsed := now.Sub(c.questionStartedAt)
	var chosen string
	if optionIndex >= 0 && optionIndex < len(q.Options) {
		chosen = q.Options[optionIndex]
	}
	correct := chosen != "" && chosen == q.CorrectAnswer
	points := 0
	if correct {
		points = Points(c.difficulty, elapsed)
	}

	player := c.onTurn()
	player.Score += points
	player.Answers = append(player.Answers, domain.Answer{
		QuestionIndex: c.current,
		ChosenOption:  chosen,
		Correct:       correct,
		PointsEarned:  points,
		LatencyMs:     elapsed.Milliseconds(),
		AnsweredAt:    now,
	})

	out := AnswerOutcome{
		Correct:       correct,
		CorrectAnswer: q.CorrectAnswer,
		Points:        points,
		TotalScore:    player.Score,
	}
	settled := e.turnOverLocked(c)
	c.mu.Unlock()

	if correct {
		e.notifier.DeliverResult(playerID, fmt.Sprintf("Correct! +%d points.", points))
	} else {
		e.notifier.DeliverResult(playerID, fmt.Sprintf("Wrong. The correct answer was: %s", q.CorrectAnswer))
	}
	if settled != nil {
		e.finishChallenge(ctx, c, settled)
	}
	return out, nil
}

// turnOverLocked disarms the turn timer, flips the turn and either schedules
// the next dispatch or settles the round when the set is exhausted. Caller
// holds c.mu.
func (e *ChallengeEngine) turnOverLocked(c *Challenge) *settledSession {
	c.turnTimer.Stop()
	c.epoch++
	c.turn = 1 - c.turn

	if c.current+1 >= len(c.questions) {
		c.status = domain.ChallengeCompleted
		return e.settleLocked(c, "completed")
	}

	c.pendingDispatch = true
	epoch := c.epoch
	c.settleTimer = newRoundTimer(e.timing.SettleDelay, func() {
		e.dispatchNext(c, epoch)
	})
	return nil
}

func (e *ChallengeEngine) dispatchNext(c *Challenge, epoch int) {
	c.mu.Lock()
	if c.status != domain.ChallengeInProgress || c.epoch != epoch {
		c.mu.Unlock()
		return
	}
	dispatch := e.dispatchLocked(c)
	c.mu.Unlock()
	e.deliver(dispatch)
}

// TurnTimeout records a zero-point non-answer for the on-turn player and hands
// the turn over, exactly as a wrong answer would.
func (e *ChallengeEngine) TurnTimeout(ctx context.Context, challengeID string) error {
	c, ok := e.challenges.Get(challengeID)
	if !ok {
		return domain.ErrChallengeNotFound
	}
	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()
	e.turnTimeout(c, epoch)
	return nil
}

func (e *ChallengeEngine) turnTimeout(c *Challenge, epoch int) {
	c.mu.Lock()
	if c.status != domain.ChallengeInProgress || c.pendingDispatch || c.epoch != epoch {
		c.mu.Unlock()
		return
	}

	q := c.questions[c.current]
	player := c.onTurn()
	player.Answers = append(player.Answers, domain.Answer{
		QuestionIndex: c.current,
		Correct:       false,
		LatencyMs:     q.TimeLimit.Milliseconds(),
		AnsweredAt:    e.now(),
	})
	playerID := player.UserID
	settled := e.turnOverLocked(c)
	c.mu.Unlock()

	e.notifier.DeliverResult(playerID, fmt.Sprintf("Time's up! The correct answer was: %s", q.CorrectAnswer))
	if settled != nil {
		e.finishChallenge(context.Background(), c, settled)
	}
}

// Expire moves a still-pending challenge to Expired. Repeated calls after the
// transition are no-ops, so a late timer cannot notify twice.
func (e *ChallengeEngine) Expire(ctx context.Context, challengeID string) error {
	c, ok := e.challenges.Get(challengeID)
	if !ok {
		return domain.ErrChallengeNotFound
	}
	e.expire(c)
	return nil
}

func (e *ChallengeEngine) expire(c *Challenge) {
	c.mu.Lock()
	if c.status != domain.ChallengePending {
		c.mu.Unlock()
		return
	}
	c.status = domain.ChallengeExpired
	c.expiryTimer.Stop()
	settled := e.settleLocked(c, "expired")
	c.mu.Unlock()

	e.notifier.DeliverResult(c.challenger.UserID, fmt.Sprintf("%s did not respond; your challenge expired.", c.opponent.Name))
	e.finishChallenge(context.Background(), c, settled)
}

// settleLocked builds the terminal record. For completed rounds it also
// computes the winner; equal scores mean no winner. Caller holds c.mu.
func (e *ChallengeEngine) settleLocked(c *Challenge, outcome string) *settledSession {
	c.expiryTimer.Stop()
	c.turnTimer.Stop()
	c.settleTimer.Stop()
	c.epoch++

	result := domain.RoundResult{
		ID:         c.id,
		Kind:       domain.RoundChallenge,
		Category:   c.category,
		Difficulty: c.difficulty,
		Questions:  len(c.questions),
		Outcome:    outcome,
		StartedAt:  c.createdAt,
		EndedAt:    e.now(),
	}

	settled := &settledSession{
		result: result,
		names:  map[string]string{},
		deltas: map[string]domain.StatsDelta{},
	}
	if outcome != "completed" {
		return settled
	}

	settled.result.Ranking = domain.Rank([]*domain.Participant{c.challenger, c.opponent})
	switch {
	case c.challenger.Score > c.opponent.Score:
		settled.result.WinnerID = c.challenger.UserID
		settled.result.WinnerName = c.challenger.Name
	case c.opponent.Score > c.challenger.Score:
		settled.result.WinnerID = c.opponent.UserID
		settled.result.WinnerName = c.opponent.Name
	}

	for _, p := range []*domain.Participant{c.challenger, c.opponent} {
		settled.names[p.UserID] = p.Name
		delta := domain.StatsDelta{
			Points:           p.Score,
			ChallengesPlayed: 1,
			CorrectAnswers:   p.CorrectCount(),
			TotalAnswers:     len(p.Answers),
		}
		if p.UserID == settled.result.WinnerID {
			delta.ChallengesWon = 1
		}
		settled.deltas[p.UserID] = delta
	}
	return settled
}

func (e *ChallengeEngine) finishChallenge(ctx context.Context, c *Challenge, settled *settledSession) {
	e.challenges.Remove(c.id)
	if settled.result.Outcome == "completed" {
		text := challengeResultText(c, settled.result)
		e.notifier.DeliverResult(c.challenger.UserID, text)
		e.notifier.DeliverResult(c.opponent.UserID, text)
	}
	Settle(ctx, e.store, settled.result, settled.names, settled.deltas, e.logf)
}

func challengeResultText(c *Challenge, r domain.RoundResult) string {
	text := fmt.Sprintf("Challenge results (%s, %s):\n%s: %d points\n%s: %d points\n",
		r.Category, r.Difficulty,
		c.challenger.Name, c.challenger.Score,
		c.opponent.Name, c.opponent.Score)
	if r.WinnerName != "" {
		return text + fmt.Sprintf("Winner: %s!", r.WinnerName)
	}
	return text + "It's a tie!"
}
