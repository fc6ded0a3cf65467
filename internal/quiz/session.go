package quiz

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/domain"
)

// Session is the in-memory aggregate for one group round. All mutable state is
// owned exclusively by the session and guarded by its mutex; the registries are
// the only state shared across entities.
type Session struct {
	mu sync.Mutex

	id         string
	groupID    string
	category   string
	difficulty domain.Difficulty
	startedBy  string
	questions  []domain.Question

	stage             domain.SessionStage
	current           int // -1 before the first reveal
	participants      map[string]*domain.Participant
	order             []*domain.Participant // first-seen, breaks ranking ties
	questionStartedAt time.Time
	startedAt         time.Time

	// epoch increments on every advance; timer callbacks capture it so a
	// stale question timeout or settle tick cannot act twice.
	epoch         int
	questionTimer *roundTimer
	settleTimer   *roundTimer
}

func (s *Session) ID() string      { return s.id }
func (s *Session) GroupID() string { return s.groupID }

// SessionStatus is a read-only snapshot for the transport layer.
type SessionStatus struct {
	SessionID       string               `json:"sessionId"`
	GroupID         string               `json:"groupId"`
	Category        string               `json:"category"`
	Difficulty      domain.Difficulty    `json:"difficulty"`
	Stage           domain.SessionStage  `json:"stage"`
	CurrentQuestion int                  `json:"currentQuestion"`
	TotalQuestions  int                  `json:"totalQuestions"`
	Participants    []domain.Participant `json:"participants"`
}

// Status returns a consistent snapshot of the session.
func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := make([]domain.Participant, 0, len(s.order))
	for _, p := range s.order {
		parts = append(parts, *p)
	}
	return SessionStatus{
		SessionID:       s.id,
		GroupID:         s.groupID,
		Category:        s.category,
		Difficulty:      s.difficulty,
		Stage:           s.stage,
		CurrentQuestion: s.current + 1,
		TotalQuestions:  len(s.questions),
		Participants:    parts,
	}
}

// SessionEngineConfig wires the session engine's collaborators.
type SessionEngineConfig struct {
	Registry SessionRegistry
	Provider QuestionProvider
	Store    Store
	Notifier Notifier
	Timing   Timing
	// Admins may stop any quiz in addition to its starter.
	Admins []string
	Clock  func() time.Time
	Logf   func(format string, args ...any)
}

// SessionEngine drives group quiz rounds: question dispatch, grading, timeouts
// and settlement. One engine serves all groups; per-session mutexes keep
// operations on one session totally ordered while independent sessions run in
// parallel.
type SessionEngine struct {
	sessions SessionRegistry
	provider QuestionProvider
	store    Store
	notifier Notifier
	timing   Timing
	admins   map[string]struct{}
	now      func() time.Time
	logf     func(format string, args ...any)
}

func NewSessionEngine(c SessionEngineConfig) *SessionEngine {
	admins := make(map[string]struct{}, len(c.Admins))
	for _, a := range c.Admins {
		admins[a] = struct{}{}
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.Logf == nil {
		c.Logf = log.Printf
	}
	return &SessionEngine{
		sessions: c.Registry,
		provider: c.Provider,
		store:    c.Store,
		notifier: c.Notifier,
		timing:   c.Timing.withDefaults(),
		admins:   admins,
		now:      c.Clock,
		logf:     c.Logf,
	}
}

// Start creates a new group session in stage Ready. The first question is not
// dispatched until Advance is called.
func (e *SessionEngine) Start(ctx context.Context, groupID, starterID, category string, difficulty domain.Difficulty, questionCount int) (*Session, error) {
	if !difficulty.Valid() {
		return nil, fmt.Errorf("unknown difficulty %q", difficulty)
	}
	if questionCount <= 0 {
		questionCount = DefaultSessionQuestions
	}

	if _, ok := e.sessions.GetByGroup(groupID); ok {
		return nil, domain.ErrSessionActive
	}
	// Pre-flight against the store as well; a store failure must not brick
	// round creation, the registry stays authoritative.
	if active, err := e.store.FindActiveSession(ctx, groupID); err != nil {
		e.logf("session preflight failed for group %s: %v", groupID, err)
	} else if active {
		return nil, domain.ErrSessionActive
	}

	questions, err := e.provider.Fetch(ctx, category, difficulty, questionCount)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w: %v", domain.ErrQuestionShortfall, err)
	}
	if len(questions) < questionCount {
		return nil, fmt.Errorf("got %d of %d questions: %w", len(questions), questionCount, domain.ErrQuestionShortfall)
	}
	questions = questions[:questionCount]
	for i := range questions {
		if questions[i].Points == 0 {
			questions[i].Points = difficulty.BasePoints()
		}
		if questions[i].TimeLimit <= 0 {
			questions[i].TimeLimit = e.timing.QuestionTimeout
		}
	}

	s := &Session{
		id:           newID("quiz"),
		groupID:      groupID,
		category:     category,
		difficulty:   difficulty,
		startedBy:    starterID,
		questions:    questions,
		stage:        domain.StageReady,
		current:      -1,
		participants: make(map[string]*domain.Participant),
		startedAt:    e.now(),
	}
	if err := e.sessions.Create(s); err != nil {
		return nil, err
	}
	if err := e.store.MarkSessionActive(ctx, groupID, s.id); err != nil {
		e.logf("mark session %s active failed: %v", s.id, err)
	}
	return s, nil
}

// SessionByGroup returns the live session for a group, if any.
func (e *SessionEngine) SessionByGroup(groupID string) (*Session, bool) {
	return e.sessions.GetByGroup(groupID)
}

// Advance moves the session to the next question, or ends it and settles when
// the question set is exhausted.
func (e *SessionEngine) Advance(ctx context.Context, sessionID string) error {
	s, ok := e.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	e.advance(ctx, s)
	return nil
}

func (e *SessionEngine) advance(ctx context.Context, s *Session) {
	s.mu.Lock()
	dispatch, settled := e.advanceLocked(s)
	s.mu.Unlock()

	if dispatch != nil {
		e.notifier.DeliverQuestion(dispatch.target, dispatch.question, dispatch.index, dispatch.total)
	}
	if settled != nil {
		e.finishRound(ctx, s, settled)
	}
}

// questionDispatch carries everything delivery needs, including the target
// resolved while the lock was held, so a turn flip between the state change
// and the send cannot redirect the question.
type questionDispatch struct {
	target   string
	question domain.Question
	index    int
	total    int
}

type settledSession struct {
	result domain.RoundResult
	names  map[string]string
	deltas map[string]domain.StatsDelta
}

// advanceLocked performs the state transition under s.mu and returns what the
// caller must do afterwards: dispatch a question, or finish the round.
func (e *SessionEngine) advanceLocked(s *Session) (*questionDispatch, *settledSession) {
	if s.stage == domain.StageEnded {
		return nil, nil
	}
	s.questionTimer.Stop()
	s.settleTimer.Stop()

	if s.current+1 >= len(s.questions) {
		return nil, e.settleLocked(s, "completed")
	}

	s.current++
	s.epoch++
	s.stage = domain.StageQuestionActive
	s.questionStartedAt = e.now()

	q := s.questions[s.current]
	epoch := s.epoch
	s.questionTimer = newRoundTimer(q.TimeLimit, func() {
		e.questionTimeout(s, epoch)
	})

	return &questionDispatch{target: s.groupID, question: q, index: s.current + 1, total: len(s.questions)}, nil
}

// SubmitAnswer grades one participant's option choice for the active question.
// A repeat submission from the same user for the same question returns the
// originally scored outcome and changes nothing.
func (e *SessionEngine) SubmitAnswer(ctx context.Context, sessionID, userID, userName string, optionIndex int) (AnswerOutcome, error) {
	s, ok := e.sessions.Get(sessionID)
	if !ok {
		return AnswerOutcome{}, domain.ErrSessionNotFound
	}

	s.mu.Lock()
	if s.stage != domain.StageQuestionActive {
		s.mu.Unlock()
		return AnswerOutcome{}, domain.ErrNoActiveQuestion
	}

	q := s.questions[s.current]
	p, seen := s.participants[userID]
	if !seen {
		p = &domain.Participant{UserID: userID, Name: userName}
		s.participants[userID] = p
		s.order = append(s.order, p)
	}

	// Idempotent on retried delivery: only the first submission per user
	// per question is scored.
	for _, a := range p.Answers {
		if a.QuestionIndex == s.current {
			out := AnswerOutcome{
				Correct:       a.Correct,
				CorrectAnswer: q.CorrectAnswer,
				Points:        a.PointsEarned,
				TotalScore:    p.Score,
				Duplicate:     true,
			}
			s.mu.Unlock()
			return out, nil
		}
	}

	now := e.now()
	elapsed := now.Sub(s.questionStartedAt)
	var chosen string
	if optionIndex >= 0 && optionIndex < len(q.Options) {
		chosen = q.Options[optionIndex]
	}
	correct := chosen != "" && chosen == q.CorrectAnswer
	points := 0
	if correct {
		points = Points(s.difficulty, elapsed)
	}

	p.Score += points
	p.Answers = append(p.Answers, domain.Answer{
		QuestionIndex: s.current,
		ChosenOption:  chosen,
		Correct:       correct,
		PointsEarned:  points,
		LatencyMs:     elapsed.Milliseconds(),
		AnsweredAt:    now,
	})

	// The question timer is disarmed and the epoch bumped, so a timeout
	// callback already waiting on the mutex goes stale. The round moves on
	// after the settle delay so everyone sees the result first.
	s.questionTimer.Stop()
	s.epoch++
	epoch := s.epoch
	s.settleTimer.Stop()
	s.settleTimer = newRoundTimer(e.timing.SettleDelay, func() {
		e.settleAdvance(s, epoch)
	})

	out := AnswerOutcome{
		Correct:       correct,
		CorrectAnswer: q.CorrectAnswer,
		Points:        points,
		TotalScore:    p.Score,
	}
	groupID := s.groupID
	s.mu.Unlock()

	if correct {
		e.notifier.DeliverResult(groupID, fmt.Sprintf("Correct! %s earns %d points (total %d).", userName, points, out.TotalScore))
	} else {
		e.notifier.DeliverResult(groupID, fmt.Sprintf("Wrong answer by %s. The correct answer was: %s", userName, q.CorrectAnswer))
	}
	return out, nil
}

func (e *SessionEngine) settleAdvance(s *Session, epoch int) {
	s.mu.Lock()
	if s.stage != domain.StageQuestionActive || s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	dispatch, settled := e.advanceLocked(s)
	s.mu.Unlock()

	if dispatch != nil {
		e.notifier.DeliverQuestion(dispatch.target, dispatch.question, dispatch.index, dispatch.total)
	}
	if settled != nil {
		e.finishRound(context.Background(), s, settled)
	}
}

// Timeout handles an expired question: the correct answer is revealed and the
// round advances. It is a no-op unless a question is currently active.
func (e *SessionEngine) Timeout(ctx context.Context, sessionID string) error {
	s, ok := e.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()
	e.questionTimeout(s, epoch)
	return nil
}

func (e *SessionEngine) questionTimeout(s *Session, epoch int) {
	s.mu.Lock()
	// A submission that already scheduled the settle advance, or an advance
	// that already happened, wins over the timer.
	if s.stage != domain.StageQuestionActive || s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	correct := s.questions[s.current].CorrectAnswer
	dispatch, settled := e.advanceLocked(s)
	s.mu.Unlock()

	e.notifier.DeliverResult(s.groupID, fmt.Sprintf("Time's up! The correct answer was: %s", correct))
	if dispatch != nil {
		e.notifier.DeliverQuestion(dispatch.target, dispatch.question, dispatch.index, dispatch.total)
	}
	if settled != nil {
		e.finishRound(context.Background(), s, settled)
	}
}

// Stop force-ends a session. Only the original starter or an admin may stop a
// quiz; settlement runs with whatever scores exist.
func (e *SessionEngine) Stop(ctx context.Context, groupID, requesterID string) error {
	s, ok := e.sessions.GetByGroup(groupID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	if requesterID != s.startedBy {
		if _, admin := e.admins[requesterID]; !admin {
			return domain.ErrNotStarter
		}
	}

	s.mu.Lock()
	if s.stage == domain.StageEnded {
		s.mu.Unlock()
		return nil
	}
	settled := e.settleLocked(s, "stopped")
	s.mu.Unlock()

	e.finishRound(ctx, s, settled)
	return nil
}

// settleLocked transitions to Ended exactly once and computes the terminal
// record. Persistence and notification happen outside the lock.
func (e *SessionEngine) settleLocked(s *Session, outcome string) *settledSession {
	s.questionTimer.Stop()
	s.settleTimer.Stop()
	s.stage = domain.StageEnded
	s.epoch++

	ranking := domain.Rank(s.order)
	result := domain.RoundResult{
		ID:         s.id,
		Kind:       domain.RoundGroup,
		GroupID:    s.groupID,
		Category:   s.category,
		Difficulty: s.difficulty,
		Questions:  len(s.questions),
		Outcome:    outcome,
		Ranking:    ranking,
		StartedAt:  s.startedAt,
		EndedAt:    e.now(),
	}
	if len(ranking) > 0 {
		result.WinnerID = ranking[0].UserID
		result.WinnerName = ranking[0].Name
	}

	names := make(map[string]string, len(s.order))
	deltas := make(map[string]domain.StatsDelta, len(s.order))
	for _, p := range s.order {
		names[p.UserID] = p.Name
		delta := domain.StatsDelta{
			Points:         p.Score,
			QuizzesPlayed:  1,
			CorrectAnswers: p.CorrectCount(),
			TotalAnswers:   len(p.Answers),
		}
		if p.UserID == result.WinnerID {
			delta.QuizzesWon = 1
		}
		deltas[p.UserID] = delta
	}
	return &settledSession{result: result, names: names, deltas: deltas}
}

func (e *SessionEngine) finishRound(ctx context.Context, s *Session, settled *settledSession) {
	e.sessions.Remove(s.id)
	e.notifier.DeliverResult(s.groupID, sessionResultText(settled.result))
	Settle(ctx, e.store, settled.result, settled.names, settled.deltas, e.logf)
}

func sessionResultText(r domain.RoundResult) string {
	var b strings.Builder
	b.WriteString("Quiz finished! Final results:\n")
	if len(r.Ranking) == 0 {
		b.WriteString("Nobody answered this round.")
		return b.String()
	}
	for _, entry := range r.Ranking {
		fmt.Fprintf(&b, "%d. %s - %d points\n", entry.Position, entry.Name, entry.Score)
	}
	fmt.Fprintf(&b, "Winner: %s with %d points!", r.WinnerName, r.Ranking[0].Score)
	return b.String()
}
