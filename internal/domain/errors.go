package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Specific errors below wrap one of these so callers can classify
// with errors.Is(err, domain.ErrConflict) and friends.
var (
	ErrConflict   = errors.New("conflict")
	ErrPermission = errors.New("not permitted")
	ErrProvider   = errors.New("question provider failed")
	ErrNotFound   = errors.New("not found")
)

var (
	// ErrSessionActive is returned when a group already has a live quiz.
	ErrSessionActive = fmt.Errorf("%w: a quiz is already active in this group", ErrConflict)
	// ErrChallengeOpen is returned when the pair already has a non-terminal challenge.
	ErrChallengeOpen = fmt.Errorf("%w: there is already an open challenge between these players", ErrConflict)
	// ErrSelfChallenge is returned when a player challenges themselves.
	ErrSelfChallenge = fmt.Errorf("%w: you cannot challenge yourself", ErrConflict)
	// ErrOpponentBlocked is returned when the challenged user cannot play.
	ErrOpponentBlocked = fmt.Errorf("%w: this user cannot be challenged", ErrConflict)
	// ErrNoActiveQuestion is returned for submissions outside an active question.
	ErrNoActiveQuestion = fmt.Errorf("%w: no question is waiting for an answer", ErrConflict)
	// ErrChallengeNotPending is returned for responses to a settled challenge.
	ErrChallengeNotPending = fmt.Errorf("%w: challenge is no longer pending", ErrConflict)
	// ErrChallengeNotRunning is returned for answers outside an in-progress challenge.
	ErrChallengeNotRunning = fmt.Errorf("%w: challenge is not in progress", ErrConflict)

	// ErrNotStarter is returned when someone other than the starter or an admin stops a quiz.
	ErrNotStarter = fmt.Errorf("%w: only the quiz starter or an admin can stop the quiz", ErrPermission)
	// ErrNotOpponent is returned when anyone but the challenged player responds.
	ErrNotOpponent = fmt.Errorf("%w: only the challenged player can respond", ErrPermission)

	// ErrQuestionShortfall is returned when too few usable questions were obtained.
	ErrQuestionShortfall = fmt.Errorf("%w: could not fetch enough questions", ErrProvider)

	// ErrSessionNotFound is returned for operations on an unknown session.
	ErrSessionNotFound = fmt.Errorf("quiz session %w", ErrNotFound)
	// ErrChallengeNotFound is returned for operations on an unknown or expired challenge.
	ErrChallengeNotFound = fmt.Errorf("challenge %w", ErrNotFound)
)
