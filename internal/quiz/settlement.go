package quiz

import (
	"context"

	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/domain"
)

// Settle persists the terminal round record and every participant's stats
// delta. Each participant is one logical Store update; a failed update is
// logged and skipped so that one broken profile write can never invalidate the
// round's outcome or block the remaining participants.
func Settle(ctx context.Context, store Store, result domain.RoundResult, names map[string]string, deltas map[string]domain.StatsDelta, logf func(format string, args ...any)) {
	if err := store.SaveRoundResult(ctx, result); err != nil {
		logf("save round result %s: %v", result.ID, err)
	}

	// Ranking order keeps the update sequence deterministic.
	for _, entry := range result.Ranking {
		delta, ok := deltas[entry.UserID]
		if !ok {
			continue
		}
		if err := store.UpdateParticipantStats(ctx, entry.UserID, names[entry.UserID], delta); err != nil {
			logf("update stats for %s in round %s: %v", entry.UserID, result.ID, err)
		}
	}
}
