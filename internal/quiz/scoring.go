package quiz

import (
	"time"

	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/domain"
)

// BonusWindowSeconds is the answer-speed bonus window: one extra point for
// every full second left of the window when the answer arrives.
const BonusWindowSeconds = 30

// Points returns the score for a correct answer at the given difficulty after
// elapsed time. Pure and deterministic; callers gate on correctness, an
// incorrect answer always scores zero.
func Points(difficulty domain.Difficulty, elapsed time.Duration) int {
	bonus := BonusWindowSeconds - int(elapsed/time.Second)
	if bonus < 0 {
		bonus = 0
	}
	return difficulty.BasePoints() + bonus
}
