package quiz

import (
	"testing"
	"time"

	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/domain"
)

func TestPointsAddsSpeedBonus(t *testing.T) {
	cases := []struct {
		difficulty domain.Difficulty
		elapsed    time.Duration
		want       int
	}{
		{domain.DifficultyEasy, 5 * time.Second, 35},
		{domain.DifficultyEasy, 0, 40},
		{domain.DifficultyEasy, 5500 * time.Millisecond, 35},
		{domain.DifficultyMedium, 10 * time.Second, 35},
		{domain.DifficultyHard, 29 * time.Second, 21},
		{domain.DifficultyHard, 30 * time.Second, 20},
	}
	for _, c := range cases {
		if got := Points(c.difficulty, c.elapsed); got != c.want {
			t.Fatalf("%s after %s: expected %d, got %d", c.difficulty, c.elapsed, c.want, got)
		}
	}
}

func TestPointsBonusNeverNegative(t *testing.T) {
	if got := Points(domain.DifficultyEasy, 5*time.Minute); got != 10 {
		t.Fatalf("expected base points only for a late answer, got %d", got)
	}
}
