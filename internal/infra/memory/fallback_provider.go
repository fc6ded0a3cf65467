package memory

import (
	"context"
	"log"

	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/domain"
	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/quiz"
)

// FallbackProvider tries the primary source first and falls back to the
// secondary when the primary fails or comes up short, so a trivia API outage
// degrades a round to the sample sets instead of failing it.
type FallbackProvider struct {
	primary  quiz.QuestionProvider
	fallback quiz.QuestionProvider
}

func NewFallbackProvider(primary, fallback quiz.QuestionProvider) *FallbackProvider {
	return &FallbackProvider{primary: primary, fallback: fallback}
}

func (p *FallbackProvider) Fetch(ctx context.Context, category string, difficulty domain.Difficulty, count int) ([]domain.Question, error) {
	questions, err := p.primary.Fetch(ctx, category, difficulty, count)
	if err == nil && len(questions) >= count {
		return questions, nil
	}
	if err != nil {
		log.Printf("question provider failed for %s/%s, using samples: %v", category, difficulty, err)
	}
	return p.fallback.Fetch(ctx, category, difficulty, count)
}
