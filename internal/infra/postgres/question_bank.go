package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/domain"
)

// QuestionBank serves curated question sets stored as JSONB, one row per
// (category, difficulty) pair. It backs rounds from an operator-maintained pool
// instead of the public trivia API.
type QuestionBank struct {
	pool *pgxpool.Pool
}

func NewQuestionBank(pool *pgxpool.Pool) *QuestionBank {
	return &QuestionBank{pool: pool}
}

func (b *QuestionBank) Fetch(ctx context.Context, category string, difficulty domain.Difficulty, count int) ([]domain.Question, error) {
	var raw []byte
	err := b.pool.QueryRow(ctx,
		`SELECT data FROM quiz_question_banks WHERE category=$1 AND difficulty=$2`,
		category, string(difficulty),
	).Scan(&raw)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w: no question bank for %s/%s", domain.ErrProvider, category, difficulty)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load question bank: %v", domain.ErrProvider, err)
	}

	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("%w: unmarshal question bank: %v", domain.ErrProvider, err)
	}
	if count < len(questions) {
		questions = questions[:count]
	}
	return questions, nil
}
