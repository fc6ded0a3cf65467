package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/domain"
)

const (
	kindGroup     = "group"
	kindChallenge = "challenge"
)

type roundRow struct {
	bun.BaseModel `bun:"table:quiz_rounds"`

	ID         string    `bun:"id,pk"`
	Kind       string    `bun:"kind"`
	GroupID    string    `bun:"group_id"`
	Category   string    `bun:"category"`
	Difficulty string    `bun:"difficulty"`
	Questions  int       `bun:"questions"`
	Outcome    string    `bun:"outcome"`
	Ranking    []byte    `bun:"ranking,type:jsonb"`
	WinnerID   string    `bun:"winner_id"`
	WinnerName string    `bun:"winner_name"`
	StartedAt  time.Time `bun:"started_at"`
	EndedAt    time.Time `bun:"ended_at"`
}

type activeRoundRow struct {
	bun.BaseModel `bun:"table:quiz_active_rounds"`

	RoundID   string    `bun:"round_id,pk"`
	Kind      string    `bun:"kind"`
	MarkerKey string    `bun:"marker_key"`
	CreatedAt time.Time `bun:"created_at"`
}

type userRow struct {
	bun.BaseModel `bun:"table:quiz_users"`

	UserID  string `bun:"user_id,pk"`
	Blocked bool   `bun:"blocked"`
}

// Store persists terminal round records, per-user stats and live-round markers
// in Postgres.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// SaveRoundResult writes the terminal record and clears the live-round marker
// in one transaction. Replayed saves for the same round id are no-ops.
func (s *Store) SaveRoundResult(ctx context.Context, result domain.RoundResult) error {
	ranking, err := json.Marshal(result.Ranking)
	if err != nil {
		return fmt.Errorf("marshal ranking: %w", err)
	}
	row := &roundRow{
		ID:         result.ID,
		Kind:       string(result.Kind),
		GroupID:    result.GroupID,
		Category:   result.Category,
		Difficulty: string(result.Difficulty),
		Questions:  result.Questions,
		Outcome:    result.Outcome,
		Ranking:    ranking,
		WinnerID:   result.WinnerID,
		WinnerName: result.WinnerName,
		StartedAt:  result.StartedAt,
		EndedAt:    result.EndedAt,
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(row).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
			return fmt.Errorf("insert round: %w", err)
		}
		if _, err := tx.NewDelete().Model((*activeRoundRow)(nil)).
			Where("round_id = ?", result.ID).Exec(ctx); err != nil {
			return fmt.Errorf("clear round marker: %w", err)
		}
		return nil
	})
}

// UpdateParticipantStats folds one round's delta into the user's counters and
// recomputes the derived accuracy and rank title from the new totals.
func (s *Store) UpdateParticipantStats(ctx context.Context, userID, name string, delta domain.StatsDelta) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var points, correct, total int
		err := tx.QueryRowContext(ctx, `
			INSERT INTO quiz_users (
				user_id, name, points, quizzes_played, quizzes_won,
				challenges_played, challenges_won, correct_answers, total_answers,
				updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, now())
			ON CONFLICT (user_id) DO UPDATE SET
				name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE quiz_users.name END,
				points = quiz_users.points + EXCLUDED.points,
				quizzes_played = quiz_users.quizzes_played + EXCLUDED.quizzes_played,
				quizzes_won = quiz_users.quizzes_won + EXCLUDED.quizzes_won,
				challenges_played = quiz_users.challenges_played + EXCLUDED.challenges_played,
				challenges_won = quiz_users.challenges_won + EXCLUDED.challenges_won,
				correct_answers = quiz_users.correct_answers + EXCLUDED.correct_answers,
				total_answers = quiz_users.total_answers + EXCLUDED.total_answers,
				updated_at = now()
			RETURNING points, correct_answers, total_answers`,
			userID, name, delta.Points, delta.QuizzesPlayed, delta.QuizzesWon,
			delta.ChallengesPlayed, delta.ChallengesWon, delta.CorrectAnswers, delta.TotalAnswers,
		).Scan(&points, &correct, &total)
		if err != nil {
			return fmt.Errorf("upsert stats: %w", err)
		}

		accuracy := 0
		if total > 0 {
			accuracy = (correct*100 + total/2) / total
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE quiz_users SET accuracy = ?, rank = ? WHERE user_id = ?`,
			accuracy, domain.RankFor(points), userID,
		); err != nil {
			return fmt.Errorf("update derived stats: %w", err)
		}
		return nil
	})
}

func (s *Store) MarkSessionActive(ctx context.Context, groupID, sessionID string) error {
	return s.mark(ctx, kindGroup, groupID, sessionID)
}

func (s *Store) MarkChallengeOpen(ctx context.Context, pair domain.PairKey, challengeID string) error {
	return s.mark(ctx, kindChallenge, string(pair), challengeID)
}

func (s *Store) mark(ctx context.Context, kind, key, roundID string) error {
	row := &activeRoundRow{RoundID: roundID, Kind: kind, MarkerKey: key, CreatedAt: time.Now()}
	if _, err := s.db.NewInsert().Model(row).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("mark round active: %w", err)
	}
	return nil
}

func (s *Store) FindActiveSession(ctx context.Context, groupID string) (bool, error) {
	return s.markerExists(ctx, kindGroup, groupID)
}

func (s *Store) FindNonTerminalChallenge(ctx context.Context, pair domain.PairKey) (bool, error) {
	return s.markerExists(ctx, kindChallenge, string(pair))
}

func (s *Store) markerExists(ctx context.Context, kind, key string) (bool, error) {
	exists, err := s.db.NewSelect().Model((*activeRoundRow)(nil)).
		Where("kind = ?", kind).
		Where("marker_key = ?", key).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: find active round: %v", domain.ErrProvider, err)
	}
	return exists, nil
}

func (s *Store) IsBlocked(ctx context.Context, userID string) (bool, error) {
	row := new(userRow)
	err := s.db.NewSelect().Model(row).
		Column("blocked").
		Where("user_id = ?", userID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: blocked lookup: %v", domain.ErrProvider, err)
	}
	return row.Blocked, nil
}
