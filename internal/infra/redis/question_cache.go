package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/domain"
	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/quiz"
)

// QuestionCache caches fetched question sets in Redis so that several bot
// instances share one trivia API budget. Sets are stored as one JSON value per
// (category, difficulty, count) key:
//
//	SET quiz:questions:{category}:{difficulty}:{count} <json> EX ttl
type QuestionCache struct {
	client *redis.Client
	source quiz.QuestionProvider
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionCache(client *redis.Client, source quiz.QuestionProvider, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) Fetch(ctx context.Context, category string, difficulty domain.Difficulty, count int) ([]domain.Question, error) {
	key := c.key(category, difficulty, count)

	if questions, ok := c.lookup(ctx, key); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if questions, ok := c.lookup(ctx, key); ok {
			return questions, nil
		}

		questions, err := c.source.Fetch(ctx, category, difficulty, count)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(questions); err == nil {
			// Best effort; a cache write failure must not fail the round.
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) lookup(ctx context.Context, key string) ([]domain.Question, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, false
	}
	return questions, len(questions) > 0
}

func (c *QuestionCache) key(category string, difficulty domain.Difficulty, count int) string {
	return fmt.Sprintf("quiz:questions:%s:%s:%d", category, difficulty, count)
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
