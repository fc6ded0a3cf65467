package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/domain"
)

// DefaultBaseURL is the Open Trivia Database endpoint.
const DefaultBaseURL = "https://opentdb.com/api.php"

// categoryIDs maps the bot's category names onto opentdb category ids.
var categoryIDs = map[string]int{
	"science":    17,
	"history":    23,
	"geography":  22,
	"sports":     21,
	"movies":     11,
	"music":      12,
	"literature": 10,
	"art":        25,
	"technology": 18,
	"animals":    27,
	"space":      17,
	"food":       9,
}

// Client fetches multiple-choice questions from the Open Trivia Database.
// Responses are requested RFC 3986 encoded so prompts survive transport intact.
type Client struct {
	baseURL string
	http    *http.Client
	rnd     *rand.Rand
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type apiResponse struct {
	ResponseCode int         `json:"response_code"`
	Results      []apiResult `json:"results"`
}

type apiResult struct {
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
}

// Fetch requests count questions and grades them for the given difficulty.
// Option order is shuffled here, once; it is fixed from then on because answer
// indices must map 1:1 back to the stored options.
func (c *Client) Fetch(ctx context.Context, category string, difficulty domain.Difficulty, count int) ([]domain.Question, error) {
	id, ok := categoryIDs[strings.ToLower(category)]
	if !ok {
		return nil, fmt.Errorf("unknown category %q", category)
	}

	params := url.Values{}
	params.Set("amount", strconv.Itoa(count))
	params.Set("category", strconv.Itoa(id))
	params.Set("difficulty", string(difficulty))
	params.Set("type", "multiple")
	params.Set("encode", "url3986")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch questions: unexpected status %s", resp.Status)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.ResponseCode != 0 || len(payload.Results) == 0 {
		return nil, fmt.Errorf("no questions found (response code %d)", payload.ResponseCode)
	}

	questions := make([]domain.Question, 0, len(payload.Results))
	for _, r := range payload.Results {
		q, err := c.toQuestion(r, difficulty)
		if err != nil {
			// Skip malformed entries; the caller decides whether the
			// shortfall is fatal.
			continue
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (c *Client) toQuestion(r apiResult, difficulty domain.Difficulty) (domain.Question, error) {
	prompt, err := url.QueryUnescape(r.Question)
	if err != nil {
		return domain.Question{}, fmt.Errorf("decode prompt: %w", err)
	}
	correct, err := url.QueryUnescape(r.CorrectAnswer)
	if err != nil {
		return domain.Question{}, fmt.Errorf("decode answer: %w", err)
	}

	options := make([]string, 0, len(r.IncorrectAnswers)+1)
	for _, raw := range r.IncorrectAnswers {
		opt, err := url.QueryUnescape(raw)
		if err != nil {
			return domain.Question{}, fmt.Errorf("decode option: %w", err)
		}
		options = append(options, opt)
	}
	options = append(options, correct)
	c.rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	return domain.Question{
		Prompt:        prompt,
		Options:       options,
		CorrectAnswer: correct,
		Points:        difficulty.BasePoints(),
	}, nil
}
