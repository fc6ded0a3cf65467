package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/domain"
	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/quiz"
)

// WSHandler bridges websocket chat clients to the quiz engines. Each
// connection speaks typed JSON messages; bot output reaches clients through
// the Hub.
type WSHandler struct {
	sessions   *quiz.SessionEngine
	challenges *quiz.ChallengeEngine
	hub        *Hub
	upgrader   websocket.Upgrader
}

func NewWSHandler(sessions *quiz.SessionEngine, challenges *quiz.ChallengeEngine, hub *Hub) *WSHandler {
	return &WSHandler{
		sessions:   sessions,
		challenges: challenges,
		hub:        hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type client struct {
	userID string
	name   string
	send   chan outboundMessage
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type joinPayload struct {
	GroupID string `json:"groupId"`
}

type startQuizPayload struct {
	GroupID    string `json:"groupId"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
	Questions  int    `json:"questions"`
}

type stopQuizPayload struct {
	GroupID string `json:"groupId"`
}

type answerPayload struct {
	GroupID string `json:"groupId"`
	Option  int    `json:"option"`
}

type answerResult struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
	Points        int    `json:"points"`
	TotalScore    int    `json:"totalScore"`
	Duplicate     bool   `json:"duplicate,omitempty"`
	Ignored       bool   `json:"ignored,omitempty"`
}

type challengePayload struct {
	OpponentID   string `json:"opponentId"`
	OpponentName string `json:"opponentName"`
	Category     string `json:"category"`
	Difficulty   string `json:"difficulty"`
}

type respondPayload struct {
	ChallengeID string `json:"challengeId"`
	Accept      bool   `json:"accept"`
}

type challengeAnswerPayload struct {
	ChallengeID string `json:"challengeId"`
	Option      int    `json:"option"`
}

type statusPayload struct {
	GroupID     string `json:"groupId"`
	ChallengeID string `json:"challengeId"`
}

// ServeWS upgrades the request and runs the read loop. Writes go through a
// single writer goroutine per connection; gorilla forbids concurrent writers.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	name := r.URL.Query().Get("name")
	if userID == "" || name == "" {
		http.Error(w, "missing userId or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	c := &client{userID: userID, name: name, send: make(chan outboundMessage, 32)}
	h.hub.subscribe(userID, c)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range c.send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error for %s: %v", userID, err)
				return
			}
		}
	}()

	c.send <- outboundMessage{Type: "connected", Payload: map[string]string{"userId": userID}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r.Context(), c, inbound)
	}

	// Unsubscribe before closing send: broadcast holds the hub lock while it
	// writes, so once unsubscribeAll returns no broadcaster can still reach
	// this channel.
	h.hub.unsubscribeAll(c)
	close(c.send)
	<-writerDone
}

func (h *WSHandler) dispatch(ctx context.Context, c *client, msg inboundMessage) {
	switch msg.Type {
	case "join":
		var p joinPayload
		if !h.decode(c, msg.Payload, &p) {
			return
		}
		h.hub.subscribe(p.GroupID, c)
		c.send <- outboundMessage{Type: "joined", Payload: map[string]string{"groupId": p.GroupID}}

	case "startQuiz":
		var p startQuizPayload
		if !h.decode(c, msg.Payload, &p) {
			return
		}
		s, err := h.sessions.Start(ctx, p.GroupID, c.userID, p.Category, domain.Difficulty(p.Difficulty), p.Questions)
		if err != nil {
			h.sendError(c, err)
			return
		}
		c.send <- outboundMessage{Type: "quizStarted", Payload: s.Status()}
		if err := h.sessions.Advance(ctx, s.ID()); err != nil {
			h.sendError(c, err)
		}

	case "stopQuiz":
		var p stopQuizPayload
		if !h.decode(c, msg.Payload, &p) {
			return
		}
		if err := h.sessions.Stop(ctx, p.GroupID, c.userID); err != nil {
			h.sendError(c, err)
		}

	case "answer":
		var p answerPayload
		if !h.decode(c, msg.Payload, &p) {
			return
		}
		s, ok := h.sessions.SessionByGroup(p.GroupID)
		if !ok {
			h.sendError(c, domain.ErrSessionNotFound)
			return
		}
		out, err := h.sessions.SubmitAnswer(ctx, s.ID(), c.userID, c.name, p.Option)
		if err != nil {
			h.sendError(c, err)
			return
		}
		c.send <- outboundMessage{Type: "answerResult", Payload: toAnswerResult(out)}

	case "challenge":
		var p challengePayload
		if !h.decode(c, msg.Payload, &p) {
			return
		}
		ch, err := h.challenges.Propose(ctx, c.userID, c.name, p.OpponentID, p.OpponentName, p.Category, domain.Difficulty(p.Difficulty))
		if err != nil {
			h.sendError(c, err)
			return
		}
		c.send <- outboundMessage{Type: "challengeCreated", Payload: ch.Snapshot()}

	case "respond":
		var p respondPayload
		if !h.decode(c, msg.Payload, &p) {
			return
		}
		if err := h.challenges.Respond(ctx, p.ChallengeID, c.userID, p.Accept); err != nil {
			h.sendError(c, err)
		}

	case "challengeAnswer":
		var p challengeAnswerPayload
		if !h.decode(c, msg.Payload, &p) {
			return
		}
		out, err := h.challenges.SubmitAnswer(ctx, p.ChallengeID, c.userID, p.Option)
		if err != nil {
			h.sendError(c, err)
			return
		}
		c.send <- outboundMessage{Type: "answerResult", Payload: toAnswerResult(out)}

	case "status":
		var p statusPayload
		if !h.decode(c, msg.Payload, &p) {
			return
		}
		if p.ChallengeID != "" {
			ch, ok := h.challenges.ChallengeByID(p.ChallengeID)
			if !ok {
				h.sendError(c, domain.ErrChallengeNotFound)
				return
			}
			c.send <- outboundMessage{Type: "challengeStatus", Payload: ch.Snapshot()}
			return
		}
		s, ok := h.sessions.SessionByGroup(p.GroupID)
		if !ok {
			h.sendError(c, domain.ErrSessionNotFound)
			return
		}
		c.send <- outboundMessage{Type: "quizStatus", Payload: s.Status()}

	default:
		c.send <- outboundMessage{Type: "error", Payload: errorPayload{Code: "bad_request", Message: "unsupported message type"}}
	}
}

func (h *WSHandler) decode(c *client, raw json.RawMessage, into any) bool {
	if err := json.Unmarshal(raw, into); err != nil {
		c.send <- outboundMessage{Type: "error", Payload: errorPayload{Code: "bad_request", Message: "invalid payload"}}
		return false
	}
	return true
}

func (h *WSHandler) sendError(c *client, err error) {
	c.send <- outboundMessage{Type: "error", Payload: errorPayload{Code: errorCode(err), Message: err.Error()}}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrPermission):
		return "permission"
	case errors.Is(err, domain.ErrProvider):
		return "provider"
	default:
		return "internal"
	}
}

func toAnswerResult(out quiz.AnswerOutcome) answerResult {
	res := answerResult{
		Correct:    out.Correct,
		Points:     out.Points,
		TotalScore: out.TotalScore,
		Duplicate:  out.Duplicate,
		Ignored:    out.Ignored,
	}
	if !out.Ignored {
		res.CorrectAnswer = out.CorrectAnswer
	}
	return res
}
