package http

import (
	"log"
	"sync"

	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/domain"
)

// Hub fans bot output out to websocket clients. A target is a chat id: every
// client is subscribed to its own user id, and to any group ids it joined.
// Hub implements quiz.Notifier.
type Hub struct {
	mu      sync.RWMutex
	targets map[string]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{targets: make(map[string]map[*client]struct{})}
}

func (h *Hub) subscribe(target string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.targets[target]
	if !ok {
		set = make(map[*client]struct{})
		h.targets[target] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unsubscribeAll(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for target, set := range h.targets {
		delete(set, c)
		if len(set) == 0 {
			delete(h.targets, target)
		}
	}
}

// questionPayload is the client-facing question view. The correct answer never
// leaves the server before grading.
type questionPayload struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	Index        int      `json:"index"`
	Total        int      `json:"total"`
	TimeLimitSec int      `json:"timeLimitSec"`
}

type textPayload struct {
	Text string `json:"text"`
}

func (h *Hub) DeliverQuestion(target string, q domain.Question, index, total int) {
	h.broadcast(target, outboundMessage{Type: "question", Payload: questionPayload{
		Prompt:       q.Prompt,
		Options:      q.Options,
		Index:        index,
		Total:        total,
		TimeLimitSec: int(q.TimeLimit.Seconds()),
	}})
}

func (h *Hub) DeliverResult(target, text string) {
	h.broadcast(target, outboundMessage{Type: "message", Payload: textPayload{Text: text}})
}

func (h *Hub) broadcast(target string, msg outboundMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.targets[target] {
		select {
		case c.send <- msg:
		default:
			// A slow reader loses the message rather than stalling the round.
			log.Printf("ws send buffer full for %s, dropping %s", c.userID, msg.Type)
		}
	}
}
