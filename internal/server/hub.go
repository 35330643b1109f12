package server

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/gridspell/gridspell-server/internal/game"
	"github.com/gridspell/gridspell-server/internal/room"
)

// clientMessage is the wire envelope for player input.
type clientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// serverMessage is the wire envelope for engine output.
type serverMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// Hub routes messages between the seated players' connections and the
// room's engine session.
type Hub struct {
	room   *room.Room
	logger *zap.Logger

	mu      sync.Mutex
	clients map[string]*Client
}

func newHub(r *room.Room, logger *zap.Logger) *Hub {
	return &Hub{
		room:    r,
		logger:  logger,
		clients: make(map[string]*Client),
	}
}

// attach registers a player's connection, replacing any stale one.
func (h *Hub) attach(c *Client) {
	h.mu.Lock()
	old := h.clients[c.playerID]
	h.clients[c.playerID] = c
	h.mu.Unlock()
	if old != nil {
		old.conn.Close()
	}
}

func (h *Hub) detach(c *Client) {
	h.mu.Lock()
	if h.clients[c.playerID] == c {
		delete(h.clients, c.playerID)
	}
	h.mu.Unlock()
}

// dispatch decodes one client message and feeds it to the engine.
func (h *Hub) dispatch(c *Client, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.sendError(c, "malformed message")
		return
	}

	sess := h.room.Session()
	if sess == nil {
		h.sendError(c, "waiting for opponent")
		return
	}

	ctx := context.Background()
	var (
		results []game.Result
		err     error
	)
	switch msg.Type {
	case "ready":
		results, err = sess.MarkReady(ctx, c.playerID)
	case "mulligan":
		var body struct {
			Replace []int `json:"replace"`
		}
		if err := json.Unmarshal(msg.Data, &body); err != nil {
			h.sendError(c, "malformed mulligan")
			return
		}
		results, err = sess.SubmitMulligan(ctx, c.playerID, body.Replace)
	case "action":
		var action game.Action
		if err := json.Unmarshal(msg.Data, &action); err != nil {
			h.sendError(c, "malformed action")
			return
		}
		results, err = sess.SubmitAction(ctx, c.playerID, action)
	case "input":
		var answer game.InputAnswer
		if err := json.Unmarshal(msg.Data, &answer); err != nil {
			h.sendError(c, "malformed input")
			return
		}
		results, err = sess.SubmitInput(ctx, c.playerID, answer)
	default:
		h.sendError(c, "unknown message type")
		return
	}
	if err != nil {
		h.logger.Error("engine call failed",
			zap.String("room_id", h.room.ID),
			zap.String("player_id", c.playerID),
			zap.String("type", msg.Type),
			zap.Error(err),
		)
		h.sendError(c, "internal error")
		return
	}
	h.deliver(results)
}

// deliver fans engine results out to their addressed players.
func (h *Hub) deliver(results []game.Result) {
	for _, res := range results {
		payload := resultData(res)
		raw, err := json.Marshal(serverMessage{Type: string(res.Kind), Data: payload})
		if err != nil {
			h.logger.Error("result marshal failed", zap.String("kind", string(res.Kind)), zap.Error(err))
			continue
		}
		h.mu.Lock()
		c := h.clients[res.PlayerID]
		h.mu.Unlock()
		if c != nil {
			c.enqueue(raw)
		}
	}
}

func resultData(res game.Result) any {
	switch res.Kind {
	case game.ResultStatePatch:
		return res.Patch
	case game.ResultRequestInput:
		return res.Input
	case game.ResultAskMulligan:
		return res.Mulligan
	case game.ResultGameOver:
		return res.GameOver
	case game.ResultInvalidAction:
		return res.Invalid
	}
	return nil
}

func (h *Hub) sendError(c *Client, message string) {
	raw, _ := json.Marshal(serverMessage{Type: "error", Data: errorPayload{Message: message}})
	c.enqueue(raw)
}
