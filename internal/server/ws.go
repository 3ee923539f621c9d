package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/freestyler/internal/bars"
	"github.com/ziadkadry99/freestyler/internal/freestyle"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	Topic   string `json:"topic"`
	Persona string `json:"persona"`
	Prompt  string `json:"prompt,omitempty"`
}

// wsMessage is the outgoing WebSocket message format.
type wsMessage struct {
	Type         string   `json:"type"` // "chunk", "bars", "done" or "error"
	GenerationID string   `json:"generation_id,omitempty"`
	Content      string   `json:"content,omitempty"`
	Bars         []string `json:"bars,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read", zap.Error(err))
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.send(conn, wsMessage{Type: "error", Content: "invalid message format"})
			continue
		}
		if strings.TrimSpace(req.Persona) == "" && strings.TrimSpace(req.Prompt) == "" {
			req.Persona = s.svc.Catalog().Default().Name
		}

		if err := s.runSocketGeneration(r.Context(), conn, req); err != nil {
			// The connection is gone; nothing more to send.
			return
		}
	}
}

// runSocketGeneration streams one generation over conn. It returns an
// error only when writing to the socket fails.
func (s *Server) runSocketGeneration(ctx context.Context, conn *websocket.Conn, req wsRequest) error {
	p, err := s.svc.Prepare(freestyle.Request{Prompt: req.Prompt, Topic: req.Topic, Persona: req.Persona})
	if err != nil {
		return s.send(conn, wsMessage{Type: "error", Content: err.Error()})
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	id := uuid.New().String()
	var pushed []string
	res, err := s.svc.Stream(ctx, p, nil, freestyle.StreamOptions{
		ID: id,
		OnChunk: func(chunk string, acc *bars.Accumulator) error {
			if err := s.send(conn, wsMessage{Type: "chunk", GenerationID: id, Content: chunk}); err != nil {
				return err
			}
			settled := acc.SettledBars()
			if bars.Equal(settled, pushed) {
				return nil
			}
			pushed = settled
			return s.send(conn, wsMessage{Type: "bars", GenerationID: id, Bars: settled})
		},
	})
	if err != nil {
		if werr := s.send(conn, wsMessage{Type: "error", GenerationID: id, Content: err.Error()}); werr != nil {
			return werr
		}
		return nil
	}
	return s.send(conn, wsMessage{Type: "done", GenerationID: res.ID, Content: res.Text, Bars: res.Bars})
}

func (s *Server) send(conn *websocket.Conn, m wsMessage) error {
	if err := conn.WriteJSON(m); err != nil {
		s.logger.Warn("websocket write", zap.String("type", m.Type), zap.Error(err))
		return err
	}
	return nil
}
