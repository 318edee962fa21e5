// Package ws runs live board sessions over a websocket. Each connection owns
// one story board: the client streams pointer events, the server runs the
// gesture and pan state machines and streams back the resulting state, and a
// committed connection gesture lands in the story as a new relationship.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/andreaspandu8619/mastercreator/internal/board"
	"github.com/andreaspandu8619/mastercreator/internal/service"
	apperrors "github.com/andreaspandu8619/mastercreator/pkg/errors"
	"github.com/andreaspandu8619/mastercreator/pkg/logger"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Pointer events are tiny; anything bigger is a broken client
	maxMessageSize = 8 * 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// Event is one message in either direction.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type pointerPayload struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	CharacterID string  `json:"characterId"`
}

// boardState is pushed to the client after every event that changed
// something.
type boardState struct {
	Connecting  bool        `json:"connecting"`
	FromID      string      `json:"fromId,omitempty"`
	SnapTargetID string     `json:"snapTargetId,omitempty"`
	Cursor      board.Point `json:"cursor"`
	Pan         board.Point `json:"pan"`
}

// Handler upgrades board session requests.
type Handler struct {
	stories *service.Stories
	log     *logger.Logger
}

// NewHandler builds the board session handler.
func NewHandler(stories *service.Stories, log *logger.Logger) *Handler {
	return &Handler{stories: stories, log: log.WithComponent("board-session")}
}

// Serve upgrades the connection and runs a session for the story in the
// path. Unknown stories are rejected before the upgrade.
func (h *Handler) Serve(c *gin.Context) {
	storyID := c.Param("id")
	if _, ok := h.stories.Get(storyID); !ok {
		c.Error(apperrors.NewEntityNotFoundError("story", storyID))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.LogError(err, "websocket upgrade failed", "story", storyID)
		return
	}

	id := uuid.New().String()
	s := &session{
		id:      id,
		conn:    conn,
		send:    make(chan []byte, 16),
		storyID: storyID,
		stories: h.stories,
		log:     h.log.WithFields("session", id[:8], "story", storyID),
	}
	go s.writePump()
	s.readPump(c.Request.Context())
}

// session is the per-connection state. The gesture and panner are owned by
// the read pump and never shared, so they need no locking; the send channel
// decouples them from the writer.
type session struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	storyID string
	stories *service.Stories
	gesture board.Gesture
	panner  board.Panner
	log     *logger.Logger

	closeOnce sync.Once
}

func (s *session) readPump(ctx context.Context) {
	defer func() {
		// A dropped connection is an abnormal termination for the live
		// gesture: cancel unconditionally, leaving nothing half-connected.
		s.gesture.Cancel()
		s.panner.End()
		s.close()
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Warn("board session read error", "error", err.Error())
			}
			return
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			s.log.Warn("dropping unreadable board event")
			continue
		}
		s.handle(ctx, ev)
	}
}

func (s *session) handle(ctx context.Context, ev Event) {
	var p pointerPayload
	if len(ev.Payload) > 0 {
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			s.log.Warn("dropping board event with bad payload", "type", ev.Type)
			return
		}
	}

	switch ev.Type {
	case "press":
		s.gesture.Press(p.CharacterID)
	case "move":
		story, ok := s.stories.Get(s.storyID)
		if !ok {
			return
		}
		s.gesture.Move(board.Point{X: p.X, Y: p.Y}, s.panner.Offset(), story.BoardNodes)
	case "release":
		if draft, ok := s.gesture.Release(); ok {
			s.commit(ctx, draft)
		}
	case "release_on":
		if draft, ok := s.gesture.ReleaseOn(p.CharacterID); ok {
			s.commit(ctx, draft)
		}
	case "cancel":
		s.gesture.Cancel()
	case "pan_start":
		s.panner.Start(board.Point{X: p.X, Y: p.Y})
	case "pan_move":
		s.panner.Move(board.Point{X: p.X, Y: p.Y})
	case "pan_end":
		s.panner.End()
	case "place":
		if _, err := s.stories.PlaceNode(ctx, s.storyID, p.CharacterID, p.X, p.Y); err != nil {
			s.sendError(err)
			return
		}
	case "ping":
		s.sendEvent("pong", nil)
		return
	default:
		s.log.Warn("unknown board event", "type", ev.Type)
		return
	}

	s.sendEvent("state", boardState{
		Connecting:   s.gesture.Connecting(),
		FromID:       s.gesture.FromID(),
		SnapTargetID: s.gesture.SnapTargetID(),
		Cursor:       s.gesture.Cursor(),
		Pan:          s.panner.Offset(),
	})
}

// commit turns a resolved gesture into a stored relationship and announces
// it, so the client can open the edge editor pre-filled.
func (s *session) commit(ctx context.Context, draft board.EdgeDraft) {
	story, err := s.stories.AddRelationship(ctx, s.storyID, map[string]any{
		"fromCharacterId": draft.FromCharacterID,
		"toCharacterId":   draft.ToCharacterID,
	})
	if err != nil {
		s.sendError(err)
		return
	}
	rel := story.Relationships[len(story.Relationships)-1]
	s.sendEvent("edge_committed", rel)
}

func (s *session) sendEvent(eventType string, payload any) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			s.log.LogError(err, "could not marshal board event", "type", eventType)
			return
		}
		raw = data
	}
	data, err := json.Marshal(Event{Type: eventType, Payload: raw})
	if err != nil {
		return
	}
	select {
	case s.send <- data:
	default:
		s.log.Warn("board session send buffer full, dropping event", "type", eventType)
	}
}

func (s *session) sendError(err error) {
	appErr := apperrors.FromError(err)
	s.sendEvent("error", gin.H{"code": appErr.Code, "message": appErr.Message})
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() { close(s.send) })
}
