package ws

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreaspandu8619/mastercreator/internal/service"
	"github.com/andreaspandu8619/mastercreator/internal/store"
	apperrors "github.com/andreaspandu8619/mastercreator/pkg/errors"
	"github.com/andreaspandu8619/mastercreator/pkg/logger"
)

func newBoardServer(t *testing.T) (*service.Stories, string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.New(logger.Config{Level: "error", Output: io.Discard})
	stories := newTestStories(t, log)

	p, err := stories.Save(context.Background(), map[string]any{
		"title":        "Board Session",
		"characterIds": []any{"a", "b"},
		"boardNodes": []any{
			map[string]any{"characterId": "a", "x": 0.0, "y": 0.0},
			map[string]any{"characterId": "b", "x": 30.0, "y": 0.0},
		},
	})
	require.NoError(t, err)

	h := NewHandler(stories, log)
	r := gin.New()
	r.Use(apperrors.ErrorHandler())
	r.GET("/ws/stories/:id/board", h.Serve)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return stories, p.ID, srv.URL
}

func newTestStories(t *testing.T, log *logger.Logger) *service.Stories {
	t.Helper()
	stories := service.NewStories(store.NewMemoryStore(), nil, log)
	require.NoError(t, stories.Init(context.Background()))
	return stories
}

func dialBoard(t *testing.T, baseURL, storyID string) *websocket.Conn {
	t.Helper()
	url := strings.Replace(baseURL, "http", "ws", 1) + "/ws/stories/" + storyID + "/board"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, eventType string, payload any) {
	t.Helper()
	ev := Event{Type: eventType}
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		ev.Payload = data
	}
	require.NoError(t, conn.WriteJSON(ev))
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func readState(t *testing.T, conn *websocket.Conn) boardState {
	t.Helper()
	ev := readEvent(t, conn)
	require.Equal(t, "state", ev.Type)
	var st boardState
	require.NoError(t, json.Unmarshal(ev.Payload, &st))
	return st
}

func TestSessionConnectGesture(t *testing.T) {
	stories, storyID, url := newBoardServer(t)
	conn := dialBoard(t, url, storyID)

	sendEvent(t, conn, "press", map[string]any{"characterId": "a"})
	st := readState(t, conn)
	assert.True(t, st.Connecting)
	assert.Equal(t, "a", st.FromID)

	// Cursor lands exactly on b's anchor, so the indicator snaps.
	sendEvent(t, conn, "move", map[string]any{"x": 30.0, "y": 0.0})
	st = readState(t, conn)
	assert.Equal(t, "b", st.SnapTargetID)
	assert.Equal(t, 30.0, st.Cursor.X)

	sendEvent(t, conn, "release", nil)
	ev := readEvent(t, conn)
	require.Equal(t, "edge_committed", ev.Type)
	assert.Contains(t, string(ev.Payload), `"fromCharacterId":"a"`)
	assert.Contains(t, string(ev.Payload), `"toCharacterId":"b"`)

	st = readState(t, conn)
	assert.False(t, st.Connecting)
	assert.Empty(t, st.FromID)

	// The committed edge is in the story.
	p, ok := stories.Get(storyID)
	require.True(t, ok)
	require.Len(t, p.Relationships, 1)
	assert.Equal(t, "a", p.Relationships[0].FromCharacterID)
	assert.Equal(t, "b", p.Relationships[0].ToCharacterID)
}

func TestSessionReleaseOutsideSnapDiscards(t *testing.T) {
	stories, storyID, url := newBoardServer(t)
	conn := dialBoard(t, url, storyID)

	sendEvent(t, conn, "press", map[string]any{"characterId": "a"})
	readState(t, conn)

	// 100px from b: out of snap range.
	sendEvent(t, conn, "move", map[string]any{"x": 100.0, "y": 0.0})
	st := readState(t, conn)
	assert.Empty(t, st.SnapTargetID)

	sendEvent(t, conn, "release", nil)
	st = readState(t, conn)
	assert.False(t, st.Connecting)

	p, _ := stories.Get(storyID)
	assert.Empty(t, p.Relationships)
}

func TestSessionCancel(t *testing.T) {
	_, storyID, url := newBoardServer(t)
	conn := dialBoard(t, url, storyID)

	sendEvent(t, conn, "press", map[string]any{"characterId": "a"})
	readState(t, conn)

	sendEvent(t, conn, "cancel", nil)
	st := readState(t, conn)
	assert.False(t, st.Connecting)
	assert.Empty(t, st.FromID)
	assert.Empty(t, st.SnapTargetID)
}

func TestSessionPanOffsetsCursor(t *testing.T) {
	_, storyID, url := newBoardServer(t)
	conn := dialBoard(t, url, storyID)

	sendEvent(t, conn, "pan_start", map[string]any{"x": 0.0, "y": 0.0})
	readState(t, conn)
	sendEvent(t, conn, "pan_move", map[string]any{"x": 10.0, "y": 5.0})
	st := readState(t, conn)
	assert.Equal(t, 10.0, st.Pan.X)
	assert.Equal(t, 5.0, st.Pan.Y)
	sendEvent(t, conn, "pan_end", nil)
	readState(t, conn)

	// View position minus the pan offset lands on b's anchor.
	sendEvent(t, conn, "press", map[string]any{"characterId": "a"})
	readState(t, conn)
	sendEvent(t, conn, "move", map[string]any{"x": 40.0, "y": 5.0})
	st = readState(t, conn)
	assert.Equal(t, "b", st.SnapTargetID)
}

func TestSessionPlaceNode(t *testing.T) {
	stories, storyID, url := newBoardServer(t)
	conn := dialBoard(t, url, storyID)

	sendEvent(t, conn, "place", map[string]any{"characterId": "c", "x": 50.0, "y": 60.0})
	readState(t, conn)

	p, ok := stories.Get(storyID)
	require.True(t, ok)
	node, ok := p.Node("c")
	require.True(t, ok)
	assert.Equal(t, 50.0, node.X)
	assert.Equal(t, 60.0, node.Y)
}

func TestSessionUnknownStory(t *testing.T) {
	_, _, url := newBoardServer(t)
	wsURL := strings.Replace(url, "http", "ws", 1) + "/ws/stories/ghost/board"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 404, resp.StatusCode)
}
