package ws_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/neuroclass/neuroclass-hub/internal/interface/ws"
)

// --- helpers ----------------------------------------------------------------

// startRelay starts a test HTTP server with the hub mounted the way the
// real server mounts it. Returns the hub and the ws:// base URL.
func startRelay(t *testing.T) (*ws.Hub, string) {
	t.Helper()

	hub := ws.New(ws.Config{HistoryLimit: 16}, nil, nil)
	mux := http.NewServeMux()
	mux.Handle("GET /ws/board/{block_id}", hub)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

// dial connects a participant to a block's board.
func dial(t *testing.T, baseURL, blockID, participantID string) *websocket.Conn {
	t.Helper()

	url := fmt.Sprintf("%s/ws/board/%s?participant=%s", baseURL, blockID, participantID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "dial %s", url)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// send writes one text message.
func send(t *testing.T, conn *websocket.Conn, msg string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
}

// recv reads one text message with a deadline.
func recv(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(msg)
}

// expectSilence asserts that no message arrives within the window.
func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err, "expected no message")
}

// waitFor polls until cond returns true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

// --- tests ------------------------------------------------------------------

func TestHub_RelaysActionsToOtherParticipants(t *testing.T) {
	_, base := startRelay(t)

	alice := dial(t, base, "block-1", "alice")
	bob := dial(t, base, "block-1", "bob")

	stroke := `{"type":"stroke","points":[[0,0],[1,1]]}`
	send(t, alice, stroke)

	require.Equal(t, stroke, recv(t, bob))
}

func TestHub_DoesNotEchoToSender(t *testing.T) {
	_, base := startRelay(t)

	alice := dial(t, base, "block-1", "alice")
	bob := dial(t, base, "block-1", "bob")

	send(t, alice, `{"type":"stroke","n":1}`)
	require.Equal(t, `{"type":"stroke","n":1}`, recv(t, bob))

	expectSilence(t, alice)
}

func TestHub_LateJoinerGetsHistoryBeforeLiveActions(t *testing.T) {
	hub, base := startRelay(t)

	alice := dial(t, base, "block-1", "alice")
	send(t, alice, `{"type":"stroke","n":1}`)
	send(t, alice, `{"type":"stroke","n":2}`)
	waitFor(t, func() bool { return hub.HistoryLen("block-1") == 2 })

	bob := dial(t, base, "block-1", "bob")
	send(t, alice, `{"type":"stroke","n":3}`)

	// Bob sees the full board in original order, replay strictly before
	// anything sent after his join.
	require.Equal(t, `{"type":"stroke","n":1}`, recv(t, bob))
	require.Equal(t, `{"type":"stroke","n":2}`, recv(t, bob))
	require.Equal(t, `{"type":"stroke","n":3}`, recv(t, bob))
}

func TestHub_ClearWipesReplayableHistory(t *testing.T) {
	hub, base := startRelay(t)

	alice := dial(t, base, "block-1", "alice")
	send(t, alice, `{"type":"stroke","n":1}`)
	send(t, alice, `{"type":"clear"}`)
	waitFor(t, func() bool { return hub.HistoryLen("block-1") == 0 })

	bob := dial(t, base, "block-1", "bob")
	expectSilence(t, bob)
}

func TestHub_ClearIsRelayedLive(t *testing.T) {
	_, base := startRelay(t)

	alice := dial(t, base, "block-1", "alice")
	bob := dial(t, base, "block-1", "bob")

	send(t, alice, `{"type":"clear"}`)
	require.Equal(t, `{"type":"clear"}`, recv(t, bob))
}

func TestHub_MalformedActionIsDroppedWithoutDisconnect(t *testing.T) {
	hub, base := startRelay(t)

	alice := dial(t, base, "block-1", "alice")
	bob := dial(t, base, "block-1", "bob")

	send(t, alice, `not json at all`)
	send(t, alice, `{"no_type_field":true}`)
	send(t, alice, `{"type":"stroke","n":1}`)

	// Only the valid stroke comes through, and alice is still connected.
	require.Equal(t, `{"type":"stroke","n":1}`, recv(t, bob))
	require.Equal(t, 1, hub.HistoryLen("block-1"))
	require.Equal(t, 2, hub.ParticipantCount("block-1"))
}

func TestHub_BoardsAreIsolatedPerBlock(t *testing.T) {
	_, base := startRelay(t)

	alice := dial(t, base, "block-1", "alice")
	other := dial(t, base, "block-2", "carol")

	send(t, alice, `{"type":"stroke","n":1}`)
	expectSilence(t, other)
}

func TestHub_DisconnectDoesNotAffectOthers(t *testing.T) {
	hub, base := startRelay(t)

	alice := dial(t, base, "block-1", "alice")
	bob := dial(t, base, "block-1", "bob")
	carol := dial(t, base, "block-1", "carol")

	require.NoError(t, bob.Close())
	waitFor(t, func() bool { return hub.ParticipantCount("block-1") == 2 })

	send(t, alice, `{"type":"stroke","n":1}`)
	require.Equal(t, `{"type":"stroke","n":1}`, recv(t, carol))
}

func TestHub_HistoryIsCappedAtLimit(t *testing.T) {
	hub, base := startRelay(t)

	alice := dial(t, base, "block-1", "alice")
	for i := 0; i < 20; i++ {
		send(t, alice, fmt.Sprintf(`{"type":"stroke","n":%d}`, i))
	}
	waitFor(t, func() bool { return hub.HistoryLen("block-1") == 16 })

	// Replay starts at the oldest retained action.
	bob := dial(t, base, "block-1", "bob")
	require.Equal(t, `{"type":"stroke","n":4}`, recv(t, bob))
}

func TestHub_SweepIdleRemovesOnlyEmptyStaleBoards(t *testing.T) {
	hub, base := startRelay(t)

	alice := dial(t, base, "block-live", "alice")
	send(t, alice, `{"type":"stroke","n":1}`)
	waitFor(t, func() bool { return hub.HistoryLen("block-live") == 1 })

	ghost := dial(t, base, "block-ghost", "bob")
	require.NoError(t, ghost.Close())
	waitFor(t, func() bool { return hub.ParticipantCount("block-ghost") == 0 })

	time.Sleep(20 * time.Millisecond)
	removed := hub.SweepIdle(10 * time.Millisecond)

	require.Equal(t, 1, removed)
	require.Equal(t, 1, hub.BoardCount())
	require.Equal(t, 1, hub.ParticipantCount("block-live"))
}
