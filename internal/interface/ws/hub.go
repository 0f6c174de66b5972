package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/neuroclass/neuroclass-hub/pkg/logger"
)

const (
	// writeTimeout is the deadline for a single write to a participant.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds a single inbound drawing action.
	maxMessageSize = 4096

	// sendSlack is the extra per-participant buffer depth on top of the
	// history limit, so a freshly replayed participant can still absorb a
	// burst of live actions.
	sendSlack = 64

	// DefaultHistoryLimit caps the per-board action history. Boards with
	// more strokes than this between clears lose the oldest ones from
	// replay; live delivery is unaffected.
	DefaultHistoryLimit = 2048
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins; callers should apply CORS at the reverse-proxy level.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Presence mirrors board join/leave to an external tracker (Redis).
// A nil Presence disables tracking.
type Presence interface {
	Joined(ctx context.Context, blockID, participantID string) error
	Left(ctx context.Context, blockID, participantID string) error
}

// Config contains hub tunables.
type Config struct {
	// HistoryLimit caps per-board history (defaults to DefaultHistoryLimit).
	HistoryLimit int
}

// Hub is the board relay: it owns one board per lesson block, fans out
// drawing actions to every participant of the block, and replays the
// board's history to late joiners.
//
// Boards are fully independent: each owns its own mutex, so contention on
// one block's board never blocks another block.
type Hub struct {
	config   Config
	log      *logger.Logger
	presence Presence

	mu     sync.RWMutex
	boards map[string]*board
}

// board is the per-block relay state: the registered participants and the
// ordered action history since the last clear.
type board struct {
	id string

	mu           sync.Mutex
	participants map[*participant]struct{}
	history      [][]byte
	lastActivity time.Time
}

// participant represents one connected endpoint (student or teacher client).
type participant struct {
	id    string
	conn  *websocket.Conn
	send  chan []byte
	close sync.Once
}

// closeSend closes the participant's outgoing channel exactly once.
func (p *participant) closeSend() {
	p.close.Do(func() { close(p.send) })
}

// New creates a Hub.
func New(config Config, presence Presence, log *logger.Logger) *Hub {
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = DefaultHistoryLimit
	}
	if log == nil {
		log = logger.Default()
	}
	return &Hub{
		config:   config,
		log:      log.With(logger.Component("board_relay")),
		presence: presence,
		boards:   make(map[string]*board),
	}
}

// ServeHTTP upgrades the connection and serves one participant on the board
// of the block named by the {block_id} path segment. The full board history
// is delivered before any live action. Blocks until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	blockID := r.PathValue("block_id")
	if blockID == "" {
		http.Error(w, "missing block id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	participantID := r.URL.Query().Get("participant")
	if participantID == "" {
		participantID = uuid.NewString()
	}

	b := h.board(blockID)
	p := &participant{
		id:   participantID,
		conn: conn,
		send: make(chan []byte, h.config.HistoryLimit+sendSlack),
	}

	b.join(p)
	h.log.Debug("participant joined",
		logger.BlockID(blockID), logger.ParticipantID(participantID))
	if h.presence != nil {
		if err := h.presence.Joined(r.Context(), blockID, participantID); err != nil {
			h.log.Warn("presence join failed", logger.BlockID(blockID), logger.Err(err))
		}
	}

	defer func() {
		b.leave(p)
		h.log.Debug("participant left",
			logger.BlockID(blockID), logger.ParticipantID(participantID))
		if h.presence != nil {
			if err := h.presence.Left(context.Background(), blockID, participantID); err != nil {
				h.log.Warn("presence leave failed", logger.BlockID(blockID), logger.Err(err))
			}
		}
	}()

	go p.writePump()
	h.readPump(b, p) // blocks until the connection closes
}

// ParticipantCount returns the number of participants on a block's board.
func (h *Hub) ParticipantCount(blockID string) int {
	h.mu.RLock()
	b, ok := h.boards[blockID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.participants)
}

// HistoryLen returns the number of replayable actions on a block's board.
func (h *Hub) HistoryLen(blockID string) int {
	h.mu.RLock()
	b, ok := h.boards[blockID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.history)
}

// BoardCount returns the number of boards currently held in memory.
func (h *Hub) BoardCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.boards)
}

// SweepIdle removes boards that have no participants and have seen no
// activity for at least maxIdle. Returns the number of boards removed.
// Boards normally live for the whole process; the sweep is an opt-in
// scheduler job for long-running deployments.
func (h *Hub) SweepIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	h.mu.Lock()
	defer h.mu.Unlock()

	removed := 0
	for id, b := range h.boards {
		b.mu.Lock()
		idle := len(b.participants) == 0 && b.lastActivity.Before(cutoff)
		b.mu.Unlock()
		if idle {
			delete(h.boards, id)
			removed++
		}
	}
	if removed > 0 {
		h.log.Info("swept idle boards", logger.Int("removed", removed))
	}
	return removed
}

// --- internal ---------------------------------------------------------------

// board returns the board for a block, creating it on first connect.
func (h *Hub) board(blockID string) *board {
	h.mu.RLock()
	b, ok := h.boards[blockID]
	h.mu.RUnlock()
	if ok {
		return b
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok := h.boards[blockID]; ok {
		return b
	}
	b = &board{
		id:           blockID,
		participants: make(map[*participant]struct{}),
		lastActivity: time.Now(),
	}
	h.boards[blockID] = b
	return b
}

// join registers a participant and replays the board history to them.
// Registration and replay happen under the board lock, and the send
// channel is FIFO, so every historical action is delivered before any
// action broadcast after the join.
func (b *board) join(p *participant) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.participants[p] = struct{}{}
	b.lastActivity = time.Now()
	for _, msg := range b.history {
		// The buffer is sized past the history cap, so this cannot block.
		select {
		case p.send <- msg:
		default:
		}
	}
}

// leave removes a participant. The board history stays untouched: a board
// outlives all of its participants.
func (b *board) leave(p *participant) {
	b.mu.Lock()
	if _, ok := b.participants[p]; ok {
		delete(b.participants, p)
		b.lastActivity = time.Now()
	}
	b.mu.Unlock()
	p.closeSend()
}

// receive applies one inbound action: update history and fan it out to
// every other participant in hub receipt order.
func (b *board) receive(from *participant, raw []byte, historyLimit int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastActivity = time.Now()

	var act struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &act); err != nil || act.Type == "" {
		// Malformed action: reject this message only, the channel stays up.
		return
	}

	if act.Type == "clear" {
		// A clear wipes the replayable state and is not itself replayed:
		// later joiners see a blank board, not a clear instruction.
		b.history = nil
	} else {
		b.history = append(b.history, raw)
		if len(b.history) > historyLimit {
			b.history = b.history[len(b.history)-historyLimit:]
		}
	}

	for p := range b.participants {
		if p == from {
			continue
		}
		select {
		case p.send <- raw:
		default:
			// Participant's outgoing buffer is full: disconnect it so a
			// stalled transport never delays the others.
			delete(b.participants, p)
			p.closeSend()
		}
	}
}

// readPump reads actions from the connection and feeds them to the board.
// Blocks until the connection closes; any read error counts as a
// disconnect.
func (h *Hub) readPump(b *board, p *participant) {
	defer p.conn.Close()
	p.conn.SetReadLimit(maxMessageSize)
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		p.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		kind, raw, err := p.conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		b.receive(p, raw, h.config.HistoryLimit)
	}
}

// writePump drains the participant's send channel and forwards actions to
// the WebSocket connection. It also sends periodic ping frames. Runs in
// its own goroutine per participant.
func (p *participant) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Channel was closed (participant removed).
				p.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
