package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/highscan/internal/contracts"
	"github.com/wonny/highscan/internal/screening"
	"github.com/wonny/highscan/pkg/logger"
)

const (
	wsPingInterval = 45 * time.Second
	wsReadTimeout  = 90 * time.Second
	wsClientBuffer = 256
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// StatusMessage greets a new subscriber
type StatusMessage struct {
	Type string `json:"type"` // "status"
	Text string `json:"text"`
}

// ProgressMessage is one screening progress update
type ProgressMessage struct {
	Type       string                `json:"type"` // "progress"
	Processed  int                   `json:"processed"`
	Total      int                   `json:"total"`
	Passed     int                   `json:"passed"`
	Rejected   int                   `json:"rejected"`
	Failed     int                   `json:"failed"`
	Code       string                `json:"stock_code"`
	State      contracts.TickerState `json:"state"`
	RejectedBy string                `json:"rejected_by,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	out  chan interface{}
	done chan struct{}
}

// ProgressHub fans screening progress out to websocket subscribers.
// Slow subscribers drop messages instead of stalling the run.
// ⭐ SSOT: 실시간 진행률 전송은 여기서만
type ProgressHub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	last    *ProgressMessage
	logger  *logger.Logger
}

// NewProgressHub creates an empty hub
func NewProgressHub(log *logger.Logger) *ProgressHub {
	if log == nil {
		log = logger.Nop()
	}
	return &ProgressHub{
		clients: make(map[*wsClient]struct{}),
		logger:  log,
	}
}

// Publish broadcasts p (usable as a screening.ProgressFunc)
func (h *ProgressHub) Publish(p screening.Progress) {
	msg := ProgressMessage{
		Type:       "progress",
		Processed:  p.Processed,
		Total:      p.Total,
		Passed:     p.Passed,
		Rejected:   p.Rejected,
		Failed:     p.Failed,
		Code:       p.Last.Code,
		State:      p.Last.State,
		RejectedBy: p.Last.RejectedBy,
	}

	h.mu.Lock()
	h.last = &msg
	h.mu.Unlock()

	h.broadcast(msg)
}

// Clients returns the number of connected subscribers
func (h *ProgressHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *ProgressHub) broadcast(v interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.out <- v:
		default:
		}
	}
}

// Serve upgrades the request and streams progress until the peer leaves
// GET /ws/progress
func (h *ProgressHub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	cl := &wsClient{conn: conn, out: make(chan interface{}, wsClientBuffer), done: make(chan struct{})}

	// greet + last known progress, queued before registration so they go first
	cl.out <- StatusMessage{Type: "status", Text: "connected"}
	h.mu.Lock()
	if h.last != nil {
		cl.out <- *h.last
	}
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(cl)

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})
	for {
		// inbound messages are ignored; reading keeps pongs and close frames flowing
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(cl.done)
	h.mu.Lock()
	delete(h.clients, cl)
	h.mu.Unlock()
}

func (h *ProgressHub) writeLoop(cl *wsClient) {
	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	for {
		select {
		case v := <-cl.out:
			if err := cl.conn.WriteJSON(v); err != nil {
				return
			}
		case <-ping.C:
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-cl.done:
			return
		}
	}
}
