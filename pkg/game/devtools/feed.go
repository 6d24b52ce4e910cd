package devtools

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"dungeonator/pkg/game/generator"
	"dungeonator/pkg/game/state"
)

const writeTimeout = 3 * time.Second

// Envelope is one message of the feed.
type Envelope struct {
	Sequence uint64         `json:"sequence"`
	Type     string         `json:"type"` // "phase" or "layout"
	Phase    string         `json:"phase,omitempty"`
	Layout   *LayoutSummary `json:"layout,omitempty"`
}

// LayoutSummary is the feed's view of a finished layout.
type LayoutSummary struct {
	Seed      uint64   `json:"seed"`
	Floor     int      `json:"floor"`
	Rooms     int      `json:"rooms"`
	Corridors int      `json:"corridors"`
	Content   int      `json:"content"`
	Start     int      `json:"start"`
	Boss      int      `json:"boss"`
	Map       []string `json:"map"`
}

// Summarise returns the feed summary of l.
func Summarise(l *generator.DungeonLayout) *LayoutSummary {
	return &LayoutSummary{
		Seed:      l.Seed,
		Floor:     l.Floor.Level(),
		Rooms:     len(l.Rooms),
		Corridors: len(l.Corridors),
		Content:   len(l.Content),
		Start:     int(l.Start),
		Boss:      int(l.Boss),
		Map:       Render(l),
	}
}

// Feed is a websocket hub that broadcasts machine phases and finished
// layouts to every connected client. New clients receive the last message.
type Feed struct {
	log *zap.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	seq     uint64
	last    []byte
}

// NewFeed creates an empty feed.
func NewFeed(log *zap.Logger) *Feed {
	if log == nil {
		log = zap.NewNop()
	}
	return &Feed{log: log, clients: make(map[*websocket.Conn]struct{})}
}

// Clients returns the number of connected clients.
func (f *Feed) Clients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		f.log.Warn("feed accept failed", zap.Error(err))
		return
	}
	f.mu.Lock()
	f.clients[conn] = struct{}{}
	last := f.last
	f.mu.Unlock()
	f.log.Debug("feed client connected", zap.String("remote", r.RemoteAddr))

	if last != nil {
		ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
		_ = conn.Write(ctx, websocket.MessageText, last)
		cancel()
	}

	ctx := conn.CloseRead(r.Context())
	<-ctx.Done()
	f.mu.Lock()
	delete(f.clients, conn)
	f.mu.Unlock()
	conn.Close(websocket.StatusNormalClosure, "")
}

// Broadcast stamps env with the next sequence number and sends it to
// every client. Clients that cannot be written to are dropped.
func (f *Feed) Broadcast(env Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	env.Sequence = f.seq
	msg, err := json.Marshal(env)
	if err != nil {
		return err
	}
	f.last = msg
	for conn := range f.clients {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := conn.Write(ctx, websocket.MessageText, msg)
		cancel()
		if err != nil {
			f.log.Debug("feed client dropped", zap.Error(err))
			_ = conn.Close(websocket.StatusNormalClosure, "")
			delete(f.clients, conn)
		}
	}
	return nil
}

func (f *Feed) publish(m *state.Machine, p state.Phase) {
	if err := f.Broadcast(Envelope{Type: "phase", Phase: p.String()}); err != nil {
		f.log.Warn("feed broadcast failed", zap.Error(err))
		return
	}
	if p != state.Finished {
		return
	}
	if l, ok := m.Layout(); ok {
		if err := f.Broadcast(Envelope{Type: "layout", Layout: Summarise(l)}); err != nil {
			f.log.Warn("feed broadcast failed", zap.Error(err))
		}
	}
}

// Watch subscribes to m and forwards every phase it enters to the feed
// until ctx is done, starting with the phase m is in. Entering Finished also
// sends the layout. The subscription is open when Watch returns, so a
// generation started afterwards is seen from its first phase.
func (f *Feed) Watch(ctx context.Context, m *state.Machine) {
	ch, cancel := m.Subscribe()
	f.publish(m, m.Phase())
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case p, ok := <-ch:
				if !ok {
					return
				}
				f.publish(m, p)
			}
		}
	}()
}
