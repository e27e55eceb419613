package render

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/signalsfoundry/iss-tracker/internal/logging"
	"github.com/signalsfoundry/iss-tracker/internal/trajectory"
)

const (
	liveWriteWait  = 5 * time.Second
	liveClientBuf  = 4
	livePingPeriod = 30 * time.Second
)

type liveMessage struct {
	Markers  []trajectory.Marker  `json:"markers"`
	Segments []trajectory.Segment `json:"segments"`
}

// LiveMap serves the map page over HTTP and pushes every snapshot to
// connected browsers over a websocket.
type LiveMap struct {
	log      logging.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	last    []byte
	clients map[*liveClient]struct{}

	srv *http.Server
}

type liveClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewLiveMap constructs an idle LiveMap. Use Handler to mount it or Serve to
// run its own server.
func NewLiveMap(log logging.Logger) *LiveMap {
	if log == nil {
		log = logging.Noop()
	}
	return &LiveMap{
		log:     log.With(logging.String("component", "livemap")),
		clients: make(map[*liveClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the page ("/"), the latest snapshot ("/api/trajectory")
// and the websocket feed ("/ws").
func (l *LiveMap) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", l.servePage)
	mux.HandleFunc("/api/trajectory", l.serveSnapshot)
	mux.HandleFunc("/ws", l.serveWS)
	return mux
}

// Serve listens on addr in a background goroutine.
func (l *LiveMap) Serve(addr string) *http.Server {
	l.srv = &http.Server{
		Addr:              addr,
		Handler:           l.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := l.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.log.Warn(context.Background(), "live map server exited", logging.Err(err))
		}
	}()
	l.log.Info(context.Background(), "serving live map", logging.String("addr", addr))
	return l.srv
}

// Shutdown stops the server and disconnects all clients.
func (l *LiveMap) Shutdown(ctx context.Context) error {
	l.mu.Lock()
	for c := range l.clients {
		close(c.send)
		delete(l.clients, c)
	}
	l.mu.Unlock()

	if l.srv == nil {
		return nil
	}
	return l.srv.Shutdown(ctx)
}

// Clients returns the number of connected websocket clients.
func (l *LiveMap) Clients() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.clients)
}

// Render stores the snapshot and broadcasts it. Slow clients miss updates
// rather than blocking the loop.
func (l *LiveMap) Render(_ context.Context, snap trajectory.Snapshot) error {
	payload, err := json.Marshal(liveMessage{Markers: snap.Markers(), Segments: snap.Segments})
	if err != nil {
		return fmt.Errorf("render live map: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.last = payload
	for c := range l.clients {
		select {
		case c.send <- payload:
		default:
		}
	}
	return nil
}

func (l *LiveMap) servePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	var markers []trajectory.Marker
	l.mu.RLock()
	if l.last != nil {
		var msg liveMessage
		if err := json.Unmarshal(l.last, &msg); err == nil {
			markers = msg.Markers
		}
	}
	l.mu.RUnlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := writePage(w, pageData{Title: "ISS trajectory (live)", Markers: markers, Live: true}); err != nil {
		l.log.Warn(r.Context(), "write live page", logging.Err(err))
	}
}

func (l *LiveMap) serveSnapshot(w http.ResponseWriter, r *http.Request) {
	l.mu.RLock()
	payload := l.last
	l.mu.RUnlock()

	if payload == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(payload)
}

func (l *LiveMap) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.log.Debug(r.Context(), "websocket upgrade failed", logging.Err(err))
		return
	}

	c := &liveClient{conn: conn, send: make(chan []byte, liveClientBuf)}
	l.mu.Lock()
	if l.last != nil {
		c.send <- l.last
	}
	l.clients[c] = struct{}{}
	l.mu.Unlock()

	go l.writePump(c)
	l.readPump(c)
}

// readPump discards client frames and unregisters the client once the
// connection closes.
func (l *LiveMap) readPump(c *liveClient) {
	defer func() {
		l.mu.Lock()
		if _, ok := l.clients[c]; ok {
			delete(l.clients, c)
			close(c.send)
		}
		l.mu.Unlock()
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (l *LiveMap) writePump(c *liveClient) {
	ticker := time.NewTicker(livePingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
