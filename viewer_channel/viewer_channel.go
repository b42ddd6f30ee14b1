// Package viewerchannel mirrors the annotated clouds and markers to
// browser viewers over websocket, next to the ROS topics.
package viewerchannel

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/3DRX/point-normal-annotator/cloud"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

type client struct {
	conn *websocket.Conn
	send chan []byte
}

type ViewerChannel struct {
	addr     string
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*client]struct{}
}

type viewerFrame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func InitViewerChannel(addr string) *ViewerChannel {
	return &ViewerChannel{
		addr: addr,
		upgrader: websocket.Upgrader{
			// viewers are served from anywhere on the robot network
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

func (v *ViewerChannel) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", v.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Spin serves viewers until ctx is done.
func (v *ViewerChannel) Spin(ctx context.Context) error {
	srv := &http.Server{
		Addr:    v.addr,
		Handler: v.Handler(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		v.closeAll()
	}()
	slog.Info("serving viewer feed", "addr", v.addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (v *ViewerChannel) ClientCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.clients)
}

func (v *ViewerChannel) PublishCloud(c *cloud.AnnotatedCloud) error {
	return v.broadcast("cloud", newViewerCloud(c))
}

// PublishMarker forwards m unless its arrow cannot be drawn.
func (v *ViewerChannel) PublishMarker(m *cloud.Marker) error {
	for _, p := range m.Points {
		if !(cloud.Point{X: p.X, Y: p.Y, Z: p.Z}).IsFinite() {
			return nil
		}
	}
	return v.broadcast("marker", m)
}

// broadcast offers the frame to every viewer. A viewer still busy with
// its previous frame misses this one.
func (v *ViewerChannel) broadcast(kind string, payload any) error {
	b, err := json.Marshal(viewerFrame{Type: kind, Payload: payload})
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	for c := range v.clients {
		select {
		case c.send <- b:
		default:
			slog.Debug("viewer is behind, dropping frame", "type", kind, "remote", c.conn.RemoteAddr().String())
		}
	}
	return nil
}

func (v *ViewerChannel) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := v.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade viewer connection", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 1)}
	v.mu.Lock()
	v.clients[c] = struct{}{}
	v.mu.Unlock()
	slog.Info("viewer connected", "remote", conn.RemoteAddr().String())

	go v.writeLoop(c)
	// viewers never talk back; reading only detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	v.remove(c)
	slog.Info("viewer disconnected", "remote", conn.RemoteAddr().String())
}

func (v *ViewerChannel) writeLoop(c *client) {
	defer c.conn.Close()
	for b := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			slog.Error("Failed to write to viewer", "error", err)
			return
		}
	}
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
}

func (v *ViewerChannel) remove(c *client) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.clients[c]; ok {
		delete(v.clients, c)
		close(c.send)
	}
}

func (v *ViewerChannel) closeAll() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for c := range v.clients {
		delete(v.clients, c)
		close(c.send)
	}
}
