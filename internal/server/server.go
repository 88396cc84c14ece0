package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lotas/tabtidy/internal/applog"
	"nhooyr.io/websocket"
)

// ErrNotConnected is returned when no extension is connected.
var ErrNotConnected = errors.New("browser extension not connected")

// IncomingMsg is a message from the extension. Replies carry the ID of the
// command they answer; unsolicited events (e.g. "snapshot") have none.
type IncomingMsg struct {
	Type  string          `json:"type"`
	ID    string          `json:"id,omitempty"`
	OK    *bool           `json:"ok,omitempty"`
	Error string          `json:"error,omitempty"`
	Tab   json.RawMessage `json:"tab,omitempty"`
	Tabs  json.RawMessage `json:"tabs,omitempty"`
	TabID int             `json:"tabId,omitempty"`
}

// OutgoingMsg is a command to the extension.
type OutgoingMsg struct {
	ID            string `json:"id"`
	Action        string `json:"action"`
	TabID         int    `json:"tabId,omitempty"`
	TabIDs        []int  `json:"tabIds,omitempty"`
	URL           string `json:"url,omitempty"`
	Active        *bool  `json:"active,omitempty"`
	CurrentWindow bool   `json:"currentWindow,omitempty"`
	Pinned        *bool  `json:"pinned,omitempty"`
}

// Server manages the WebSocket connection to the extension.
type Server struct {
	port    int
	msgs    chan IncomingMsg
	mu      sync.Mutex
	conn    *websocket.Conn
	connCtx context.Context
	pending map[string]chan IncomingMsg
	seq     atomic.Int64
}

// New creates a new Server. Port 0 means the caller manages the listener.
func New(port int) *Server {
	return &Server{
		port:    port,
		msgs:    make(chan IncomingMsg, 64),
		pending: make(map[string]chan IncomingMsg),
	}
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Messages returns the channel of unsolicited messages from the extension.
func (s *Server) Messages() <-chan IncomingMsg {
	return s.msgs
}

// Connected reports whether an extension is connected.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// WaitConnected polls until an extension connects or ctx ends.
func (s *Server) WaitConnected(ctx context.Context) error {
	for !s.Connected() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for extension: %w", ctx.Err())
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil
}

// Send sends a command to the connected extension without waiting for a
// reply.
func (s *Server) Send(msg OutgoingMsg) error {
	s.mu.Lock()
	conn := s.conn
	ctx := s.connCtx
	s.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	applog.Info("ws.send", "action", msg.Action, "id", msg.ID)
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// Call sends msg and waits for the reply with the same ID. A reply with
// ok=false is returned as an error.
func (s *Server) Call(ctx context.Context, msg OutgoingMsg) (IncomingMsg, error) {
	if msg.ID == "" {
		msg.ID = "cmd-" + strconv.FormatInt(s.seq.Add(1), 10)
	}
	reply := make(chan IncomingMsg, 1)
	s.mu.Lock()
	s.pending[msg.ID] = reply
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, msg.ID)
		s.mu.Unlock()
	}()

	if err := s.Send(msg); err != nil {
		return IncomingMsg{}, fmt.Errorf("%s: %w", msg.Action, err)
	}

	select {
	case in := <-reply:
		if in.OK != nil && !*in.OK {
			return in, fmt.Errorf("%s: %s", msg.Action, in.Error)
		}
		return in, nil
	case <-ctx.Done():
		applog.Warn("ws.timeout", "action", msg.Action, "id", msg.ID)
		return IncomingMsg{}, fmt.Errorf("%s: waiting for reply: %w", msg.Action, ctx.Err())
	}
}

func (s *Server) dispatch(msg IncomingMsg) {
	if msg.ID != "" {
		s.mu.Lock()
		reply, ok := s.pending[msg.ID]
		s.mu.Unlock()
		if ok {
			select {
			case reply <- msg:
			default:
			}
			return
		}
	}
	select {
	case s.msgs <- msg:
	default:
	}
}

// Handler returns an http.Handler that accepts WebSocket upgrades.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			log.Printf("websocket accept: %v", err)
			applog.Error("ws.accept", err)
			return
		}

		conn.SetReadLimit(16 << 20) // windows with many tabs produce large replies

		ctx := r.Context()
		s.mu.Lock()
		if s.conn != nil {
			applog.Info("ws.replaced")
			s.conn.CloseNow()
		}
		s.conn = conn
		s.connCtx = ctx
		s.mu.Unlock()

		applog.Info("ws.connected", "remote", r.RemoteAddr)

		defer func() {
			s.mu.Lock()
			if s.conn == conn {
				s.conn = nil
				s.connCtx = nil
			}
			s.mu.Unlock()
			conn.CloseNow()
			applog.Info("ws.disconnected")
		}()

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var msg IncomingMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				applog.Error("ws.parse", err)
				continue
			}
			applog.Info("ws.recv", "type", msg.Type, "id", msg.ID)
			s.dispatch(msg)
		}
	})
}

// ListenAndServe starts the WebSocket server on the configured port.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/", s.Handler())

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	applog.Info("server.start", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
