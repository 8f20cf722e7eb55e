// Package ws bridges UI clients to the engine over WebSocket.
//
// Each connection gets its own selection session. Requests are queued on the
// engine and answered in order once the Run loop has processed them.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roach88/shapeforge/internal/engine"
	"github.com/roach88/shapeforge/internal/front"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 5 * time.Second
	outQueue     = 16
)

// Server serves the UI protocol. The engine's Run loop must be running.
type Server struct {
	eng *engine.Engine
	log *slog.Logger

	upgrader websocket.Upgrader
}

// NewServer creates a server over eng. A nil logger means slog.Default().
func NewServer(eng *engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		eng: eng,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// Handler returns the WebSocket endpoint.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			s.log.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		s.log.Info("ui client connected", "remote", r.RemoteAddr)
		defer s.log.Info("ui client disconnected", "remote", r.RemoteAddr)

		out := make(chan []byte, outQueue)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		session := front.NewSession()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}

			resp, ok := s.serve(ctx, session, msg)
			if !ok {
				return
			}
			b, err := json.Marshal(resp)
			if err != nil {
				s.log.Error("failed to encode response", "error", err)
				continue
			}
			select {
			case out <- b:
			case <-ctx.Done():
				return
			}
		}
	}
}

// serve runs one request through the engine. It returns false when the
// connection should be dropped.
func (s *Server) serve(ctx context.Context, session *front.Session, msg []byte) (Response, bool) {
	var req Request
	if err := json.Unmarshal(msg, &req); err != nil {
		return Response{Type: "error", Error: "malformed request: " + err.Error()}, true
	}
	ev, err := req.event()
	if err != nil {
		return Response{ID: req.ID, Type: "error", Error: err.Error()}, true
	}

	reply := make(chan engine.Result, 1)
	ev.Session = session
	ev.Reply = reply
	if !s.eng.Enqueue(ev) {
		s.log.Warn("engine stopped, dropping client")
		return Response{}, false
	}

	select {
	case res := <-reply:
		return newResponse(req.ID, res), true
	case <-s.eng.Done():
		// Run answers leftover events before Done closes.
		select {
		case res := <-reply:
			return newResponse(req.ID, res), true
		default:
			return Response{}, false
		}
	case <-ctx.Done():
		return Response{}, false
	}
}
