// Package ws is the game client transport: one websocket per session, a
// single active session per world.
package ws

import (
	"context"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"tokenwheel.ai/internal/protocol"
	"tokenwheel.ai/internal/sim/tuning"
	"tokenwheel.ai/internal/sim/world"
)

const (
	outQueue      = 8
	writeWait     = 5 * time.Second
	readWait      = 60 * time.Second
	attachTimeout = 5 * time.Second
)

type Server struct {
	world  *world.World
	log    *log.Logger
	limits tuning.RateLimits

	upgrader websocket.Upgrader

	sessions atomic.Int64
	limited  atomic.Uint64
	invalid  atomic.Uint64
}

// Stats are transport counters for the metrics endpoint.
type Stats struct {
	Sessions int64  `json:"sessions"`
	Limited  uint64 `json:"limited_total"`
	Invalid  uint64 `json:"invalid_total"`
}

func NewServer(w *world.World, limits tuning.RateLimits, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[ws] ", log.LstdFlags|log.Lmicroseconds)
	}
	return &Server{
		world:  w,
		log:    logger,
		limits: limits,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Stats() Stats {
	return Stats{Sessions: s.sessions.Load(), Limited: s.limited.Load(), Invalid: s.invalid.Load()}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		codec, err := protocol.ParseCodec(r.URL.Query().Get("codec"))
		if err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		session := uuid.NewString()
		out := make(chan []byte, outQueue)
		welcome, ok := s.attach(r.Context(), session, out, codec)
		if !ok {
			closeWith(conn, websocket.CloseTryAgainLater, "world unavailable")
			return
		}
		s.sessions.Add(1)
		defer s.sessions.Add(-1)
		s.log.Printf("session %s attached (codec=%s)", session, codec)

		if err := writeMessage(conn, codec, protocol.ServerMessage{Type: protocol.TypeWelcome, Welcome: &welcome}); err != nil {
			s.detach(session)
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			frame := websocket.TextMessage
			if codec.Binary() {
				frame = websocket.BinaryMessage
			}
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						// Replaced by a newer session.
						closeWith(conn, websocket.ClosePolicyViolation, "session replaced")
						_ = conn.Close()
						cancel()
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteMessage(frame, b); err != nil {
						_ = conn.Close()
						cancel()
						return
					}
				}
			}
		}()

		limiter := rate.NewLimiter(rate.Limit(s.limits.InputsPerSecond), s.limits.InputBurst)
		inbox := s.world.Inbox()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readWait))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			if !limiter.Allow() {
				s.limited.Add(1)
				continue
			}
			in, err := protocol.DecodeInput(codec, msg)
			if err != nil {
				s.invalid.Add(1)
				continue
			}
			select {
			case inbox <- world.InputEnvelope{Session: session, Input: in}:
			case <-ctx.Done():
			}
		}

		// Cleanup.
		s.detach(session)
		s.log.Printf("session %s closed", session)
	}
}

func (s *Server) attach(ctx context.Context, session string, out chan []byte, codec protocol.Codec) (protocol.Welcome, bool) {
	ctx, cancel := context.WithTimeout(ctx, attachTimeout)
	defer cancel()

	resp := make(chan world.AttachResponse, 1)
	select {
	case s.world.Attach() <- world.AttachRequest{Session: session, Out: out, Codec: codec, Resp: resp}:
	case <-ctx.Done():
		return protocol.Welcome{}, false
	}
	select {
	case r := <-resp:
		if r.Replaced != "" {
			s.log.Printf("session %s took over from %s", session, r.Replaced)
		}
		return r.Welcome, true
	case <-ctx.Done():
		return protocol.Welcome{}, false
	}
}

func (s *Server) detach(session string) {
	select {
	case s.world.Detach() <- session:
	case <-time.After(attachTimeout):
		s.log.Printf("session %s: detach timed out", session)
	}
}

func writeMessage(conn *websocket.Conn, codec protocol.Codec, msg protocol.ServerMessage) error {
	b, err := codec.Marshal(msg)
	if err != nil {
		return err
	}
	frame := websocket.TextMessage
	if codec.Binary() {
		frame = websocket.BinaryMessage
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(frame, b)
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
}
