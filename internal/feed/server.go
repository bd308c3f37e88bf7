// Package feed ingests motion estimates over WebSocket. Clients send either
// frames solved elsewhere (for example by a browser-side solver) or raw
// landmark estimates for the in-process solver.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/normanking/cortexpuppet/internal/bus"
	"github.com/normanking/cortexpuppet/internal/metrics"
	"github.com/normanking/cortexpuppet/internal/retarget"
	"github.com/normanking/cortexpuppet/internal/solver"
	"github.com/rs/zerolog"
)

const (
	MessageTypeFrame    = "frame"
	MessageTypeEstimate = "estimate"
	MessageTypeAck      = "ack"
	MessageTypeError    = "error"
)

// maxMessageSize bounds one inbound message. Three full landmark sets fit
// well below it.
const maxMessageSize = 1 << 20

// InboundMessage is sent by clients.
type InboundMessage struct {
	Type     string           `json:"type"`
	Sequence int64            `json:"sequence,omitempty"`
	Frame    *retarget.Frame  `json:"frame,omitempty"`
	Estimate *solver.Estimate `json:"estimate,omitempty"`
}

// AckMessage acknowledges a submitted message.
type AckMessage struct {
	Type     string `json:"type"`
	Sequence int64  `json:"sequence"`
}

// ErrorMessage reports a rejected message. The connection stays open.
type ErrorMessage struct {
	Type     string `json:"type"`
	Sequence int64  `json:"sequence,omitempty"`
	Message  string `json:"message"`
}

// Sink receives what the feed decodes.
type Sink interface {
	Submit(f *retarget.Frame)
	SubmitEstimate(est *solver.Estimate) error
}

// Server serves /ws/estimates and /healthz.
type Server struct {
	sink     Sink
	events   *bus.EventBus
	logger   zerolog.Logger
	upgrader websocket.Upgrader
	conns    atomic.Int64
	http     *http.Server
}

func NewServer(sink Sink, events *bus.EventBus, logger zerolog.Logger) *Server {
	return &Server{
		sink:   sink,
		events: events,
		logger: logger.With().Str("component", "feed").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 4 * 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Handler returns the feed routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/estimates", s.handleEstimates)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.http.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Estimate feed listening")
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Connections reports the number of open feed connections.
func (s *Server) Connections() int64 {
	return s.conns.Load()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":      "ok",
		"connections": s.conns.Load(),
	})
}

func (s *Server) handleEstimates(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	metrics.FeedConnections.Set(float64(s.conns.Add(1)))
	s.logger.Info().Str("remote", r.RemoteAddr).Msg("Feed client connected")
	s.publish(bus.EventTypeFeedConnected, r.RemoteAddr)
	defer func() {
		metrics.FeedConnections.Set(float64(s.conns.Add(-1)))
		s.logger.Info().Str("remote", r.RemoteAddr).Msg("Feed client disconnected")
		s.publish(bus.EventTypeFeedDisconnected, r.RemoteAddr)
	}()

	conn.SetReadLimit(maxMessageSize)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Msg("Feed read error")
			}
			return
		}

		var msg InboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			metrics.FeedMessages.WithLabelValues("invalid").Inc()
			s.logger.Debug().Err(err).Int("bytes", len(data)).Msg("Malformed feed message")
			if err := conn.WriteJSON(ErrorMessage{Type: MessageTypeError, Message: "invalid message: " + err.Error()}); err != nil {
				return
			}
			continue
		}

		if err := s.dispatch(&msg); err != nil {
			metrics.FeedMessages.WithLabelValues("rejected").Inc()
			s.logger.Debug().Err(err).Int64("sequence", msg.Sequence).Msg("Feed message rejected")
			if err := conn.WriteJSON(ErrorMessage{Type: MessageTypeError, Sequence: msg.Sequence, Message: err.Error()}); err != nil {
				return
			}
			continue
		}

		metrics.FeedMessages.WithLabelValues(msg.Type).Inc()
		if err := conn.WriteJSON(AckMessage{Type: MessageTypeAck, Sequence: msg.Sequence}); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to send ack")
			return
		}
	}
}

func (s *Server) dispatch(msg *InboundMessage) error {
	switch msg.Type {
	case MessageTypeFrame:
		if msg.Frame == nil {
			return errors.New("frame message without frame")
		}
		s.sink.Submit(msg.Frame)
		return nil
	case MessageTypeEstimate:
		if msg.Estimate == nil {
			return errors.New("estimate message without estimate")
		}
		return s.sink.SubmitEstimate(msg.Estimate)
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func (s *Server) publish(t bus.EventType, remote string) {
	if s.events == nil {
		return
	}
	s.events.Publish(bus.Event{Type: t, Data: map[string]any{"remote": remote}})
}
