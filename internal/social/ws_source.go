package social

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"meme-token-radar/internal/domain"
)

// StreamConfig configures the websocket stream source.
type StreamConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the backoff between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for keepalive ping frames.
	PingInterval time.Duration
	// ReadTimeout bounds a single message read.
	ReadTimeout time.Duration
	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration
	// BufferLimit caps the number of events held between List calls.
	// Oldest events are dropped beyond the limit.
	BufferLimit int
}

// DefaultStreamConfig returns the stock stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		BufferLimit:       10000,
	}
}

// streamEvent is the wire format pushed by upstream collectors.
type streamEvent struct {
	Type   string               `json:"type"` // signal | tweet | token
	Signal *domain.SocialSignal `json:"signal,omitempty"`
	Token  *domain.TokenRecord  `json:"token,omitempty"`
}

// StreamSource consumes a collector's websocket feed and buffers events
// until the scanner drains them. It reconnects with exponential backoff
// and keeps the connection alive with ping frames.
type StreamSource struct {
	endpoint string
	config   StreamConfig
	logger   *zap.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	bufMu   sync.Mutex
	signals []*domain.SocialSignal
	tweets  []*domain.SocialSignal
	tokens  map[string]*domain.TokenRecord

	done chan struct{}
	wg   sync.WaitGroup
}

// NewStreamSource connects to the collector feed and starts consuming.
func NewStreamSource(ctx context.Context, endpoint string, config *StreamConfig, logger *zap.Logger) (*StreamSource, error) {
	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &StreamSource{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
		tokens:   make(map[string]*domain.TokenRecord),
		done:     make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(2)
	go s.readLoop()
	go s.pingLoop()

	return s, nil
}

func (s *StreamSource) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial %s: %w", s.endpoint, err)
	}
	s.conn = conn
	return nil
}

// ListSignals drains the buffered signals.
func (s *StreamSource) ListSignals(context.Context) ([]*domain.SocialSignal, error) {
	s.bufMu.Lock()
	defer s.bufMu.Unlock()
	out := s.signals
	s.signals = nil
	return out, nil
}

// ListTweets drains the buffered tweets.
func (s *StreamSource) ListTweets(context.Context) ([]*domain.SocialSignal, error) {
	s.bufMu.Lock()
	defer s.bufMu.Unlock()
	out := s.tweets
	s.tweets = nil
	return out, nil
}

// ListRecentTokens returns the tokens observed so far. Tokens are keyed
// by address, so repeated announcements collapse to the latest record.
func (s *StreamSource) ListRecentTokens(context.Context) ([]*domain.TokenRecord, error) {
	s.bufMu.Lock()
	defer s.bufMu.Unlock()
	out := make([]*domain.TokenRecord, 0, len(s.tokens))
	for _, token := range s.tokens {
		out = append(out, token)
	}
	return out, nil
}

// Close shuts down the stream and waits for the loops to exit.
func (s *StreamSource) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	return nil
}

func (s *StreamSource) readLoop() {
	defer s.wg.Done()

	reconnectDelay := s.config.ReconnectDelay

	for !s.closed.Load() {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			if !s.waitOrDone(reconnectDelay) {
				return
			}
			reconnectDelay = s.nextDelay(reconnectDelay)
			s.redial()
			continue
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}
			s.logger.Warn("stream read failed, reconnecting", zap.Error(err))

			s.connMu.Lock()
			if s.conn != nil {
				s.conn.Close()
				s.conn = nil
			}
			s.connMu.Unlock()
			continue
		}

		reconnectDelay = s.config.ReconnectDelay
		s.handleMessage(message)
	}
}

func (s *StreamSource) redial() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.connect(ctx); err != nil {
		s.logger.Warn("stream reconnect failed", zap.Error(err))
	}
}

// waitOrDone sleeps for d. Returns false when the source is closing.
func (s *StreamSource) waitOrDone(d time.Duration) bool {
	select {
	case <-s.done:
		return false
	case <-time.After(d):
		return true
	}
}

func (s *StreamSource) nextDelay(current time.Duration) time.Duration {
	next := current * 2
	if next > s.config.MaxReconnectDelay {
		next = s.config.MaxReconnectDelay
	}
	return next
}

func (s *StreamSource) handleMessage(message []byte) {
	var event streamEvent
	if err := json.Unmarshal(message, &event); err != nil {
		s.logger.Warn("malformed stream event", zap.Error(err))
		return
	}

	s.bufMu.Lock()
	defer s.bufMu.Unlock()

	switch event.Type {
	case "signal":
		if event.Signal == nil {
			return
		}
		s.signals = appendBounded(s.signals, event.Signal, s.config.BufferLimit)
	case "tweet":
		if event.Signal == nil {
			return
		}
		s.tweets = appendBounded(s.tweets, event.Signal, s.config.BufferLimit)
	case "token":
		if event.Token == nil {
			return
		}
		s.tokens[event.Token.Address] = event.Token
	default:
		s.logger.Debug("ignoring unknown stream event", zap.String("type", event.Type))
	}
}

// appendBounded appends and drops the oldest entries beyond limit.
func appendBounded(buf []*domain.SocialSignal, signal *domain.SocialSignal, limit int) []*domain.SocialSignal {
	buf = append(buf, signal)
	if limit > 0 && len(buf) > limit {
		buf = buf[len(buf)-limit:]
	}
	return buf
}

func (s *StreamSource) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					s.logger.Debug("ping failed", zap.Error(err))
				}
			}
			s.connMu.Unlock()
		}
	}
}

var (
	_ SignalSource = (*StreamSource)(nil)
	_ TokenSource  = (*StreamSource)(nil)
)
