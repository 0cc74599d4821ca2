// Package push subscribes to the backend's live-feed websocket and hands
// decoded events to the dashboard.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/opsboard/opsboard/internal/metrics"
	"github.com/opsboard/opsboard/internal/models"
	"k8s.io/utils/clock"
)

const DefaultReconnectDelay = 5 * time.Second

type Subscriber struct {
	URL            string
	Header         http.Header
	Dialer         *websocket.Dialer
	ReconnectDelay time.Duration
	Clock          clock.Clock
	Logger         *slog.Logger
}

// Run keeps a connection open until ctx is done, redialing after
// ReconnectDelay whenever the connection fails. Each decoded event is sent
// to out. Malformed messages are logged and skipped.
func (s *Subscriber) Run(ctx context.Context, out chan<- models.Event) error {
	if strings.TrimSpace(s.URL) == "" {
		return errors.New("push url is required")
	}
	if out == nil {
		return errors.New("push event channel is nil")
	}
	logger := s.logger()

	for {
		err := s.session(ctx, out)
		metrics.PushConnected.Set(0)
		if ctx.Err() != nil {
			return nil
		}
		logger.Warn("live feed disconnected", "url", s.URL, "err", err, "retry_in", s.reconnectDelay())

		select {
		case <-ctx.Done():
			return nil
		case <-s.clock().After(s.reconnectDelay()):
		}
	}
}

func (s *Subscriber) session(ctx context.Context, out chan<- models.Event) error {
	conn, resp, err := s.dialer().DialContext(ctx, s.URL, s.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return err
	}
	defer conn.Close()

	logger := s.logger()
	logger.Info("live feed connected", "url", s.URL)
	metrics.PushConnected.Set(1)

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var ev models.Event
		if err := json.Unmarshal(payload, &ev); err != nil || ev.Type == "" {
			logger.Warn("skipping malformed live feed message", "err", err, "bytes", len(payload))
			continue
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Subscriber) dialer() *websocket.Dialer {
	if s.Dialer != nil {
		return s.Dialer
	}
	return websocket.DefaultDialer
}

func (s *Subscriber) reconnectDelay() time.Duration {
	if s.ReconnectDelay <= 0 {
		return DefaultReconnectDelay
	}
	return s.ReconnectDelay
}

func (s *Subscriber) clock() clock.Clock {
	if s.Clock == nil {
		return clock.RealClock{}
	}
	return s.Clock
}

func (s *Subscriber) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
