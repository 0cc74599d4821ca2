package push

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/opsboard/opsboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/live-feed"
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func receive(t *testing.T, ch <-chan models.Event) models.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return models.Event{}
	}
}

func TestRunDeliversEventsAndSkipsMalformed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ticket_created","timestamp":"2026-03-10T12:00:00","data":{"id":7,"title":"VPN","priority":"high"}}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"data":{}}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"service_status_change","data":{"service_name":"mail","old_status":"online","new_status":"offline"}}`))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan models.Event, 4)
	done := make(chan error, 1)
	sub := &Subscriber{URL: wsURL(srv), Logger: quietLogger()}
	go func() { done <- sub.Run(ctx, out) }()

	first := receive(t, out)
	assert.Equal(t, models.EventTicketCreated, first.Type)
	var created models.TicketCreated
	require.NoError(t, first.DecodeData(&created))
	assert.Equal(t, "VPN", created.Title)

	second := receive(t, out)
	assert.Equal(t, models.EventServiceStatusChange, second.Type)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunReconnectsAfterDisconnect(t *testing.T) {
	t.Parallel()

	var connections atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		n := connections.Add(1)
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"critical_log","data":{"message":"conn `+string(rune('0'+n))+`"}}`))
		_ = conn.Close()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan models.Event, 4)
	sub := &Subscriber{URL: wsURL(srv), ReconnectDelay: 10 * time.Millisecond, Logger: quietLogger()}
	go func() { _ = sub.Run(ctx, out) }()

	var a, b models.CriticalLog
	require.NoError(t, receive(t, out).DecodeData(&a))
	require.NoError(t, receive(t, out).DecodeData(&b))
	assert.Equal(t, "conn 1", a.Message)
	assert.Equal(t, "conn 2", b.Message)
	assert.GreaterOrEqual(t, connections.Load(), int32(2))
}

func TestRunRequiresURL(t *testing.T) {
	t.Parallel()

	err := (&Subscriber{}).Run(context.Background(), make(chan models.Event))
	require.Error(t, err)
}
