package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/opsboard/opsboard/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notify.Toast
}

func (r *recordingNotifier) Notify(message string, kind notify.Kind, _ time.Duration) notify.Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	toast := notify.Toast{Message: message, Kind: kind}
	r.calls = append(r.calls, toast)
	return toast
}

func (r *recordingNotifier) snapshot() []notify.Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Toast(nil), r.calls...)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recordingNotifier) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	rec := &recordingNotifier{}
	c, err := New(srv.URL, 0, rec)
	require.NoError(t, err)
	return c, rec
}

func TestNewRequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := New("  ", 0, nil)
	assert.Error(t, err)
}

func TestDoSuccessDecodesAndStaysSilent(t *testing.T) {
	t.Parallel()

	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tickets/stats" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total":9,"open":3,"in_progress":2,"resolved":4,"closed":0}`))
	})

	stats, err := c.TicketStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Open)
	assert.Equal(t, 2, stats.InProgress)
	assert.Equal(t, 9, stats.Total)
	assert.Empty(t, rec.snapshot(), "success must not notify")
}

func TestDoNonSuccessNotifiesOnceWithDetail(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"detail":"Service not found"}`))
		})

		_, err := c.Services(context.Background())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr, "status %d", status)
		assert.Equal(t, status, apiErr.StatusCode)
		assert.Equal(t, "Service not found", apiErr.Message)

		calls := rec.snapshot()
		require.Len(t, calls, 1, "status %d", status)
		assert.Equal(t, notify.KindError, calls[0].Kind)
		assert.Equal(t, "Service not found", calls[0].Message)
	}
}

func TestDoNonJSONErrorFallsBackToStatusText(t *testing.T) {
	t.Parallel()

	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>upstream down</html>"))
	})

	_, err := c.ServiceStats(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Bad Gateway", apiErr.Message)

	calls := rec.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "Bad Gateway", calls[0].Message)
}

func TestDoJSONErrorWithoutDetailUsesGenericMessage(t *testing.T) {
	t.Parallel()

	bodies := map[string]string{
		"validation list": `{"detail":[{"loc":["query","limit"],"msg":"bad"}]}`,
		"blank detail":    `{"detail":"   "}`,
		"no detail":       `{"error":"bad"}`,
		"json string":     `"oops"`,
		"json array":      `[1,2,3]`,
		"json null":       `null`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte(body))
			})

			_, err := c.Logs(context.Background(), 20)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "Request failed", apiErr.Message)

			calls := rec.snapshot()
			require.Len(t, calls, 1)
			assert.Equal(t, "Request failed", calls[0].Message)
		})
	}
}

func TestDoTransportErrorNotifiesOnce(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	rec := &recordingNotifier{}
	c, err := New(base, 0, rec)
	require.NoError(t, err)

	_, err = c.TicketStats(context.Background())
	require.Error(t, err)

	calls := rec.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, notify.KindError, calls[0].Kind)
}

func TestDoDecodeErrorNotifiesOnce(t *testing.T) {
	t.Parallel()

	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	_, err := c.Services(context.Background())
	require.Error(t, err)
	assert.Len(t, rec.snapshot(), 1)
}

func TestDoMergesHeaders(t *testing.T) {
	t.Parallel()

	var got http.Header
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{}`))
	})
	c.Header = http.Header{"X-Tenant": {"ops"}, "Accept": {"application/vnd.helpdesk+json"}}

	err := c.Do(context.Background(), http.MethodGet, "/api/services/stats", RequestOptions{
		Header: http.Header{"X-Request-Id": {"req-1"}, "X-Tenant": {"override"}},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "application/vnd.helpdesk+json", got.Get("Accept"), "client header overrides default")
	assert.Equal(t, "override", got.Get("X-Tenant"), "per-call header overrides client")
	assert.Equal(t, "req-1", got.Get("X-Request-Id"))
}

func TestLogsAndTicketsQueryParameters(t *testing.T) {
	t.Parallel()

	var queries []string
	var mu sync.Mutex
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.Path+"?"+r.URL.RawQuery)
		mu.Unlock()
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.Logs(context.Background(), 20)
	require.NoError(t, err)
	_, err = c.Tickets(context.Background(), TicketQuery{SortBy: "created_at", Order: "desc"})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"/api/logs?limit=20",
		"/api/tickets?order=desc&sort_by=created_at",
	}, queries)
}

func TestWithNotifierSilencesClone(t *testing.T) {
	t.Parallel()

	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	silent := c.WithNotifier(nil)

	_, err := silent.Tickets(context.Background(), TicketQuery{})
	require.Error(t, err)
	assert.Empty(t, rec.snapshot(), "silent clone must not notify")

	_, err = c.Tickets(context.Background(), TicketQuery{})
	require.Error(t, err)
	assert.Len(t, rec.snapshot(), 1, "original client keeps its notifier")
}
