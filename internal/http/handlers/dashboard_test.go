package handlers

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/opsboard/opsboard/internal/dashboard"
	"github.com/opsboard/opsboard/internal/models"
	"github.com/opsboard/opsboard/internal/notify"
)

type recordingRefresher struct {
	mu      sync.Mutex
	origins []string
}

func (r *recordingRefresher) Trigger(origin string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.origins = append(r.origins, origin)
}

func TestHandleRefreshHTMX(t *testing.T) {
	c, rec := newTestContext(http.MethodPost, "http://example.com/refresh")
	c.Request().Header.Set("HX-Request", "true")

	refresher := &recordingRefresher{}
	h := &Handlers{Refresher: refresher}
	if err := h.HandleRefresh(c); err != nil {
		t.Fatalf("HandleRefresh() error = %v", err)
	}

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if len(refresher.origins) != 1 || refresher.origins[0] != dashboard.OriginManual {
		t.Fatalf("origins = %v, want [manual]", refresher.origins)
	}
	if got := rec.Header().Get(headerHXTrigger); got != "refresh-requested" {
		t.Fatalf("HX-Trigger = %q, want refresh-requested", got)
	}
	if vary := parseVaryHeader(rec.Header().Get(echo.HeaderVary)); vary["hx-request"] != 1 {
		t.Fatalf("Vary header missing hx-request: %v", vary)
	}
}

func TestHandleRefreshFormPostRedirectsWithFlash(t *testing.T) {
	c, rec := newTestContext(http.MethodPost, "http://example.com/refresh")

	h := &Handlers{Refresher: &recordingRefresher{}}
	if err := h.HandleRefresh(c); err != nil {
		t.Fatalf("HandleRefresh() error = %v", err)
	}

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("Location = %q, want /", loc)
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), flashToastCookieName+"=") {
		t.Fatalf("missing flash cookie: %q", rec.Header().Get("Set-Cookie"))
	}
}

func TestHandleDashboardRendersCurrentView(t *testing.T) {
	state := dashboard.NewViewState(dashboard.FeedCapacity)
	state.PrependEvent(models.Event{
		Type: models.EventTicketCreated,
		Data: []byte(`{"id":1,"title":"<b>VPN</b>","priority":"high"}`),
	})

	c, rec := newTestContext(http.MethodGet, "http://example.com/")
	h := &Handlers{State: state}
	if err := h.HandleDashboard(c); err != nil {
		t.Fatalf("HandleDashboard() error = %v", err)
	}

	body := rec.Body.String()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(body, "New ticket: &lt;b&gt;VPN&lt;/b&gt; (high)") {
		t.Fatalf("feed row missing or unescaped: %s", body)
	}
	if strings.Contains(body, dashboard.FeedPlaceholder) {
		t.Fatal("placeholder should be cleared by the event row")
	}
	if got := rec.Header().Get(echo.HeaderContentType); !strings.Contains(got, "text/html") {
		t.Fatalf("content-type = %q, want html", got)
	}
}

func TestHandleEventsStreamsChanges(t *testing.T) {
	state := dashboard.NewViewState(dashboard.FeedCapacity)
	center := notify.New(nil)
	defer center.Close()
	h := &Handlers{State: state, Toasts: center, Heartbeat: time.Hour}

	e := echo.New()
	e.GET("/events", h.HandleEvents)
	srv := httptest.NewServer(e)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /events: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content-type = %q", got)
	}

	events := make(chan string, 8)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		var event string
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				events <- event + "=" + strings.TrimPrefix(line, "data: ")
			}
		}
	}()

	next := func() string {
		t.Helper()
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatal("stream closed")
			}
			return ev
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
			return ""
		}
	}

	if got := next(); got != "view=0" {
		t.Fatalf("first event = %q, want view=0", got)
	}

	state.PrependEvent(models.Event{Type: models.EventServiceStatusChange, Data: []byte(`{"service_name":"dns","old_status":"online","new_status":"offline"}`)})
	if got := next(); got != "view=1" {
		t.Fatalf("event = %q, want view=1", got)
	}

	center.Notify("backend down", notify.KindError, time.Minute)
	if got := next(); got != "toast=1" {
		t.Fatalf("event = %q, want toast=1", got)
	}

	cancel()
	_, _ = io.Copy(io.Discard, resp.Body)
}
