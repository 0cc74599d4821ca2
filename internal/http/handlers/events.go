package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/opsboard/opsboard/internal/metrics"
)

// HandleEvents streams change notifications to the browser as server-sent
// events: "view" carries the view version, "toast" the toast count. Clients
// refetch the fragments they show.
func (h *Handlers) HandleEvents(c *echo.Context) error {
	w := c.Response()
	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	ctx := c.Request().Context()

	var viewCh, toastCh <-chan struct{}
	if h.State != nil {
		ch, cancel := h.State.Changes()
		defer cancel()
		viewCh = ch
	}
	if h.Toasts != nil {
		ch, cancel := h.Toasts.Subscribe()
		defer cancel()
		toastCh = ch
	}

	metrics.ViewSubscribers.Inc()
	defer metrics.ViewSubscribers.Dec()

	heartbeat := time.NewTicker(h.heartbeat())
	defer heartbeat.Stop()

	if err := h.sendView(w, rc); err != nil {
		return nil
	}
	for {
		var err error
		select {
		case <-ctx.Done():
			return nil
		case <-viewCh:
			err = h.sendView(w, rc)
		case <-toastCh:
			count := 0
			if h.Toasts != nil {
				count = len(h.Toasts.Toasts())
			}
			err = writeEvent(w, rc, "toast", strconv.Itoa(count))
		case <-heartbeat.C:
			_, err = io.WriteString(w, ": ping\n\n")
			if err == nil {
				err = rc.Flush()
			}
		}
		if err != nil {
			// The client went away.
			return nil
		}
	}
}

func (h *Handlers) sendView(w io.Writer, rc *http.ResponseController) error {
	return writeEvent(w, rc, "view", strconv.FormatUint(h.view().Version, 10))
}

func writeEvent(w io.Writer, rc *http.ResponseController, event, data string) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return rc.Flush()
}

func (h *Handlers) heartbeat() time.Duration {
	if h.Heartbeat <= 0 {
		return defaultHeartbeat
	}
	return h.Heartbeat
}
