// Package handlers contains the dashboard's HTTP handlers.
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/opsboard/opsboard/internal/config"
	"github.com/opsboard/opsboard/internal/dashboard"
	"github.com/opsboard/opsboard/internal/http/viewmodels"
	"github.com/opsboard/opsboard/internal/notify"
)

const (
	// ContextKeyRequestID stores the request id (X-Request-ID) for logging and client error references.
	ContextKeyRequestID = "request_id"

	// InternalErrorCode is a stable error code safe to return to clients.
	InternalErrorCode = "INTERNAL_ERROR"

	defaultHeartbeat = 25 * time.Second
)

// Refresher requests a dashboard refresh cycle.
type Refresher interface {
	Trigger(origin string)
}

// Handlers groups all HTTP handlers and shared dependencies.
type Handlers struct {
	Cfg       config.Config
	State     *dashboard.ViewState
	Toasts    *notify.Center
	Refresher Refresher

	// Heartbeat is the SSE keep-alive interval.
	Heartbeat time.Duration
}

// LayoutData builds the common layout data for page rendering.
func (h *Handlers) LayoutData(c *echo.Context, title string) viewmodels.LayoutData {
	csrfToken, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	stack := h.toastStack()
	if flash := popFlashToast(c); flash != nil {
		stack.ContainerCreated = true
		stack.Toasts = append(stack.Toasts, *flash)
	}
	return viewmodels.LayoutData{
		Title:     title,
		CSRFToken: csrfToken,
		Toasts:    stack,
	}
}

func (h *Handlers) toastStack() viewmodels.ToastStackData {
	if h.Toasts == nil {
		return viewmodels.ToastStackData{}
	}
	toasts := h.Toasts.Toasts()
	items := make([]viewmodels.ToastViewData, 0, len(toasts))
	for _, t := range toasts {
		items = append(items, viewmodels.ToastViewData{
			ID:          t.ID,
			Category:    string(t.Kind),
			Icon:        t.Icon,
			Description: t.Message,
			Dismissing:  t.State == notify.StateDismissing,
		})
	}
	return viewmodels.ToastStackData{
		ContainerCreated: h.Toasts.ContainerCreated(),
		Toasts:           items,
	}
}

func (h *Handlers) view() dashboard.View {
	if h.State == nil {
		return dashboard.View{FeedEmpty: true}
	}
	return h.State.Render()
}

// RenderComponent renders a templ component as the response.
func (h *Handlers) RenderComponent(c *echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(c.Request().Context(), c.Response()); err != nil {
		return h.RenderError(c, err)
	}
	return nil
}

// RenderError returns a plain text error response.
func (h *Handlers) RenderError(c *echo.Context, err error) error {
	requestID, _ := c.Get(ContextKeyRequestID).(string)
	path := ""
	if req := c.Request(); req != nil && req.URL != nil {
		path = req.URL.Path
	}
	method := ""
	if req := c.Request(); req != nil {
		method = req.Method
	}
	c.Logger().Error("http error",
		"request_id", requestID,
		"method", method,
		"path", path,
		"ip", c.RealIP(),
		"error", err,
	)

	msg := "Internal server error."
	if requestID != "" {
		msg = fmt.Sprintf("%s Reference: %s.", msg, requestID)
	}
	msg = fmt.Sprintf("%s Code: %s.", msg, InternalErrorCode)
	return c.String(http.StatusInternalServerError, msg)
}

// RenderNotFound returns a 404 response.
func RenderNotFound(c *echo.Context) error {
	return c.String(http.StatusNotFound, "404 page not found")
}
