package httpapp

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/opsboard/opsboard/internal/http/handlers"
)

// EchoServer is the HTTP server wrapper.
type EchoServer struct {
	h *handlers.Handlers
	e *echo.Echo
}

// NewEchoServer creates a new HTTP server.
func NewEchoServer(h *handlers.Handlers, logger *slog.Logger) (*EchoServer, error) {
	if h == nil {
		return nil, errors.New("handlers are required")
	}
	e := echo.New()
	if logger != nil {
		e.Logger = logger
	}
	es := &EchoServer{h: h, e: e}
	e.HTTPErrorHandler = es.httpErrorHandler
	e.Use(requestID)
	es.registerRoutes()
	return es, nil
}

func (es *EchoServer) registerRoutes() {
	es.e.GET("/healthz", es.h.HandleHealthz)

	app := es.e.Group("")
	app.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:" + echo.HeaderXCSRFToken + ",form:csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
	}))
	app.GET("/", es.h.HandleDashboard)
	app.GET("/fragments/kpis", es.h.HandleKPIsFragment)
	app.GET("/fragments/live-feed", es.h.HandleLiveFeedFragment)
	app.GET("/fragments/recent-tickets", es.h.HandleRecentTicketsFragment)
	app.GET("/fragments/toasts", es.h.HandleToastsFragment)
	app.GET("/api/charts/status", es.h.HandleStatusChart)
	app.GET("/api/charts/response", es.h.HandleResponseChart)
	app.GET("/api/view", es.h.HandleView)
	app.GET("/events", es.h.HandleEvents)
	app.POST("/refresh", es.h.HandleRefresh)
}

// Handler exposes the router for use with a custom http.Server.
func (es *EchoServer) Handler() http.Handler {
	return es.e
}

// StartServer serves on server until it is shut down.
func (es *EchoServer) StartServer(server *http.Server) error {
	server.Handler = es.e
	return server.ListenAndServe()
}

func requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		id := strings.TrimSpace(c.Request().Header.Get(echo.HeaderXRequestID))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(handlers.ContextKeyRequestID, id)
		c.Response().Header().Set(echo.HeaderXRequestID, id)
		return next(c)
	}
}

type statusCoder interface {
	StatusCode() int
}

func httpStatusFromError(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		if code := sc.StatusCode(); code != 0 {
			return code
		}
	}
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code != 0 {
		return he.Code
	}
	return http.StatusInternalServerError
}

// httpErrorHandler never echoes error details back to the client.
func (es *EchoServer) httpErrorHandler(c *echo.Context, err error) {
	status := httpStatusFromError(err)
	switch {
	case status >= http.StatusInternalServerError:
		_ = es.h.RenderError(c, err)
	case status == http.StatusNotFound:
		_ = handlers.RenderNotFound(c)
	default:
		_ = c.String(status, http.StatusText(status))
	}
}
