package handlers

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/opsboard/opsboard/internal/dashboard"
	"github.com/opsboard/opsboard/internal/http/viewmodels"
	"github.com/opsboard/opsboard/internal/http/views"
)

// HandleDashboard renders the dashboard page.
func (h *Handlers) HandleDashboard(c *echo.Context) error {
	data := viewmodels.DashboardViewData{
		Layout:          h.LayoutData(c, "Dashboard"),
		View:            h.view(),
		RefreshInterval: h.refreshInterval(),
		PushEnabled:     !h.Cfg.PushDisabled && h.Cfg.PushURL != "",
	}
	return h.RenderComponent(c, views.DashboardPage(data))
}

func (h *Handlers) HandleKPIsFragment(c *echo.Context) error {
	addVary(c, headerHXRequest)
	return h.RenderComponent(c, views.KPIs(h.view().KPIs))
}

func (h *Handlers) HandleLiveFeedFragment(c *echo.Context) error {
	addVary(c, headerHXRequest)
	return h.RenderComponent(c, views.LiveFeed(h.view()))
}

func (h *Handlers) HandleRecentTicketsFragment(c *echo.Context) error {
	addVary(c, headerHXRequest)
	return h.RenderComponent(c, views.RecentTickets(h.view()))
}

func (h *Handlers) HandleToastsFragment(c *echo.Context) error {
	addVary(c, headerHXRequest)
	return h.RenderComponent(c, views.ToastRegion(h.toastStack()))
}

// HandleStatusChart returns the current status chart handle, or 204 before
// the first successful refresh.
func (h *Handlers) HandleStatusChart(c *echo.Context) error {
	return chartResponse(c, h.view().StatusChart)
}

// HandleResponseChart returns the current response-time chart handle.
func (h *Handlers) HandleResponseChart(c *echo.Context) error {
	return chartResponse(c, h.view().ResponseChart)
}

func chartResponse(c *echo.Context, handle *dashboard.ChartHandle) error {
	c.Response().Header().Set("Cache-Control", "no-store")
	if handle == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, handle)
}

// HandleView returns the whole view snapshot as JSON.
func (h *Handlers) HandleView(c *echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, h.view())
}

// HandleRefresh requests a refresh cycle. htmx callers get 204; plain form
// posts are redirected back to the dashboard with a flash toast.
func (h *Handlers) HandleRefresh(c *echo.Context) error {
	if h.Refresher != nil {
		h.Refresher.Trigger(dashboard.OriginManual)
	}
	addVary(c, headerHXRequest)
	if isHX(c) {
		hxTrigger(c, "refresh-requested")
		return c.NoContent(http.StatusNoContent)
	}
	setFlashToast(c, viewmodels.ToastViewData{Category: "info", Description: "Refresh requested"})
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handlers) HandleHealthz(c *echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (h *Handlers) refreshInterval() string {
	if h.Cfg.RefreshInterval <= 0 {
		return dashboard.DefaultInterval.String()
	}
	return h.Cfg.RefreshInterval.String()
}
