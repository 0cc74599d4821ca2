package dashboard

import (
	"sync"
	"time"

	"github.com/opsboard/opsboard/internal/broadcast"
	"github.com/opsboard/opsboard/internal/metrics"
	"github.com/opsboard/opsboard/internal/models"
)

const (
	TicketsPlaceholder = "No tickets"
	DefaultCategory    = "General"
)

// KPIs are the four headline figures, already formatted for display.
type KPIs struct {
	ServicesTotal  string `json:"services_total"`
	ServicesOnline string `json:"services_online"`
	OnlinePercent  string `json:"online_percent"`
	OpenTickets    string `json:"open_tickets"`
	AvgResponse    string `json:"avg_response"`
}

func emptyKPIs() KPIs {
	return KPIs{
		ServicesTotal:  emDash,
		ServicesOnline: emDash,
		OnlinePercent:  "",
		OpenTickets:    emDash,
		AvgResponse:    emDash,
	}
}

// BuildKPIs formats the service and ticket aggregates.
func BuildKPIs(stats models.ServiceStats, tickets models.TicketStats) KPIs {
	avg := emDash
	if stats.AvgResponseTimeMS != nil && *stats.AvgResponseTimeMS != 0 {
		avg = formatNumber(*stats.AvgResponseTimeMS)
	}
	return KPIs{
		ServicesTotal:  formatNumber(float64(stats.Total)),
		ServicesOnline: formatNumber(float64(stats.Online)),
		OnlinePercent:  "(" + formatNumber(stats.OnlinePercentage) + "%)",
		OpenTickets:    formatNumber(float64(tickets.Open + tickets.InProgress)),
		AvgResponse:    avg,
	}
}

// TicketRow is one line of the recent tickets widget.
type TicketRow struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Created       string `json:"created"`
	CreatedAgo    string `json:"created_ago"`
	Category      string `json:"category"`
	Priority      string `json:"priority"`
	PriorityClass string `json:"priority_class"`
	Status        string `json:"status"`
	StatusLabel   string `json:"status_label"`
	StatusClass   string `json:"status_class"`
}

// BuildTicketRows keeps the first limit tickets in the order given.
func BuildTicketRows(tickets []models.Ticket, limit int, now time.Time) []TicketRow {
	if limit >= 0 && len(tickets) > limit {
		tickets = tickets[:limit]
	}
	rows := make([]TicketRow, 0, len(tickets))
	for _, t := range tickets {
		category := DefaultCategory
		if t.Category != nil && *t.Category != "" {
			category = *t.Category
		}
		rows = append(rows, TicketRow{
			ID:            t.ID,
			Title:         t.Title,
			Created:       FormatDate(t.CreatedAt),
			CreatedAgo:    TimeAgo(t.CreatedAt, now),
			Category:      category,
			Priority:      t.Priority,
			PriorityClass: PriorityBadgeClass(t.Priority),
			Status:        t.Status,
			StatusLabel:   StatusLabel(t.Status),
			StatusClass:   StatusBadgeClass(t.Status),
		})
	}
	return rows
}

// CycleData is everything one successful refresh cycle fetched.
type CycleData struct {
	ServiceStats models.ServiceStats
	TicketStats  models.TicketStats
	Services     []models.Service
	Logs         []models.LogEntry
}

// View is an immutable snapshot of the dashboard.
type View struct {
	Version       uint64        `json:"version"`
	KPIs          KPIs          `json:"kpis"`
	StatusChart   *ChartHandle  `json:"status_chart,omitempty"`
	ResponseChart *ChartHandle  `json:"response_chart,omitempty"`
	Feed          []FeedEntry   `json:"feed"`
	FeedEmpty     bool          `json:"feed_empty"`
	Tickets       []TicketRow   `json:"tickets"`
	TicketsLoaded bool          `json:"tickets_loaded"`
	RefreshedAt   time.Time     `json:"refreshed_at,omitzero"`
	RefreshTook   time.Duration `json:"refresh_took_ns,omitempty"`
}

// ViewState owns every widget of the dashboard. All mutations go through
// its methods and publish a change signal.
type ViewState struct {
	hub broadcast.Hub

	mu            sync.RWMutex
	version       uint64
	kpis          KPIs
	statusChart   ChartSlot
	responseChart ChartSlot
	feed          *Feed
	tickets       []TicketRow
	ticketsLoaded bool
	refreshedAt   time.Time
	refreshTook   time.Duration
}

func NewViewState(feedCapacity int) *ViewState {
	return &ViewState{
		kpis: emptyKPIs(),
		feed: NewFeed(feedCapacity),
	}
}

// ApplyCycle replaces KPIs, both charts and the feed in one step.
func (s *ViewState) ApplyCycle(data CycleData, now time.Time, took time.Duration) {
	s.mu.Lock()
	s.kpis = BuildKPIs(data.ServiceStats, data.TicketStats)
	s.statusChart.Replace(BuildStatusChart(data.ServiceStats))
	s.responseChart.Replace(BuildResponseChart(data.Services))
	s.feed.ReplaceFromLogs(data.Logs, now)
	s.refreshedAt = now
	s.refreshTook = took
	s.version++
	entries := s.feed.Len()
	s.mu.Unlock()

	metrics.FeedEntries.Set(float64(entries))
	s.hub.Publish()
}

// PrependEvent adds the feed line for ev, if it has one.
func (s *ViewState) PrependEvent(ev models.Event) bool {
	entry, ok := EventEntry(ev)
	if !ok {
		return false
	}
	s.mu.Lock()
	s.feed.Prepend(entry)
	s.version++
	entries := s.feed.Len()
	s.mu.Unlock()

	metrics.FeedEntries.Set(float64(entries))
	s.hub.Publish()
	return true
}

// SetRecentTickets replaces the recent tickets widget.
func (s *ViewState) SetRecentTickets(tickets []models.Ticket, limit int, now time.Time) {
	rows := BuildTicketRows(tickets, limit, now)
	s.mu.Lock()
	s.tickets = rows
	s.ticketsLoaded = true
	s.version++
	s.mu.Unlock()

	s.hub.Publish()
}

// Render snapshots the current state.
func (s *ViewState) Render() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return View{
		Version:       s.version,
		KPIs:          s.kpis,
		StatusChart:   snapshotHandle(s.statusChart.Current()),
		ResponseChart: snapshotHandle(s.responseChart.Current()),
		Feed:          s.feed.Entries(),
		FeedEmpty:     s.feed.ShowsPlaceholder(),
		Tickets:       append([]TicketRow(nil), s.tickets...),
		TicketsLoaded: s.ticketsLoaded,
		RefreshedAt:   s.refreshedAt,
		RefreshTook:   s.refreshTook,
	}
}

// LiveCharts reports the number of live handles per chart slot.
func (s *ViewState) LiveCharts() (status, response int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusChart.Live(), s.responseChart.Live()
}

// Changes subscribes to change signals; see broadcast.Hub.
func (s *ViewState) Changes() (<-chan struct{}, func()) {
	return s.hub.Subscribe()
}

func snapshotHandle(h *ChartHandle) *ChartHandle {
	if h == nil {
		return nil
	}
	return &ChartHandle{ID: h.ID, Spec: h.Spec}
}
