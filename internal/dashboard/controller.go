// Package dashboard owns the dashboard's view state and the refresh cycle
// that keeps it current.
package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/opsboard/opsboard/internal/api"
	"github.com/opsboard/opsboard/internal/metrics"
	"github.com/opsboard/opsboard/internal/models"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"
)

const (
	DefaultInterval      = 30 * time.Second
	DefaultLogLimit      = 20
	DefaultRecentTickets = 5
)

// Trigger origins, as counted by refresh_triggers_total.
const (
	OriginStartup = "startup"
	OriginTimer   = "timer"
	OriginEvent   = "event"
	OriginManual  = "manual"
)

var recentTicketsQuery = api.TicketQuery{SortBy: "created_at", Order: "desc"}

// Source is the backend data the refresh cycle reads.
type Source interface {
	ServiceStats(ctx context.Context) (models.ServiceStats, error)
	TicketStats(ctx context.Context) (models.TicketStats, error)
	Services(ctx context.Context) ([]models.Service, error)
	Logs(ctx context.Context, limit int) ([]models.LogEntry, error)
}

// TicketSource feeds the recent tickets widget.
type TicketSource interface {
	Tickets(ctx context.Context, q api.TicketQuery) ([]models.Ticket, error)
}

type Options struct {
	Clock         clock.WithTicker
	Logger        *slog.Logger
	Interval      time.Duration
	LogLimit      int
	RecentTickets int
}

type Controller struct {
	source  Source
	tickets TicketSource
	state   *ViewState

	clock         clock.WithTicker
	logger        *slog.Logger
	interval      time.Duration
	logLimit      int
	recentTickets int

	trigger chan struct{}
	wg      sync.WaitGroup
}

// NewController wires a controller. tickets should not raise toasts of its
// own; the recent tickets widget fails silently.
func NewController(source Source, tickets TicketSource, state *ViewState, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.LogLimit <= 0 {
		opts.LogLimit = DefaultLogLimit
	}
	if opts.RecentTickets <= 0 {
		opts.RecentTickets = DefaultRecentTickets
	}
	if state == nil {
		state = NewViewState(FeedCapacity)
	}
	return &Controller{
		source:        source,
		tickets:       tickets,
		state:         state,
		clock:         opts.Clock,
		logger:        opts.Logger,
		interval:      opts.Interval,
		logLimit:      opts.LogLimit,
		recentTickets: opts.RecentTickets,
		trigger:       make(chan struct{}, 1),
	}
}

func (c *Controller) State() *ViewState {
	return c.state
}

// Load runs one refresh cycle. The four fetches run concurrently and the
// view is only touched when all of them succeed.
func (c *Controller) Load(ctx context.Context) error {
	start := c.clock.Now()

	var (
		g    errgroup.Group
		data CycleData
	)
	g.Go(func() error {
		var err error
		data.ServiceStats, err = c.source.ServiceStats(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		data.TicketStats, err = c.source.TicketStats(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		data.Services, err = c.source.Services(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		data.Logs, err = c.source.Logs(ctx, c.logLimit)
		return err
	})
	err := g.Wait()
	took := c.clock.Since(start)
	metrics.RefreshDuration.Observe(took.Seconds())
	if err != nil {
		metrics.RefreshCyclesTotal.WithLabelValues("failure").Inc()
		c.logger.Error("dashboard refresh failed", "err", err)
		return err
	}

	now := c.clock.Now()
	c.state.ApplyCycle(data, now, took)
	metrics.RefreshCyclesTotal.WithLabelValues("success").Inc()
	metrics.RefreshLastSuccessTimestamp.Set(float64(now.Unix()))
	c.logger.Debug("dashboard refreshed", "duration", took, "services", len(data.Services), "logs", len(data.Logs))

	if c.tickets != nil {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			_ = c.LoadRecentTickets(ctx)
		}()
	}
	return nil
}

// LoadRecentTickets refreshes the recent tickets widget. Failures are
// logged and leave the widget as it was.
func (c *Controller) LoadRecentTickets(ctx context.Context) error {
	if c.tickets == nil {
		return nil
	}
	tickets, err := c.tickets.Tickets(ctx, recentTicketsQuery)
	if err != nil {
		c.logger.Warn("load recent tickets failed", "err", err)
		return err
	}
	c.state.SetRecentTickets(tickets, c.recentTickets, c.clock.Now())
	return nil
}

// HandleEvent prepends the event's feed line, if any, and requests a
// refresh regardless of the event type.
func (c *Controller) HandleEvent(ev models.Event) {
	rendered := c.state.PrependEvent(ev)
	metrics.PushEventsTotal.WithLabelValues(eventTypeLabel(ev.Type), boolLabel(rendered)).Inc()
	c.Trigger(OriginEvent)
}

// Trigger requests a refresh cycle. Requests made while a cycle is pending
// or running collapse into a single trailing cycle.
func (c *Controller) Trigger(origin string) {
	metrics.RefreshTriggersTotal.WithLabelValues(origin).Inc()
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// Run performs a cycle immediately, then one per interval tick and per
// trigger, never two at once. Events are handled as they arrive, also
// while a cycle is in flight. Run returns when ctx is done.
func (c *Controller) Run(ctx context.Context, events <-chan models.Event) {
	if events != nil {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.consume(ctx, events)
		}()
	}

	c.Trigger(OriginStartup)

	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.wg.Wait()
			return
		case <-ticker.C():
			c.Trigger(OriginTimer)
		case <-c.trigger:
			if ctx.Err() != nil {
				continue
			}
			_ = c.Load(ctx)
		}
	}
}

// Wait blocks until background ticket refreshes and event consumers exit.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) consume(ctx context.Context, events <-chan models.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.HandleEvent(ev)
		}
	}
}

func eventTypeLabel(t string) string {
	switch t {
	case models.EventServiceStatusChange, models.EventTicketCreated, models.EventCriticalLog:
		return t
	default:
		return "other"
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
