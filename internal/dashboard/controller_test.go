package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opsboard/opsboard/internal/api"
	"github.com/opsboard/opsboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

type fakeSource struct {
	mu      sync.Mutex
	failOn  string
	calls   map[string]int
	cycles  atomic.Int32
	started chan struct{}
	gate    chan struct{}

	logLimit int
}

func newFakeSource() *fakeSource {
	return &fakeSource{calls: map[string]int{}, started: make(chan struct{}, 16)}
}

func (f *fakeSource) record(name string) error {
	f.mu.Lock()
	f.calls[name]++
	fail := f.failOn == name
	f.mu.Unlock()
	if fail {
		return errors.New(name + " unavailable")
	}
	return nil
}

func (f *fakeSource) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeSource) ServiceStats(context.Context) (models.ServiceStats, error) {
	f.cycles.Add(1)
	f.started <- struct{}{}
	if f.gate != nil {
		<-f.gate
	}
	return models.ServiceStats{Total: 4, Online: 3, Offline: 1, OnlinePercentage: 75}, f.record("service_stats")
}

func (f *fakeSource) TicketStats(context.Context) (models.TicketStats, error) {
	return models.TicketStats{Open: 3, InProgress: 2, Resolved: 1}, f.record("ticket_stats")
}

func (f *fakeSource) Services(context.Context) ([]models.Service, error) {
	return []models.Service{{Name: "api", ResponseTimeMS: ms(80)}}, f.record("services")
}

func (f *fakeSource) Logs(_ context.Context, limit int) ([]models.LogEntry, error) {
	f.mu.Lock()
	f.logLimit = limit
	f.mu.Unlock()
	return []models.LogEntry{{Level: "WARNING", Message: "slow"}}, f.record("logs")
}

type fakeTickets struct {
	err   error
	query atomic.Value
}

func (f *fakeTickets) Tickets(_ context.Context, q api.TicketQuery) ([]models.Ticket, error) {
	f.query.Store(q)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Ticket, 8)
	for i := range out {
		out[i] = models.Ticket{ID: int64(i + 1), Title: "ticket", Priority: "low", Status: "open"}
	}
	return out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestController(src *fakeSource, tickets TicketSource) (*Controller, *testingclock.FakeClock) {
	clk := testingclock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	c := NewController(src, tickets, NewViewState(FeedCapacity), Options{
		Clock:  clk,
		Logger: discardLogger(),
	})
	return c, clk
}

func TestLoadRendersEverything(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	tickets := &fakeTickets{}
	c, _ := newTestController(src, tickets)

	require.NoError(t, c.Load(context.Background()))
	c.Wait()

	v := c.State().Render()
	assert.Equal(t, "4", v.KPIs.ServicesTotal)
	assert.Equal(t, "3", v.KPIs.ServicesOnline)
	assert.Equal(t, "(75%)", v.KPIs.OnlinePercent)
	assert.Equal(t, "5", v.KPIs.OpenTickets)
	assert.Equal(t, emDash, v.KPIs.AvgResponse)
	require.NotNil(t, v.StatusChart)
	require.NotNil(t, v.ResponseChart)
	require.Len(t, v.Feed, 1)
	assert.Equal(t, "[WARNING]", v.Feed[0].Tag)
	assert.True(t, v.TicketsLoaded)
	assert.Len(t, v.Tickets, DefaultRecentTickets)

	assert.Equal(t, DefaultLogLimit, src.logLimit)
	assert.Equal(t, api.TicketQuery{SortBy: "created_at", Order: "desc"}, tickets.query.Load())
}

func TestLoadFailureRendersNothing(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.failOn = "services"
	tickets := &fakeTickets{}
	c, _ := newTestController(src, tickets)

	err := c.Load(context.Background())
	require.Error(t, err)
	c.Wait()

	v := c.State().Render()
	assert.Equal(t, uint64(0), v.Version)
	assert.Equal(t, emDash, v.KPIs.OpenTickets)
	assert.Nil(t, v.StatusChart)
	assert.False(t, v.TicketsLoaded)
	assert.Nil(t, tickets.query.Load())

	for _, name := range []string{"service_stats", "ticket_stats", "services", "logs"} {
		assert.Equal(t, 1, src.count(name), name)
	}
}

func TestRecentTicketsFailureIsContained(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	c, _ := newTestController(src, &fakeTickets{err: errors.New("boom")})

	require.NoError(t, c.Load(context.Background()))
	c.Wait()

	v := c.State().Render()
	assert.Equal(t, "5", v.KPIs.OpenTickets)
	assert.False(t, v.TicketsLoaded)
}

func TestHandleEventUnknownTypeStillTriggers(t *testing.T) {
	t.Parallel()

	c, _ := newTestController(newFakeSource(), nil)
	before := c.State().Render()

	c.HandleEvent(models.Event{Type: "service_deleted"})

	assert.Equal(t, before.Feed, c.State().Render().Feed)
	assert.Len(t, c.trigger, 1)
}

func TestHandleEventCriticalLogTriggersWithoutFeedLine(t *testing.T) {
	t.Parallel()

	c, _ := newTestController(newFakeSource(), nil)
	before := c.State().Render()

	c.HandleEvent(models.Event{Type: models.EventCriticalLog, Data: []byte(`{"source":"db","message":"disk full"}`)})

	after := c.State().Render()
	assert.Equal(t, before.Feed, after.Feed)
	assert.Equal(t, before.FeedEmpty, after.FeedEmpty)
	assert.Len(t, c.trigger, 1)
}

func TestTriggerCoalesces(t *testing.T) {
	t.Parallel()

	c, _ := newTestController(newFakeSource(), nil)
	for range 10 {
		c.Trigger(OriginManual)
	}
	assert.Len(t, c.trigger, 1)
}

func runController(t *testing.T, c *Controller, events <-chan models.Event) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx, events)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func TestRunCoalescesTriggersDuringCycle(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.gate = make(chan struct{})
	c, _ := newTestController(src, nil)
	runController(t, c, nil)

	<-src.started
	for range 5 {
		c.Trigger(OriginManual)
	}
	close(src.gate)

	<-src.started
	require.Eventually(t, func() bool { return c.State().Render().Version == 2 }, time.Second, 5*time.Millisecond)
	require.Never(t, func() bool { return src.cycles.Load() > 2 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestRunRefreshesOnTick(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	c, clk := newTestController(src, nil)
	runController(t, c, nil)

	<-src.started
	require.Eventually(t, clk.HasWaiters, time.Second, 5*time.Millisecond)

	clk.Step(DefaultInterval)
	<-src.started
	require.Eventually(t, func() bool { return c.State().Render().Version == 2 }, time.Second, 5*time.Millisecond)
}

func TestRunHandlesEvents(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	c, _ := newTestController(src, nil)
	events := make(chan models.Event)
	runController(t, c, events)

	<-src.started
	require.Eventually(t, func() bool { return c.State().Render().Version == 1 }, time.Second, 5*time.Millisecond)

	events <- models.Event{Type: "heartbeat"}
	<-src.started
	require.Eventually(t, func() bool { return src.cycles.Load() == 2 }, time.Second, 5*time.Millisecond)
}
