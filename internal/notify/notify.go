// Package notify implements the dashboard's transient toast notifications.
//
// Each toast lives for its own duration, then spends DismissAnimation in the
// dismissing state (so the browser can play its slide-out animation) and is
// finally removed. Toasts never coordinate with each other.
package notify

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opsboard/opsboard/internal/broadcast"
	"github.com/opsboard/opsboard/internal/metrics"
	"k8s.io/utils/clock"
)

type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

type State string

const (
	StateVisible    State = "visible"
	StateDismissing State = "dismissing"
)

const (
	DefaultDuration  = 4000 * time.Millisecond
	DismissAnimation = 300 * time.Millisecond
)

// Notifier is the narrow surface the fetch layer reports failures through.
type Notifier interface {
	Notify(message string, kind Kind, duration time.Duration) Toast
}

type Toast struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Icon      string    `json:"icon"`
	Message   string    `json:"message"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeKind maps unknown kinds to info.
func NormalizeKind(kind Kind) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(string(kind)))) {
	case KindSuccess:
		return KindSuccess
	case KindWarning:
		return KindWarning
	case KindError:
		return KindError
	default:
		return KindInfo
	}
}

// Icon returns the glyph shown in front of a toast of the given kind.
func Icon(kind Kind) string {
	switch kind {
	case KindInfo:
		return "ℹ️"
	case KindSuccess:
		return "✅"
	case KindWarning:
		return "⚠️"
	case KindError:
		return "❌"
	default:
		return ""
	}
}

type container struct {
	createdAt time.Time
	toasts    []*Toast
	timers    map[string][]clock.Timer
}

// Center owns the toast container. The zero value is not usable; call New.
type Center struct {
	clock clock.WithDelayedExecution
	hub   broadcast.Hub

	mu        sync.Mutex
	container *container
	closed    bool
}

func New(clk clock.WithDelayedExecution) *Center {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Center{clock: clk}
}

// Notify appends a toast and schedules its dismissal. A non-positive
// duration means DefaultDuration.
func (c *Center) Notify(message string, kind Kind, duration time.Duration) Toast {
	if duration <= 0 {
		duration = DefaultDuration
	}
	kind = NormalizeKind(kind)
	toast := &Toast{
		ID:        uuid.NewString(),
		Kind:      kind,
		Icon:      Icon(kind),
		Message:   message,
		State:     StateVisible,
		CreatedAt: c.clock.Now(),
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return *toast
	}
	if c.container == nil {
		c.container = &container{createdAt: toast.CreatedAt, timers: make(map[string][]clock.Timer)}
	}
	c.container.toasts = append(c.container.toasts, toast)
	out := *toast
	c.mu.Unlock()

	metrics.ToastsTotal.WithLabelValues(string(kind)).Inc()
	c.hub.Publish()

	// Timers are armed outside c.mu: a fake clock fires callbacks while
	// holding its own lock, and the callbacks take c.mu.
	id := toast.ID
	dismiss := c.clock.AfterFunc(duration, func() { c.dismiss(id) })
	remove := c.clock.AfterFunc(duration+DismissAnimation, func() { c.remove(id) })

	c.mu.Lock()
	if c.container != nil && !c.closed {
		c.container.timers[id] = []clock.Timer{dismiss, remove}
	} else {
		dismiss.Stop()
		remove.Stop()
	}
	c.mu.Unlock()

	return out
}

func (c *Center) dismiss(id string) {
	c.mu.Lock()
	changed := false
	if c.container != nil {
		for _, t := range c.container.toasts {
			if t.ID == id && t.State == StateVisible {
				t.State = StateDismissing
				changed = true
				break
			}
		}
	}
	c.mu.Unlock()
	if changed {
		c.hub.Publish()
	}
}

func (c *Center) remove(id string) {
	c.mu.Lock()
	changed := false
	if c.container != nil {
		for i, t := range c.container.toasts {
			if t.ID == id {
				c.container.toasts = append(c.container.toasts[:i], c.container.toasts[i+1:]...)
				changed = true
				break
			}
		}
		delete(c.container.timers, id)
	}
	c.mu.Unlock()
	if changed {
		c.hub.Publish()
	}
}

// Toasts returns the current stack, oldest first.
func (c *Center) Toasts() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.container == nil {
		return nil
	}
	out := make([]Toast, 0, len(c.container.toasts))
	for _, t := range c.container.toasts {
		out = append(out, *t)
	}
	return out
}

// ContainerCreated reports whether any toast has ever been raised.
func (c *Center) ContainerCreated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.container != nil
}

// Subscribe returns a coalesced change signal for the toast stack.
func (c *Center) Subscribe() (<-chan struct{}, func()) {
	return c.hub.Subscribe()
}

// Close stops every pending dismissal timer. Toasts raised afterwards are
// returned but not stored.
func (c *Center) Close() {
	c.mu.Lock()
	c.closed = true
	var pending []clock.Timer
	if c.container != nil {
		for id, timers := range c.container.timers {
			pending = append(pending, timers...)
			delete(c.container.timers, id)
		}
	}
	c.mu.Unlock()

	for _, t := range pending {
		t.Stop()
	}
}

// Discard is a Notifier that drops every toast. Widgets whose failures
// must stay silent fetch through a client wired to it.
type Discard struct{}

func (Discard) Notify(message string, kind Kind, _ time.Duration) Toast {
	return Toast{Kind: NormalizeKind(kind), Message: message}
}
