package dashboard

import (
	"fmt"
	"time"

	"github.com/opsboard/opsboard/internal/models"
)

const (
	FeedCapacity    = 50
	FeedPlaceholder = "No events yet"

	eventTag  = "[EVENT]"
	eventTime = "Just now"
)

// FeedEntry is one rendered live-feed row. Time is fixed when the row is
// produced and is not recomputed afterwards.
type FeedEntry struct {
	Time     string `json:"time"`
	Tag      string `json:"tag"`
	TagClass string `json:"tag_class"`
	Message  string `json:"message"`
}

// Feed is the newest-first list of live-feed rows.
type Feed struct {
	capacity    int
	entries     []FeedEntry
	placeholder bool
}

func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = FeedCapacity
	}
	return &Feed{capacity: capacity, placeholder: true}
}

// ReplaceFromLogs discards every row and renders logs in the given order.
// An empty list shows the placeholder.
func (f *Feed) ReplaceFromLogs(logs []models.LogEntry, now time.Time) {
	entries := make([]FeedEntry, 0, min(len(logs), f.capacity))
	for _, l := range logs {
		if len(entries) == f.capacity {
			break
		}
		entries = append(entries, FeedEntry{
			Time:     TimeAgo(l.Timestamp, now),
			Tag:      "[" + l.Level + "]",
			TagClass: LevelClass(l.Level),
			Message:  l.Message,
		})
	}
	f.entries = entries
	f.placeholder = len(entries) == 0
}

// Prepend inserts a row at the top, clearing the placeholder and trimming
// the oldest rows beyond capacity.
func (f *Feed) Prepend(entry FeedEntry) {
	f.placeholder = false
	f.entries = append(f.entries, FeedEntry{})
	copy(f.entries[1:], f.entries)
	f.entries[0] = entry
	if len(f.entries) > f.capacity {
		f.entries = f.entries[:f.capacity]
	}
}

func (f *Feed) Entries() []FeedEntry {
	return append([]FeedEntry(nil), f.entries...)
}

func (f *Feed) Len() int {
	return len(f.entries)
}

func (f *Feed) ShowsPlaceholder() bool {
	return f.placeholder
}

// EventEntry renders a push event as a feed row. Only service status
// transitions and new tickets have a line; every other event, critical_log
// included, reports false.
func EventEntry(ev models.Event) (FeedEntry, bool) {
	var (
		message string
		class   string
	)
	switch ev.Type {
	case models.EventServiceStatusChange:
		var d models.ServiceStatusChange
		if err := ev.DecodeData(&d); err != nil {
			return FeedEntry{}, false
		}
		message = fmt.Sprintf("Service '%s' changed: %s → %s", d.ServiceName, d.OldStatus, d.NewStatus)
		class = "text-yellow-400"
		if d.NewStatus == "offline" {
			class = "text-red-400"
		}
	case models.EventTicketCreated:
		var d models.TicketCreated
		if err := ev.DecodeData(&d); err != nil {
			return FeedEntry{}, false
		}
		message = fmt.Sprintf("New ticket: %s (%s)", d.Title, d.Priority)
		class = "text-blue-400"
	default:
		return FeedEntry{}, false
	}
	return FeedEntry{Time: eventTime, Tag: eventTag, TagClass: class, Message: message}, true
}
