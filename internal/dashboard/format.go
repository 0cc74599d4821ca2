package dashboard

import (
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/opsboard/opsboard/internal/models"
)

const (
	emDash = "—"

	classSlate = "bg-slate-700 text-slate-300"
)

var statusBadgeClasses = map[string]string{
	"online":      "bg-emerald-900 text-emerald-300",
	"degraded":    "bg-yellow-900 text-yellow-300",
	"offline":     "bg-red-900 text-red-300",
	"unknown":     classSlate,
	"open":        "bg-blue-900 text-blue-300",
	"in_progress": "bg-yellow-900 text-yellow-300",
	"resolved":    "bg-emerald-900 text-emerald-300",
	"closed":      classSlate,
}

// StatusBadgeClass maps a service or ticket status to its badge colors.
func StatusBadgeClass(status string) string {
	if cls, ok := statusBadgeClasses[status]; ok {
		return cls
	}
	return classSlate
}

// StatusLabel is the human label of a status ("in_progress" -> "in progress").
func StatusLabel(status string) string {
	return strings.Replace(status, "_", " ", 1)
}

// PriorityBadgeClass derives the badge class straight from the priority value.
func PriorityBadgeClass(priority string) string {
	return "priority-" + priority
}

// LevelClass maps a log level to the color of its feed tag.
func LevelClass(level string) string {
	switch level {
	case models.LevelInfo:
		return "text-blue-400"
	case models.LevelWarning:
		return "text-yellow-400"
	case models.LevelError:
		return "text-red-400"
	case models.LevelCritical:
		return "text-red-500 font-bold"
	default:
		return "text-slate-400"
	}
}

// EscapeHTML returns text safe for insertion into markup.
func EscapeHTML(text string) string {
	return templ.EscapeString(text)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses the backend's ISO timestamps. Timestamps without an
// offset are UTC (the backend records utcnow()).
func ParseTimestamp(iso string) (time.Time, bool) {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, iso); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders an ISO timestamp as a local absolute date.
func FormatDate(iso string) string {
	return FormatDateIn(iso, time.Local)
}

// FormatDateIn renders an ISO timestamp as dd.mm.yyyy, hh:mm in loc.
func FormatDateIn(iso string, loc *time.Location) string {
	t, ok := ParseTimestamp(iso)
	if !ok {
		return emDash
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02.01.2006, 15:04")
}

// TimeAgo buckets the age of an ISO timestamp relative to now.
func TimeAgo(iso string, now time.Time) string {
	t, ok := ParseTimestamp(iso)
	if !ok {
		return "Never"
	}
	seconds := int64(now.Sub(t) / time.Second)
	switch {
	case seconds < 60:
		return "Just now"
	case seconds < 3600:
		return strconv.FormatInt(seconds/60, 10) + "m ago"
	case seconds < 86400:
		return strconv.FormatInt(seconds/3600, 10) + "h ago"
	default:
		return strconv.FormatInt(seconds/86400, 10) + "d ago"
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
