package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusBadgeClass(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"online":      "bg-emerald-900 text-emerald-300",
		"resolved":    "bg-emerald-900 text-emerald-300",
		"degraded":    "bg-yellow-900 text-yellow-300",
		"in_progress": "bg-yellow-900 text-yellow-300",
		"offline":     "bg-red-900 text-red-300",
		"open":        "bg-blue-900 text-blue-300",
		"unknown":     classSlate,
		"closed":      classSlate,
		"archived":    classSlate,
	}
	for status, want := range cases {
		assert.Equal(t, want, StatusBadgeClass(status), status)
	}
}

func TestStatusLabelReplacesFirstUnderscore(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "in progress", StatusLabel("in_progress"))
	assert.Equal(t, "a b_c", StatusLabel("a_b_c"))
	assert.Equal(t, "online", StatusLabel("online"))
}

func TestPriorityBadgeClass(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "priority-critical", PriorityBadgeClass("critical"))
	assert.Equal(t, "priority-", PriorityBadgeClass(""))
}

func TestLevelClass(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "text-red-500 font-bold", LevelClass("CRITICAL"))
	assert.Equal(t, "text-red-400", LevelClass("ERROR"))
	assert.Equal(t, "text-yellow-400", LevelClass("WARNING"))
	assert.Equal(t, "text-blue-400", LevelClass("INFO"))
	assert.Equal(t, "text-slate-400", LevelClass("DEBUG"))
}

func TestEscapeHTML(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "&lt;b&gt;a &amp; b&lt;/b&gt;", EscapeHTML("<b>a & b</b>"))
	assert.Equal(t, "plain", EscapeHTML("plain"))
}

func TestTimeAgo(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		iso  string
		want string
	}{
		{"", "Never"},
		{"not a date", "Never"},
		{"2026-03-10T11:59:30Z", "Just now"},
		{"2026-03-10T11:59:00", "1m ago"},
		{"2026-03-10T11:15:00.5", "44m ago"},
		{"2026-03-10T09:00:00+00:00", "3h ago"},
		{"2026-03-08T12:00:00Z", "2d ago"},
		{"2026-03-10T12:05:00Z", "Just now"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TimeAgo(tc.iso, now), tc.iso)
	}
}

func TestFormatDateIn(t *testing.T) {
	t.Parallel()

	berlin := time.FixedZone("CET", 3600)
	assert.Equal(t, "05.01.2026, 14:07", FormatDateIn("2026-01-05T13:07:00", berlin))
	assert.Equal(t, "05.01.2026, 13:07", FormatDateIn("2026-01-05T13:07:00Z", nil))
	assert.Equal(t, emDash, FormatDateIn("", berlin))
}
