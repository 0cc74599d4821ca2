package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/opsboard/opsboard/internal/dashboard"
	"github.com/opsboard/opsboard/internal/http/viewmodels"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func renderViewComponent(t *testing.T, component templ.Component) string {
	t.Helper()

	var buf bytes.Buffer
	if err := component.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render component: %v", err)
	}
	return buf.String()
}

func assertContains(t *testing.T, content, want string) {
	t.Helper()
	if !strings.Contains(content, want) {
		t.Fatalf("expected rendered HTML to contain %q", want)
	}
}

func assertNotContains(t *testing.T, content, disallowed string) {
	t.Helper()
	if strings.Contains(content, disallowed) {
		t.Fatalf("expected rendered HTML to not contain %q", disallowed)
	}
}

func parseFragment(t *testing.T, markup string) []*html.Node {
	t.Helper()
	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		t.Fatalf("parse markup: %v", err)
	}
	return nodes
}

func walk(nodes []*html.Node, fn func(*html.Node)) {
	for _, n := range nodes {
		fn(n)
		var children []*html.Node
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			children = append(children, c)
		}
		walk(children, fn)
	}
}

func textOf(n *html.Node) string {
	var b strings.Builder
	walk([]*html.Node{n}, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return b.String()
}

func TestLayoutEnablesGlobalHTMXBoost(t *testing.T) {
	t.Parallel()

	out := renderViewComponent(t, Layout(viewmodels.LayoutData{
		Title:     "Dashboard",
		CSRFToken: "csrf-token-123",
	}, nil))

	assertContains(t, out, `hx-boost="true"`)
	assertContains(t, out, `X-CSRF-Token`)
	assertContains(t, out, `csrf-token-123`)
	assertContains(t, out, `<title>Dashboard · opsboard</title>`)
	assertContains(t, out, `new EventSource("/events")`)
}

func TestDashboardPageHasWidgetIDs(t *testing.T) {
	t.Parallel()

	out := renderViewComponent(t, DashboardPage(viewmodels.DashboardViewData{
		Layout:          viewmodels.LayoutData{Title: "Dashboard"},
		View:            dashboard.NewViewState(dashboard.FeedCapacity).Render(),
		RefreshInterval: "30s",
		PushEnabled:     true,
	}))

	for _, id := range []string{
		"kpi-total", "kpi-online", "kpi-online-pct", "kpi-tickets", "kpi-response",
		"status-chart", "response-chart", "live-feed", "recent-tickets",
	} {
		assertContains(t, out, `id="`+id+`"`)
	}
	assertContains(t, out, `hx-get="/fragments/kpis"`)
	assertContains(t, out, `data-chart-src="/api/charts/response"`)
	assertContains(t, out, "Refreshing every 30s and on live events")
}

func TestLiveFeedPlaceholder(t *testing.T) {
	t.Parallel()

	out := renderViewComponent(t, LiveFeed(dashboard.View{FeedEmpty: true}))
	assertContains(t, out, dashboard.FeedPlaceholder)

	out = renderViewComponent(t, LiveFeed(dashboard.View{Feed: []dashboard.FeedEntry{{Time: "Just now", Tag: "[EVENT]", Message: "hi"}}}))
	assertNotContains(t, out, dashboard.FeedPlaceholder)
}

func TestLiveFeedEscapesMessages(t *testing.T) {
	t.Parallel()

	message := `<script>alert("x")</script> a & b <img src=x onerror=y>`
	out := renderViewComponent(t, LiveFeed(dashboard.View{Feed: []dashboard.FeedEntry{{
		Time:     "Just now",
		Tag:      "[EVENT]",
		TagClass: "text-blue-400",
		Message:  message,
	}}}))

	nodes := parseFragment(t, out)
	var found bool
	walk(nodes, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		if n.Data == "script" || n.Data == "img" {
			t.Fatalf("message was interpreted as markup: <%s>", n.Data)
		}
		for _, a := range n.Attr {
			if a.Key == "class" && a.Val == "text-slate-300" && textOf(n) == message {
				found = true
			}
		}
	})
	if !found {
		t.Fatalf("message not rendered as literal text: %s", out)
	}
}

func TestRecentTicketsRows(t *testing.T) {
	t.Parallel()

	out := renderViewComponent(t, RecentTickets(dashboard.View{
		TicketsLoaded: true,
		Tickets: []dashboard.TicketRow{{
			ID:         12,
			Title:      "Printer <on fire> & smoking",
			CreatedAgo: "5m ago",
			Category:   "General",
			Priority:   "high",
			Status:     "in_progress",
		}},
	}))

	assertContains(t, out, `data-ticket-id="12"`)
	assertContains(t, out, "Printer &lt;on fire&gt; &amp; smoking")
	assertContains(t, out, "5m ago · General")
	assertContains(t, out, `class="px-2 py-0.5 rounded-full text-xs font-medium priority-high"`)
	assertContains(t, out, `bg-yellow-900 text-yellow-300">in progress</span>`)
	assertNotContains(t, out, dashboard.TicketsPlaceholder)
}

func TestRecentTicketsPlaceholders(t *testing.T) {
	t.Parallel()

	out := renderViewComponent(t, RecentTickets(dashboard.View{}))
	assertContains(t, out, "Loading…")

	out = renderViewComponent(t, RecentTickets(dashboard.View{TicketsLoaded: true}))
	assertContains(t, out, dashboard.TicketsPlaceholder)
}

func TestToastRegionCreatesContainerLazily(t *testing.T) {
	t.Parallel()

	out := renderViewComponent(t, ToastRegion(viewmodels.ToastStackData{}))
	assertContains(t, out, `id="toast-region"`)
	assertNotContains(t, out, `id="toast-container"`)

	out = renderViewComponent(t, ToastRegion(viewmodels.ToastStackData{
		ContainerCreated: true,
		Toasts: []viewmodels.ToastViewData{
			{ID: "t1", Category: "error", Icon: "❌", Description: "Service not found"},
			{ID: "t2", Category: "info", Icon: "ℹ️", Description: "bye", Dismissing: true},
		},
	}))
	assertContains(t, out, `id="toast-container" class="toast-container"`)
	assertContains(t, out, `class="toast toast-error"`)
	assertContains(t, out, "Service not found")
	assertContains(t, out, `class="toast toast-info toast-dismissing"`)
}

func TestToastRendersOptionalParts(t *testing.T) {
	t.Parallel()

	out := renderViewComponent(t, Toast(viewmodels.ToastViewData{
		ID: "t9", Category: "success", Icon: "✅", Title: "Saved", Description: "<b>ok</b>",
	}))
	assertContains(t, out, `<div class="toast toast-success" role="status" data-toast-id="t9">`)
	assertContains(t, out, "<strong>Saved</strong>")
	assertContains(t, out, "&lt;b&gt;ok&lt;/b&gt;")

	out = renderViewComponent(t, Toast(viewmodels.ToastViewData{Category: "info", Icon: "ℹ️"}))
	assertContains(t, out, `<div class="toast toast-info" role="status">`)
	assertNotContains(t, out, "data-toast-id")
	assertNotContains(t, out, "<strong>")
}

func TestBadges(t *testing.T) {
	t.Parallel()

	assertContains(t, renderViewComponent(t, StatusBadge("offline")), `bg-red-900 text-red-300">offline</span>`)
	assertContains(t, renderViewComponent(t, PriorityBadge("low")), `priority-low">low</span>`)
}
