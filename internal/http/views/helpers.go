package views

import (
	"encoding/json"
	"strconv"

	"github.com/opsboard/opsboard/internal/dashboard"
	"github.com/opsboard/opsboard/internal/http/viewmodels"
)

const badgeBase = "px-2 py-0.5 rounded-full text-xs font-medium "

func FormatInt64(v int64) string {
	return strconv.FormatInt(v, 10)
}

func pageTitle(title string) string {
	if title == "" {
		return "opsboard"
	}
	return title + " · opsboard"
}

// hxHeaders is the hx-headers value that lets htmx requests pass CSRF.
func hxHeaders(csrfToken string) string {
	if csrfToken == "" {
		return ""
	}
	raw, err := json.Marshal(map[string]string{"X-CSRF-Token": csrfToken})
	if err != nil {
		return ""
	}
	return string(raw)
}

func refreshFooter(data viewmodels.DashboardViewData) string {
	footer := "Refreshing every " + data.RefreshInterval
	if data.PushEnabled {
		footer += " and on live events"
	}
	return footer
}

func feedTagClass(row dashboard.FeedEntry) string {
	return row.TagClass + " whitespace-nowrap text-xs"
}

func statusBadgeClass(status string) string {
	return badgeBase + dashboard.StatusBadgeClass(status)
}

func priorityBadgeClass(priority string) string {
	return badgeBase + dashboard.PriorityBadgeClass(priority)
}

func showToastContainer(stack viewmodels.ToastStackData) bool {
	return stack.ContainerCreated || len(stack.Toasts) > 0
}

func toastClass(t viewmodels.ToastViewData) string {
	class := "toast toast-" + t.Category
	if t.Dismissing {
		class += " toast-dismissing"
	}
	return class
}
