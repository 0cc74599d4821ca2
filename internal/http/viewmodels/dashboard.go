package viewmodels

import "github.com/opsboard/opsboard/internal/dashboard"

type DashboardViewData struct {
	Layout          LayoutData
	View            dashboard.View
	RefreshInterval string
	PushEnabled     bool
}
