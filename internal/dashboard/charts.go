package dashboard

import (
	"sort"

	"github.com/google/uuid"
	"github.com/opsboard/opsboard/internal/models"
)

const (
	ColorGreen = "#34d399"
	ColorAmber = "#fbbf24"
	ColorRed   = "#f87171"
	ColorSlate = "#64748b"

	axisTickColor = "#94a3b8"
	gridColor     = "#1e293b"

	responseChartLimit = 8
)

// ChartSpec is a Chart.js configuration; the browser feeds it to new Chart().
type ChartSpec struct {
	Type    string         `json:"type"`
	Data    ChartData      `json:"data"`
	Options map[string]any `json:"options,omitempty"`
}

type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

type ChartDataset struct {
	Label           string    `json:"label,omitempty"`
	Data            []float64 `json:"data"`
	BackgroundColor []string  `json:"backgroundColor"`
	BorderWidth     *int      `json:"borderWidth,omitempty"`
	BorderRadius    int       `json:"borderRadius,omitempty"`
}

// ChartHandle is one rendered chart instance. A destroyed handle must not
// be drawn again; the browser drops its canvas binding when the id changes.
type ChartHandle struct {
	ID        string    `json:"id"`
	Spec      ChartSpec `json:"spec"`
	destroyed bool
}

func (h *ChartHandle) Destroy() {
	if h != nil {
		h.destroyed = true
	}
}

func (h *ChartHandle) Destroyed() bool {
	return h == nil || h.destroyed
}

// ChartSlot owns at most one live handle per widget.
type ChartSlot struct {
	handle    *ChartHandle
	created   int
	destroyed int
}

// Replace destroys the current handle, if any, and installs a new one.
func (s *ChartSlot) Replace(spec ChartSpec) *ChartHandle {
	if s.handle != nil && !s.handle.Destroyed() {
		s.handle.Destroy()
		s.destroyed++
	}
	s.handle = &ChartHandle{ID: uuid.NewString(), Spec: spec}
	s.created++
	return s.handle
}

func (s *ChartSlot) Current() *ChartHandle {
	return s.handle
}

// Live is the number of handles created and not yet destroyed.
func (s *ChartSlot) Live() int {
	return s.created - s.destroyed
}

// BuildStatusChart describes the online/degraded/offline/unknown doughnut.
func BuildStatusChart(stats models.ServiceStats) ChartSpec {
	zero := 0
	return ChartSpec{
		Type: "doughnut",
		Data: ChartData{
			Labels: []string{"Online", "Degraded", "Offline", "Unknown"},
			Datasets: []ChartDataset{{
				Data: []float64{
					float64(stats.Online),
					float64(stats.Degraded),
					float64(stats.Offline),
					float64(stats.Unknown),
				},
				BackgroundColor: []string{ColorGreen, ColorAmber, ColorRed, ColorSlate},
				BorderWidth:     &zero,
			}},
		},
		Options: map[string]any{
			"responsive":          true,
			"maintainAspectRatio": true,
			"cutout":              "65%",
			"plugins": map[string]any{
				"legend": map[string]any{
					"position": "bottom",
					"labels": map[string]any{
						"color": axisTickColor,
						"font":  map[string]any{"size": 12},
					},
				},
			},
		},
	}
}

// ResponseBar is one bar of the response-time chart.
type ResponseBar struct {
	Name           string
	ResponseTimeMS float64
	Color          string
}

// ResponseColor applies the latency thresholds: <200ms green, <1000ms amber,
// red otherwise.
func ResponseColor(ms float64) string {
	switch {
	case ms < 200:
		return ColorGreen
	case ms < 1000:
		return ColorAmber
	default:
		return ColorRed
	}
}

// SlowestServices drops services without a measurement and returns the
// slowest eight, slowest first.
func SlowestServices(services []models.Service) []ResponseBar {
	bars := make([]ResponseBar, 0, len(services))
	for _, s := range services {
		if s.ResponseTimeMS == nil {
			continue
		}
		ms := *s.ResponseTimeMS
		bars = append(bars, ResponseBar{Name: s.Name, ResponseTimeMS: ms, Color: ResponseColor(ms)})
	}
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].ResponseTimeMS > bars[j].ResponseTimeMS
	})
	if len(bars) > responseChartLimit {
		bars = bars[:responseChartLimit]
	}
	return bars
}

// BuildResponseChart describes the horizontal response-time bar chart.
func BuildResponseChart(services []models.Service) ChartSpec {
	bars := SlowestServices(services)
	labels := make([]string, 0, len(bars))
	data := make([]float64, 0, len(bars))
	colors := make([]string, 0, len(bars))
	for _, b := range bars {
		labels = append(labels, b.Name)
		data = append(data, b.ResponseTimeMS)
		colors = append(colors, b.Color)
	}
	return ChartSpec{
		Type: "bar",
		Data: ChartData{
			Labels: labels,
			Datasets: []ChartDataset{{
				Label:           "Response Time (ms)",
				Data:            data,
				BackgroundColor: colors,
				BorderRadius:    4,
			}},
		},
		Options: map[string]any{
			"responsive":          true,
			"maintainAspectRatio": true,
			"indexAxis":           "y",
			"plugins": map[string]any{
				"legend": map[string]any{"display": false},
			},
			"scales": map[string]any{
				"x": map[string]any{
					"grid":  map[string]any{"color": gridColor},
					"ticks": map[string]any{"color": axisTickColor},
				},
				"y": map[string]any{
					"grid":  map[string]any{"display": false},
					"ticks": map[string]any{"color": axisTickColor, "font": map[string]any{"size": 11}},
				},
			},
		},
	}
}
