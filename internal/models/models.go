// Package models holds the wire types served by the helpdesk backend API
// and its live-feed websocket.
package models

import "encoding/json"

// ServiceStats is the aggregate returned by GET /api/services/stats.
type ServiceStats struct {
	Total             int      `json:"total"`
	Online            int      `json:"online"`
	Degraded          int      `json:"degraded"`
	Offline           int      `json:"offline"`
	Unknown           int      `json:"unknown"`
	OnlinePercentage  float64  `json:"online_percentage"`
	AvgResponseTimeMS *float64 `json:"avg_response_time_ms"`
}

// TicketStats is the aggregate returned by GET /api/tickets/stats.
type TicketStats struct {
	Total      int            `json:"total"`
	Open       int            `json:"open"`
	InProgress int            `json:"in_progress"`
	Resolved   int            `json:"resolved"`
	Closed     int            `json:"closed"`
	ByPriority map[string]int `json:"by_priority,omitempty"`
	ByCategory map[string]int `json:"by_category,omitempty"`
}

// Service is a monitored service as listed by GET /api/services.
type Service struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	URL            string   `json:"url"`
	CheckType      string   `json:"check_type"`
	Status         string   `json:"status"`
	ResponseTimeMS *float64 `json:"response_time_ms"`
	LastChecked    *string  `json:"last_checked"`
	IsActive       bool     `json:"is_active"`
}

const (
	LevelInfo     = "INFO"
	LevelWarning  = "WARNING"
	LevelError    = "ERROR"
	LevelCritical = "CRITICAL"
)

// LogEntry is a collected log line as listed by GET /api/logs.
type LogEntry struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Source    string `json:"source"`
	Message   string `json:"message"`
}

// Ticket is a helpdesk ticket as listed by GET /api/tickets.
type Ticket struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status"`
	Category    *string `json:"category"`
	AssignedTo  *string `json:"assigned_to"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

const (
	EventServiceStatusChange = "service_status_change"
	EventTicketCreated       = "ticket_created"
	EventCriticalLog         = "critical_log"
)

// Event is one message broadcast on the live-feed websocket.
type Event struct {
	Type      string          `json:"type"`
	Timestamp string          `json:"timestamp,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type ServiceStatusChange struct {
	ServiceName    string   `json:"service_name"`
	OldStatus      string   `json:"old_status"`
	NewStatus      string   `json:"new_status"`
	ResponseTimeMS *float64 `json:"response_time_ms"`
}

type TicketCreated struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Priority string `json:"priority"`
}

type CriticalLog struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// DecodeData unmarshals the event payload into dst. A missing payload
// leaves dst untouched.
func (e Event) DecodeData(dst any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	return json.Unmarshal(e.Data, dst)
}
