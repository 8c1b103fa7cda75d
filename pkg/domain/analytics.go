package domain

import "time"

// AnalyticsPeriod is the window a dashboard covers.
type AnalyticsPeriod struct {
	Days      int       `json:"days"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// DashboardAnalytics is the /api/analytics/dashboard response.
// Sections are backend-defined maps; the client only renders them.
type DashboardAnalytics struct {
	Period                AnalyticsPeriod `json:"period"`
	EmailAnalytics        map[string]any  `json:"email_analytics"`
	CalendarAnalytics     map[string]any  `json:"calendar_analytics"`
	CreditAnalytics       map[string]any  `json:"credit_analytics"`
	AIAnalytics           map[string]any  `json:"ai_analytics"`
	NotificationAnalytics map[string]any  `json:"notification_analytics"`
	ProductivityMetrics   map[string]any  `json:"productivity_metrics"`
}

// ProductivityScore is the /api/analytics/productivity-score response.
type ProductivityScore struct {
	Score      float64            `json:"productivity_score"`
	Grade      string             `json:"grade,omitempty"`
	Components map[string]float64 `json:"components,omitempty"`
}
