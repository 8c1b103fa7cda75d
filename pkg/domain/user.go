package domain

import "time"

// User is the authenticated account as returned by /api/auth/me.
type User struct {
	ID                 string        `json:"id"`
	Email              string        `json:"email"`
	Profile            Profile       `json:"profile"`
	Preferences        Preferences   `json:"preferences"`
	Credits            CreditBalance `json:"credits"`
	Connections        Connections   `json:"connections"`
	Activity           Activity      `json:"activity"`
	SubscriptionStatus string        `json:"subscription_status,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	LastLogin          *time.Time    `json:"last_login,omitempty"`
}

// DisplayName returns the profile name, falling back to the email address.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Profile.FullName != "" {
		return u.Profile.FullName
	}
	return u.Email
}

// Profile holds the user-editable identity fields.
type Profile struct {
	FullName    string `json:"full_name"`
	JobTitle    string `json:"job_title,omitempty"`
	Company     string `json:"company,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Bio         string `json:"bio,omitempty"`
}

// Preferences controls working hours and notification behavior.
type Preferences struct {
	Timezone             string   `json:"timezone,omitempty"`
	WorkHoursStart       string   `json:"work_hours_start,omitempty"`
	WorkHoursEnd         string   `json:"work_hours_end,omitempty"`
	WorkDays             []string `json:"work_days,omitempty"`
	NotificationChannels []string `json:"notification_channels,omitempty"`
	UrgentKeywords       []string `json:"urgent_keywords,omitempty"`
	QuietHoursStart      string   `json:"quiet_hours_start,omitempty"`
	QuietHoursEnd        string   `json:"quiet_hours_end,omitempty"`
}

// CreditBalance is the user's credit ledger summary.
type CreditBalance struct {
	TotalCredits     int        `json:"total_credits"`
	UsedCredits      int        `json:"used_credits"`
	RemainingCredits int        `json:"remaining_credits"`
	UsageThisMonth   int        `json:"usage_this_month"`
	LastPurchaseDate *time.Time `json:"last_purchase_date,omitempty"`
	CreditExpiryDate *time.Time `json:"credit_expiry_date,omitempty"`
	NeedsRefill      bool       `json:"needs_refill,omitempty"`
}

// Connections reports which third-party accounts are linked.
// Provider tokens never leave the backend.
type Connections struct {
	GoogleConnected        bool     `json:"google_connected"`
	MicrosoftConnected     bool     `json:"microsoft_connected"`
	ConnectedCalendars     []string `json:"connected_calendars,omitempty"`
	ConnectedEmailAccounts []string `json:"connected_email_accounts,omitempty"`
}

// Activity is the per-user usage counter block.
type Activity struct {
	EmailsProcessed       int        `json:"emails_processed"`
	DraftsGenerated       int        `json:"drafts_generated"`
	MeetingsScheduled     int        `json:"meetings_scheduled"`
	NotificationsSent     int        `json:"notifications_sent"`
	TotalTimeSavedMinutes int        `json:"total_time_saved_minutes"`
	LastActive            *time.Time `json:"last_active,omitempty"`
}

// Settings is the payload of /api/users/settings.
type Settings struct {
	Preferences Preferences `json:"preferences"`
}
