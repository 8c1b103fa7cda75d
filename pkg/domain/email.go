package domain

import "time"

// Email status and priority values accepted by the PATCH endpoints.
const (
	EmailStatusUnread   = "unread"
	EmailStatusRead     = "read"
	EmailStatusArchived = "archived"

	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// EmailAddress is a sender or recipient.
type EmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Type  string `json:"type,omitempty"`
}

// AIAnalysis is the backend's classification of an email.
type AIAnalysis struct {
	Sentiment        string   `json:"sentiment"`
	UrgencyScore     float64  `json:"urgency_score"`
	Topics           []string `json:"topics,omitempty"`
	ActionRequired   bool     `json:"action_required"`
	SuggestedActions []string `json:"suggested_actions,omitempty"`
	MeetingRequest   bool     `json:"meeting_request"`
}

// Email is a synced message.
type Email struct {
	ID             string         `json:"id"`
	Provider       string         `json:"provider"`
	Subject        string         `json:"subject"`
	BodyText       string         `json:"body_text,omitempty"`
	Sender         EmailAddress   `json:"sender"`
	Recipients     []EmailAddress `json:"recipients,omitempty"`
	Priority       string         `json:"priority"`
	Status         string         `json:"status"`
	ReceivedAt     time.Time      `json:"received_at"`
	HasAttachments bool           `json:"has_attachments"`
	AIAnalysis     *AIAnalysis    `json:"ai_analysis,omitempty"`
}

// EmailList is a page of emails.
type EmailList struct {
	Emails      []Email `json:"emails"`
	TotalCount  int     `json:"total_count"`
	UnreadCount int     `json:"unread_count"`
	Page        int     `json:"page"`
	Limit       int     `json:"limit"`
}

// Draft lengths accepted by generate-draft.
const (
	DraftBrief    = "brief"
	DraftMedium   = "medium"
	DraftDetailed = "detailed"
)

// DraftRequest asks the backend to write a reply. Empty fields take the
// backend defaults (reply, professional, medium).
type DraftRequest struct {
	OriginalEmailID    string `json:"original_email_id"`
	ResponseType       string `json:"response_type,omitempty"`
	Tone               string `json:"tone,omitempty"`
	Length             string `json:"length,omitempty"`
	CustomInstructions string `json:"custom_instructions,omitempty"`
}

// Draft is an AI-written email awaiting send.
type Draft struct {
	ID            string         `json:"id"`
	To            []EmailAddress `json:"to"`
	Subject       string         `json:"subject"`
	BodyHTML      string         `json:"body_html,omitempty"`
	BodyText      string         `json:"body_text,omitempty"`
	GeneratedByAI bool           `json:"generated_by_ai"`
	AIConfidence  float64        `json:"ai_confidence"`
	CreatedAt     time.Time      `json:"created_at"`
}

// SentDraft is the reply to a draft send.
type SentDraft struct {
	Message   string `json:"message"`
	MessageID string `json:"message_id,omitempty"`
}
