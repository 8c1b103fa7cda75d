package domain

// Integration is one provider entry of /api/integrations/status.
type Integration struct {
	Connected bool     `json:"connected"`
	Services  []string `json:"services,omitempty"`
	LastSync  *string  `json:"last_sync,omitempty"`
	Status    string   `json:"status"`
}

// IntegrationStatus maps provider name (google, microsoft, openai, twilio)
// to its connection state.
type IntegrationStatus struct {
	Integrations map[string]Integration `json:"integrations"`
}
