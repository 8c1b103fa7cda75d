package domain

import "time"

// Attendee is a calendar event participant.
type Attendee struct {
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	Status      string `json:"status,omitempty"`
	IsOrganizer bool   `json:"is_organizer,omitempty"`
}

// Location is where an event takes place.
type Location struct {
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"`
	VirtualLink string `json:"virtual_link,omitempty"`
	IsVirtual   bool   `json:"is_virtual,omitempty"`
}

// CalendarEvent is a synced or locally created event.
type CalendarEvent struct {
	ID            string     `json:"id,omitempty"`
	Provider      string     `json:"provider,omitempty"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Location      *Location  `json:"location,omitempty"`
	StartDateTime time.Time  `json:"start_datetime"`
	EndDateTime   time.Time  `json:"end_datetime"`
	AllDay        bool       `json:"all_day,omitempty"`
	Timezone      string     `json:"timezone,omitempty"`
	Attendees     []Attendee `json:"attendees,omitempty"`
	Status        string     `json:"status,omitempty"`
}

// Duration returns the event length.
func (e CalendarEvent) Duration() time.Duration {
	return e.EndDateTime.Sub(e.StartDateTime)
}
