package model

import "time"

// Event is a venue happening members can RSVP to.  Placeholder events are
// synthesized for display and never persisted.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Venue       string    `json:"venue"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	Placeholder bool      `json:"placeholder,omitempty"`
}

// Registration records one user's RSVP to one event.  The (UserID,
// EventID) pair is unique.
type Registration struct {
	ID        string    `json:"id"`
	EventID   string    `json:"eventId"`
	EventName string    `json:"eventName"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	CreatedAt time.Time `json:"createdAt"`
}
