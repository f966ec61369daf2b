package model

import "time"

// Booking is a reservation of the shared calendar for the half-open
// interval [Start, End).  End is always after Start.  Only the owning user
// may delete it.
//
// Fields:
//  ID        – uuid primary key.
//  Title     – free text shown in the calendar.
//  Start     – first instant of the slot.
//  End       – first instant after the slot.
//  UserID    – owner.
//  UserName  – owner display name at booking time.
//  CreatedAt – creation timestamp.
type Booking struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	CreatedAt time.Time `json:"createdAt"`
}
