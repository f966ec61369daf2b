package model

import "time"

// Presence is the last heartbeat seen for a user.  Online is derived at
// read time from LastActive and is never stored.
type Presence struct {
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	LastActive time.Time `json:"lastActive"`
	Online     bool      `json:"online"`
}
