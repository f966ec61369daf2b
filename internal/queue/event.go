// Package queue carries domain events over RabbitMQ: the publisher used as
// a service event sink and the background consumer that keeps the audit
// log and sends booking notifications.
package queue

import (
	"encoding/json"
	"time"
)

// Exchange is the durable topic exchange every domain event is published
// to, with the event topic ("booking.created", ...) as routing key.
const Exchange = "hub.events"

// Envelope wraps one domain event on the wire.  Payload holds the JSON of
// the model value the service published (a booking, a registration, ...).
type Envelope struct {
	ID         string          `json:"id"`
	Topic      string          `json:"topic"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}
