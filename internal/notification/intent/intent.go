// Package intent defines the notification-intent contract between the
// scheduling core and the notification collaborator. The core only emits
// structured intents; delivery, retries, and channels are owned elsewhere.
package intent

import "context"

// Categories classify intents for the delivery side.
const (
	CategorySchedule    = "schedule"
	CategoryAppointment = "appointment"
	CategoryReminder    = "reminder"
)

// Intent is a structured request to inform one user of an event.
type Intent struct {
	UserID    int64
	Title     string
	Message   string
	Category  string
	RelatedID int64
	Link      string
}

// Emitter accepts notification intents. Implementations may persist,
// enqueue, or forward them; callers treat Emit as fire-and-forget and must
// never let an emit failure roll back the state change that triggered it.
type Emitter interface {
	Emit(ctx context.Context, in Intent) error
}
