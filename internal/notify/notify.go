// Package notify provides desktop notifications via D-Bus and the policy that
// turns now-playing tracks into toasts.
package notify

import "errors"

// Urgency is the freedesktop notification urgency byte.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// ParseUrgency maps "low", "normal" or "critical" to an Urgency.
// Anything else yields UrgencyLow.
func ParseUrgency(s string) Urgency {
	switch s {
	case "normal":
		return UrgencyNormal
	case "critical":
		return UrgencyCritical
	default:
		return UrgencyLow
	}
}

// ErrUnavailable is returned by Notify when no notification service is reachable.
var ErrUnavailable = errors.New("notification service unavailable")

// Notification contains data for a desktop notification.
type Notification struct {
	Title      string  // Summary text (required)
	Body       string  // Body text (optional, plain; escaped by sinks that render markup)
	Icon       string  // Icon name or path shown as app icon (optional)
	Image      string  // Path to an image shown with the notification (optional)
	Category   string  // freedesktop category hint (optional)
	Silent     bool    // Ask the server not to play a sound
	Timeout    int32   // ms, -1 = server default, 0 = never expire
	ReplacesID uint32  // 0 = new notification, >0 = replace existing
	Urgency    Urgency // Low, Normal, Critical
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify sends a notification and returns its ID.
	Notify(n Notification) (uint32, error)
	// Close closes a notification by ID.
	Close(id uint32) error
}
