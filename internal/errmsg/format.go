// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Session bus
	OpSubscribe Op = "subscribe to media sessions"
	OpSnapshot  Op = "read media session"

	// Notifications
	OpNotifyShow   Op = "show notification"
	OpNotifyUpdate Op = "update notification"
	OpNotifyClose  Op = "close notification"

	// Artwork
	OpArtworkResolve Op = "resolve artwork"
	OpArtworkPrune   Op = "prune artwork cache"

	// Configuration
	OpConfigLoad   Op = "load configuration"
	OpConfigReload Op = "reload configuration"
	OpConfigWatch  Op = "watch configuration"

	// Known sources
	OpSourceRegister Op = "register source"
	OpSourceList     Op = "list sources"
	OpSourceEnable   Op = "enable source"
	OpSourceDisable  Op = "disable source"
	OpSourceClear    Op = "clear sources"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}

// Wrap returns err annotated the same way Format renders it, keeping the
// original error available to errors.Is.
func Wrap(op Op, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
