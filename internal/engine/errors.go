// Package engine implements the command authorization and rate-limiting
// core of the bot: access decisions, per-user quotas, group protection
// screening, and command dispatch. This file centralizes the error values
// the engine returns so callers can translate them into chat replies.
//
// Translation rules (see Pipeline): ErrPermissionDenied is swallowed
// silently so a non-owner talking to a private-mode bot learns nothing;
// every other error becomes a single reply quoting the offending message.
package engine

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrPermissionDenied indicates the private-mode gate rejected the
	// sender. It is never surfaced to the chat.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrAdminOnly indicates the per-group admin-only flag rejected the
	// sender. Unlike ErrPermissionDenied this one is surfaced.
	ErrAdminOnly = errors.New("only admin can use command in this group")

	// ErrOwnerOnly is returned by handlers restricted to configured owners.
	ErrOwnerOnly = errors.New("owner only command")

	// ErrGroupOnly is returned by handlers that only make sense in groups.
	ErrGroupOnly = errors.New("group only command")
)

// QuotaExhaustedError is returned by QuotaStore.Charge when a metered user
// has no remaining uses. ResetAt tells the user when the quota comes back.
type QuotaExhaustedError struct {
	ResetAt time.Time
}

// Error implements the error interface.
func (e *QuotaExhaustedError) Error() string {
	return fmt.Sprintf("command limit exhausted, resets on %s", e.ResetAt.Format("2006-01-02"))
}

// UsageError reports malformed command arguments together with the
// expected invocation shape.
type UsageError struct {
	Usage string
}

// Error implements the error interface.
func (e *UsageError) Error() string { return "usage: " + e.Usage }

// NewUsageError builds a UsageError for the given invocation shape.
func NewUsageError(format string, args ...any) *UsageError {
	return &UsageError{Usage: fmt.Sprintf(format, args...)}
}
