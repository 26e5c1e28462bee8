package gate

import (
	"errors"
	"fmt"
)

// Sentinel errors for callers using errors.Is.
var (
	// ErrCommandNotAllowed is returned when the command name has no whitelist entry.
	ErrCommandNotAllowed = errors.New("command not allowed")
	// ErrArgumentNotAllowed is returned when an argument is neither a listed
	// flag nor a valid target for a command that permits targets.
	ErrArgumentNotAllowed = errors.New("argument not allowed")
	// ErrInvalidBSSID is returned for malformed MAC addresses.
	ErrInvalidBSSID = errors.New("invalid BSSID format")
)

// CommandNotAllowedError reports an attempt to execute a command with no
// whitelist entry. It wraps ErrCommandNotAllowed so callers can use
// errors.Is(err, ErrCommandNotAllowed).
type CommandNotAllowedError struct {
	Command string
}

func (e *CommandNotAllowedError) Error() string {
	return fmt.Sprintf("command %q not allowed: no whitelist entry", e.Command)
}

// Is enables errors.Is(err, ErrCommandNotAllowed) comparisons.
func (e *CommandNotAllowedError) Is(target error) bool {
	return errors.Is(target, ErrCommandNotAllowed)
}

// Unwrap returns the sentinel ErrCommandNotAllowed for error chain checks.
func (e *CommandNotAllowedError) Unwrap() error {
	return ErrCommandNotAllowed
}

// ArgumentNotAllowedError reports an argument that failed classification:
// it matched no allowed flag and, where targets are permitted, no
// structural validator.
type ArgumentNotAllowedError struct {
	Command  string
	Argument string
}

func (e *ArgumentNotAllowedError) Error() string {
	return fmt.Sprintf("argument %q not allowed for command %q", e.Argument, e.Command)
}

// Is enables errors.Is(err, ErrArgumentNotAllowed) comparisons.
func (e *ArgumentNotAllowedError) Is(target error) bool {
	return errors.Is(target, ErrArgumentNotAllowed)
}

// Unwrap returns the sentinel ErrArgumentNotAllowed for error chain checks.
func (e *ArgumentNotAllowedError) Unwrap() error {
	return ErrArgumentNotAllowed
}
