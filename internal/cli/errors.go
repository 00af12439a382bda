package cli

import (
	"fmt"
	"time"
)

// errInvalidFlag is returned when a flag or config value fails validation.
func errInvalidFlag(flag string, err error) error {
	return fmt.Errorf("invalid --%s: %w", flag, err)
}

// errTooSmall is returned when a count flag is below 1.
func errTooSmall(flag string, value int) error {
	return fmt.Errorf("invalid --%s value %d: must be at least 1", flag, value)
}

// errNonPositiveTimeout is returned when a timeout flag is zero or negative.
func errNonPositiveTimeout(flag string, value time.Duration) error {
	return fmt.Errorf("invalid --%s value %s: must be positive", flag, value)
}

// errInterrupted reports a batch that was canceled before every domain was
// enriched. The output file has still been written.
func errInterrupted(notEnriched, total int, cause error) error {
	return fmt.Errorf("interrupted: %d of %d domain(s) not enriched: %w", notEnriched, total, cause)
}
