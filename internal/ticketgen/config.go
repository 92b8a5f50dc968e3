// Package ticketgen implements a concurrent load generator for exercising
// the assignment engine over its HTTP intake.
package ticketgen

import "time"

// Config holds the load run parameters.
type Config struct {
	// BaseURL of the running service.
	BaseURL string

	// NumTickets to generate and submit.
	NumTickets int

	// Workers submitting tickets concurrently.
	Workers int

	// Timeout for each HTTP request.
	Timeout time.Duration

	// Verbose enables per-ticket logging.
	Verbose bool
}
