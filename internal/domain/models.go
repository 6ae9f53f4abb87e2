package domain

import "time"

// Outcome is the recorded result of a single probe request.
type Outcome struct {
	ID           string    `json:"id"`
	EndpointID   string    `json:"endpoint_id"`
	URL          string    `json:"url"`
	Success      bool      `json:"success"`
	StatusCode   int       `json:"status_code,omitempty"`
	Body         string    `json:"body,omitempty"`
	Error        string    `json:"error,omitempty"`
	TrustFailure bool      `json:"trust_failure"`
	DurationMs   int64     `json:"duration_ms"`
	At           time.Time `json:"at"`
}
