package reporters

import (
	"time"

	"github.com/samvad-hq/braintree-graphql-client/internal/domain"
)

// Event represents the payload reported downstream.
type Event struct {
	EndpointID string         `json:"endpoint_id"`
	Outcome    domain.Outcome `json:"outcome"`
	ReportedAt time.Time      `json:"reported_at"`
}

// NewEvent constructs an Event for the given outcome.
func NewEvent(outcome domain.Outcome) Event {
	return Event{
		EndpointID: outcome.EndpointID,
		Outcome:    outcome,
		ReportedAt: time.Now().UTC(),
	}
}
