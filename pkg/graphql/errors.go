package graphql

import (
	"fmt"

	"github.com/samvad-hq/braintree-graphql-client/pkg/httpclient"
)

const maxErrorBody = 512

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	snippet := httpclient.Snippet(e.Body, maxErrorBody)
	if snippet == "" {
		return fmt.Sprintf("graphql: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("graphql: unexpected status %d: %s", e.StatusCode, snippet)
}
