package reporters

import "context"

// Reporter sends probe events to a downstream sink (SQS, SNS, HTTP).
type Reporter interface {
	ID() string
	Type() string
	Report(ctx context.Context, evt Event) error
}
