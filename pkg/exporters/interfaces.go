package exporters

import "context"

// Exporter sends events to a downstream sink (SQS, SNS, Pub/Sub, HTTP).
type Exporter interface {
	ID() string
	Type() string
	Export(ctx context.Context, evt Event) error
}
