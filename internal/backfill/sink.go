package backfill

import (
	"context"

	"github.com/fortuna/puckline/internal/pbp"
)

// Sink receives every finished game record of a run. Sink errors are logged
// and never fail the run.
type Sink interface {
	Name() string
	Write(ctx context.Context, rec *pbp.GameRecord) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, rec *pbp.GameRecord) error

// Name implements Sink.
func (f SinkFunc) Name() string { return "func" }

// Write implements Sink.
func (f SinkFunc) Write(ctx context.Context, rec *pbp.GameRecord) error {
	return f(ctx, rec)
}
