package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Kubha99/debezium-server/pkg/connector"
)

// Runner drains intake batches from a source through a change consumer, one
// batch in flight at a time. The source checkpoint is acknowledged only when
// the consumer finishes a batch; a consumer error stops the loop with the
// checkpoint untouched so the engine redelivers.
type Runner struct {
	Source        connector.Source
	SourceSpec    connector.Spec
	Consumer      connector.ChangeConsumer
	Tracer        trace.Tracer
	Logger        *zap.Logger
	MaxEmptyReads int
}

// Run executes the delivery loop until the source is drained, the context is
// cancelled, or an error surfaces.
func (r *Runner) Run(ctx context.Context) error {
	if r.Source == nil {
		return errors.New("source is required")
	}
	if r.Consumer == nil {
		return errors.New("consumer is required")
	}

	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracer := r.Tracer
	if tracer == nil {
		tracer = otel.Tracer("debezium-server/stream")
	}

	if err := r.Source.Open(ctx, r.SourceSpec); err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer r.Source.Close(ctx)

	emptyReads := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batchCtx, span := tracer.Start(ctx, "stream.batch")
		batch, err := r.Source.Read(batchCtx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				span.End()
				return nil
			}
			span.RecordError(err)
			span.End()
			return fmt.Errorf("read source: %w", err)
		}

		if len(batch.Events) == 0 {
			emptyReads++
			span.End()
			if r.MaxEmptyReads > 0 && emptyReads >= r.MaxEmptyReads {
				return errors.New("max empty reads reached")
			}
			continue
		}
		emptyReads = 0

		batchID := uuid.NewString()
		span.SetAttributes(
			attribute.String("batch_id", batchID),
			attribute.Int("events", len(batch.Events)),
			attribute.String("destination", batch.Events[0].Destination),
		)

		committer := &batchCommitter{
			ctx:        batchCtx,
			source:     r.Source,
			checkpoint: batch.Checkpoint,
			logger:     logger,
		}
		if err := r.Consumer.HandleBatch(batchCtx, batch.Events, committer); err != nil {
			span.RecordError(err)
			span.End()
			return fmt.Errorf("handle batch: %w", err)
		}
		if !committer.finished {
			span.End()
			return errors.New("consumer returned without finishing the batch")
		}

		logger.Info("batch delivered",
			zap.String("batch_id", batchID),
			zap.Int("events", committer.processed),
		)
		span.End()
	}
}
