package stream

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Kubha99/debezium-server/pkg/connector"
)

// batchCommitter tracks delivery progress for one intake batch. Marking an
// event is a notification only; durable offset movement happens once, on
// MarkBatchFinished, by acknowledging the batch checkpoint to the source.
type batchCommitter struct {
	ctx        context.Context
	source     connector.Source
	checkpoint connector.Checkpoint
	logger     *zap.Logger

	processed int
	finished  bool
}

func (c *batchCommitter) MarkProcessed(event connector.ChangeEvent) error {
	c.processed++
	c.logger.Debug("event processed",
		zap.String("destination", event.Destination),
		zap.Int("seq", c.processed),
	)
	return nil
}

func (c *batchCommitter) MarkBatchFinished() error {
	if c.finished {
		return errors.New("batch already finished")
	}
	c.finished = true
	if err := c.source.Ack(c.ctx, c.checkpoint); err != nil {
		return fmt.Errorf("ack source: %w", err)
	}
	return nil
}
