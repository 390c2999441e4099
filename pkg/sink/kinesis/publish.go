package kinesis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awskinesis "github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/aws/aws-sdk-go-v2/service/kinesis/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/Kubha99/debezium-server/pkg/connector"
)

// recordOutcome pairs a submitted entry with its per-record result, so the
// failed subset is rebuilt from the pair and never by indexing into an
// earlier attempt's list.
type recordOutcome struct {
	entry  types.PutRecordsRequestEntry
	result types.PutRecordsResultEntry
}

func (o recordOutcome) failed() bool {
	return o.result.ErrorCode != nil
}

// HandleBatch publishes one intake batch: the events are split into
// PutRecords-sized windows, each window is driven to completion in order,
// and only then are its events marked processed, in intake order. A window
// that cannot be delivered aborts the batch; nothing after it is marked.
func (s *Sink) HandleBatch(ctx context.Context, events []connector.ChangeEvent, committer connector.Committer) error {
	if s.client == nil {
		return errors.New("kinesis sink not initialized")
	}
	if len(events) == 0 {
		return committer.MarkBatchFinished()
	}

	stream := events[0].Destination
	for _, window := range windows(events, maxRecordsPerRequest) {
		if err := s.publishWindow(ctx, stream, window); err != nil {
			return err
		}
		for _, event := range window {
			if err := committer.MarkProcessed(event); err != nil {
				return fmt.Errorf("mark processed: %w", err)
			}
		}
	}
	return committer.MarkBatchFinished()
}

// publishWindow submits one window until every record has been accepted or
// the attempt budget is spent. A transport-level failure retries the whole
// candidate list, since no per-record outcome exists to narrow it; a partial
// failure retries exactly the rejected records.
func (s *Sink) publishWindow(ctx context.Context, stream string, events []connector.ChangeEvent) error {
	pending := s.entries(events)
	attempts := 0

	for {
		outcomes, err := s.putRecords(ctx, stream, pending)
		attempts++
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fields := []zap.Field{
				zap.String("stream", stream),
				zap.Int("attempt", attempts),
				zap.Int("records", len(pending)),
				zap.Error(err),
			}
			s.logger.Warn("failed to send records", append(fields, apiErrorFields(err)...)...)
			if attempts >= maxAttempts {
				return &connector.DeliveryError{Stream: stream, Attempts: attempts, Remaining: len(pending)}
			}
			if err := s.pause(ctx); err != nil {
				return err
			}
			continue
		}

		failed := make([]types.PutRecordsRequestEntry, 0)
		for _, outcome := range outcomes {
			if outcome.failed() {
				failed = append(failed, outcome.entry)
			}
		}
		if len(failed) == 0 {
			return nil
		}

		s.logger.Warn("records rejected by stream",
			zap.String("stream", stream),
			zap.Int("attempt", attempts),
			zap.Int("submitted", len(pending)),
			zap.Int("failed", len(failed)),
		)
		pending = failed
		if attempts >= maxAttempts {
			return &connector.DeliveryError{Stream: stream, Attempts: attempts, Remaining: len(pending)}
		}
		if err := s.pause(ctx); err != nil {
			return err
		}
	}
}

// putRecords issues one PutRecords call and zips the submitted entries with
// the per-record results. The service returns results in submission order
// and count.
func (s *Sink) putRecords(ctx context.Context, stream string, entries []types.PutRecordsRequestEntry) ([]recordOutcome, error) {
	out, err := s.client.PutRecords(ctx, &awskinesis.PutRecordsInput{
		StreamName: aws.String(s.mapper.Map(stream)),
		Records:    entries,
	})
	if err != nil {
		return nil, err
	}
	if len(out.Records) != len(entries) {
		return nil, fmt.Errorf("kinesis returned %d results for %d submitted records", len(out.Records), len(entries))
	}
	outcomes := make([]recordOutcome, len(entries))
	for i := range entries {
		outcomes[i] = recordOutcome{entry: entries[i], result: out.Records[i]}
	}
	return outcomes, nil
}

func (s *Sink) pause(ctx context.Context) error {
	return s.sleep(ctx, retryInterval)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func apiErrorFields(err error) []zap.Field {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return []zap.Field{zap.String("error_code", apiErr.ErrorCode())}
	}
	return nil
}
