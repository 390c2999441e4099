package connector

import (
	"context"
)

// ChangeEvent is one captured data change handed over by the upstream engine.
// Key and Value arrive pre-serialized; a nil slice means the field was absent
// on the source record. Events are never mutated by a sink.
type ChangeEvent struct {
	Key         []byte
	Value       []byte
	Destination string
}

// Checkpoint identifies a durable offset within the upstream engine's stream.
type Checkpoint struct {
	Offset   int64
	Metadata map[string]string
}

// Batch is one intake unit delivered by a source: an ordered, effectively
// single-destination run of events plus the checkpoint that covers them.
type Batch struct {
	Events     []ChangeEvent
	Checkpoint Checkpoint
}

// Committer reports delivery progress back to the upstream engine.
// MarkProcessed is called once per event, in intake order, only after the
// event is known to be accepted downstream. MarkBatchFinished is called once
// after every event of the intake batch has been marked.
type Committer interface {
	MarkProcessed(event ChangeEvent) error
	MarkBatchFinished() error
}

// ChangeConsumer delivers one intake batch to a downstream system. A nil
// return means every event was marked processed and the batch was finished;
// a non-nil return means delivery aborted and unmarked events must be
// redelivered by the engine.
type ChangeConsumer interface {
	HandleBatch(ctx context.Context, events []ChangeEvent, committer Committer) error
}

// Source reads intake batches from an upstream system.
type Source interface {
	Open(ctx context.Context, spec Spec) error
	Read(ctx context.Context) (Batch, error)
	Ack(ctx context.Context, checkpoint Checkpoint) error
	Close(ctx context.Context) error
}

// Spec defines a source or sink instance plus implementation-specific options.
type Spec struct {
	Name    string
	Options map[string]string
}

// StreamNameMapper resolves a logical destination identifier to the physical
// stream name used on the wire.
type StreamNameMapper interface {
	Map(destination string) string
}

// StreamNameMapperFunc adapts a function to a StreamNameMapper.
type StreamNameMapperFunc func(destination string) string

func (f StreamNameMapperFunc) Map(destination string) string {
	return f(destination)
}

// IdentityMapper maps every logical destination to itself.
var IdentityMapper = StreamNameMapperFunc(func(destination string) string {
	return destination
})
