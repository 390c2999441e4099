package jsonl

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Kubha99/debezium-server/pkg/connector"
)

func writeFixture(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	if err := os.WriteFile(path, []byte(lines), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func openSource(t *testing.T, options map[string]string) *Source {
	t.Helper()
	source := &Source{}
	if err := source.Open(context.Background(), connector.Spec{Name: "jsonl", Options: options}); err != nil {
		t.Fatalf("open source: %v", err)
	}
	t.Cleanup(func() { source.Close(context.Background()) })
	return source
}

func TestReadParsesEvents(t *testing.T) {
	path := writeFixture(t, `{"destination":"orders","key":"order-1","value":{"id":1}}
{"destination":"orders","key":{"id":2},"value":{"id":2}}
{"destination":"orders","key":null,"value":null}
`)
	source := openSource(t, map[string]string{"path": path})

	batch, err := source.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(batch.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(batch.Events))
	}
	if string(batch.Events[0].Key) != "order-1" {
		t.Fatalf("expected unquoted string key, got %q", batch.Events[0].Key)
	}
	if string(batch.Events[1].Key) != `{"id":2}` {
		t.Fatalf("expected raw JSON key, got %q", batch.Events[1].Key)
	}
	if batch.Events[2].Key != nil || batch.Events[2].Value != nil {
		t.Fatal("expected nil key and value for null fields")
	}
	if string(batch.Events[0].Value) != `{"id":1}` {
		t.Fatalf("unexpected value: %q", batch.Events[0].Value)
	}
	if batch.Checkpoint.Offset != 3 {
		t.Fatalf("expected checkpoint offset 3, got %d", batch.Checkpoint.Offset)
	}

	if _, err := source.Read(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after drain, got %v", err)
	}
}

func TestReadHonoursBatchSize(t *testing.T) {
	path := writeFixture(t, `{"destination":"orders","value":1}
{"destination":"orders","value":2}
{"destination":"orders","value":3}
`)
	source := openSource(t, map[string]string{"path": path, "batch_size": "2"})

	first, err := source.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(first.Events) != 2 || first.Checkpoint.Offset != 2 {
		t.Fatalf("unexpected first batch: %d events, offset %d", len(first.Events), first.Checkpoint.Offset)
	}

	second, err := source.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(second.Events) != 1 || second.Checkpoint.Offset != 3 {
		t.Fatalf("unexpected second batch: %d events, offset %d", len(second.Events), second.Checkpoint.Offset)
	}
}

func TestDefaultDestinationApplied(t *testing.T) {
	path := writeFixture(t, `{"value":{"id":1}}
`)
	source := openSource(t, map[string]string{"path": path, "destination": "orders"})

	batch, err := source.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if batch.Events[0].Destination != "orders" {
		t.Fatalf("expected default destination, got %q", batch.Events[0].Destination)
	}
}

func TestMissingDestinationFails(t *testing.T) {
	path := writeFixture(t, `{"value":{"id":1}}
`)
	source := openSource(t, map[string]string{"path": path})

	if _, err := source.Read(context.Background()); err == nil {
		t.Fatal("expected error for missing destination")
	}
}

func TestAckAdvancesCommittedOffset(t *testing.T) {
	path := writeFixture(t, `{"destination":"orders","value":1}
`)
	source := openSource(t, map[string]string{"path": path})

	batch, err := source.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := source.Ack(context.Background(), batch.Checkpoint); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if source.Committed() != 1 {
		t.Fatalf("expected committed offset 1, got %d", source.Committed())
	}

	// A stale checkpoint never moves the committed offset backwards.
	if err := source.Ack(context.Background(), connector.Checkpoint{Offset: 0}); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if source.Committed() != 1 {
		t.Fatalf("expected committed offset to stay at 1, got %d", source.Committed())
	}
}

func TestInvalidLineFails(t *testing.T) {
	path := writeFixture(t, "not json\n")
	source := openSource(t, map[string]string{"path": path})

	if _, err := source.Read(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}
