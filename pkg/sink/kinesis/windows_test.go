package kinesis

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/Kubha99/debezium-server/pkg/connector"
)

func TestWindowsSplitsAtCapacity(t *testing.T) {
	events := makeEvents(501, "orders")
	out := windows(events, maxRecordsPerRequest)
	if len(out) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(out))
	}
	if len(out[0]) != 500 || len(out[1]) != 1 {
		t.Fatalf("expected window lengths 500 and 1, got %d and %d", len(out[0]), len(out[1]))
	}
}

func TestWindowsEmptyInput(t *testing.T) {
	if out := windows(nil, maxRecordsPerRequest); out != nil {
		t.Fatalf("expected no windows for empty input, got %d", len(out))
	}
}

func TestWindowsPartitionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 1500).Draw(t, "n")
		size := rapid.IntRange(1, 600).Draw(t, "size")

		events := make([]connector.ChangeEvent, n)
		for i := range events {
			events[i] = connector.ChangeEvent{Key: []byte(fmt.Sprintf("k%d", i))}
		}

		out := windows(events, size)

		total := 0
		for i, window := range out {
			if len(window) == 0 {
				t.Fatalf("window %d is empty", i)
			}
			if len(window) > size {
				t.Fatalf("window %d exceeds capacity: %d > %d", i, len(window), size)
			}
			if i < len(out)-1 && len(window) != size {
				t.Fatalf("non-final window %d is short: %d", i, len(window))
			}
			for _, event := range window {
				if string(event.Key) != fmt.Sprintf("k%d", total) {
					t.Fatalf("window concatenation diverges at %d: %s", total, event.Key)
				}
				total++
			}
		}
		if total != n {
			t.Fatalf("windows cover %d of %d events", total, n)
		}
	})
}
