package kinesis

import (
	"github.com/Kubha99/debezium-server/pkg/connector"
)

// maxRecordsPerRequest is the PutRecords per-request record limit.
const maxRecordsPerRequest = 500

// windows splits events into ordered, contiguous runs of at most size
// records. The runs partition the input exactly; only the last run may be
// shorter than size.
func windows(events []connector.ChangeEvent, size int) [][]connector.ChangeEvent {
	if size <= 0 || len(events) == 0 {
		return nil
	}
	out := make([][]connector.ChangeEvent, 0, (len(events)+size-1)/size)
	for start := 0; start < len(events); start += size {
		end := start + size
		if end > len(events) {
			end = len(events)
		}
		out = append(out, events[start:end])
	}
	return out
}
