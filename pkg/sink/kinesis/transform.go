package kinesis

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kinesis/types"

	"github.com/Kubha99/debezium-server/pkg/connector"
)

// defaultNullKey partitions records whose source key is absent.
const defaultNullKey = "default"

// entry converts one change event into a PutRecords request entry. A missing
// key falls back to the configured null key so the record still lands on a
// deterministic shard; a missing value becomes an empty payload.
func (s *Sink) entry(event connector.ChangeEvent) types.PutRecordsRequestEntry {
	partitionKey := s.nullKey
	if event.Key != nil {
		partitionKey = string(event.Key)
	}
	data := event.Value
	if data == nil {
		data = []byte{}
	}
	return types.PutRecordsRequestEntry{
		PartitionKey: aws.String(partitionKey),
		Data:         data,
	}
}

func (s *Sink) entries(events []connector.ChangeEvent) []types.PutRecordsRequestEntry {
	out := make([]types.PutRecordsRequestEntry, len(events))
	for i, event := range events {
		out[i] = s.entry(event)
	}
	return out
}
