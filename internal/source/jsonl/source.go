// Package jsonl reads change events from newline-delimited JSON, one event
// per line, for local runs and wiring tests. Each line carries a destination
// plus optional key and value documents.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/Kubha99/debezium-server/pkg/connector"
)

const (
	optPath        = "path"
	optDestination = "destination"
	optBatchSize   = "batch_size"
)

const (
	defaultBatchSize = 2048
	maxLineBytes     = 1 << 20
)

// Source implements connector.Source over a JSON-lines file. A path of ""
// or "-" reads stdin. The checkpoint is the count of lines handed out.
type Source struct {
	Logger *zap.Logger

	file        *os.File
	scanner     *bufio.Scanner
	destination string
	batchSize   int
	offset      int64
	committed   int64
	logger      *zap.Logger
}

type line struct {
	Destination string          `json:"destination"`
	Key         json.RawMessage `json:"key"`
	Value       json.RawMessage `json:"value"`
}

func (s *Source) Open(_ context.Context, spec connector.Spec) error {
	s.logger = s.Logger
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.destination = spec.Options[optDestination]

	s.batchSize = defaultBatchSize
	if raw := spec.Options[optBatchSize]; raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return fmt.Errorf("invalid batch_size %q", raw)
		}
		s.batchSize = parsed
	}

	var reader io.Reader
	switch path := spec.Options[optPath]; path {
	case "", "-":
		reader = os.Stdin
	default:
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open source file: %w", err)
		}
		s.file = file
		reader = file
	}

	s.scanner = bufio.NewScanner(reader)
	s.scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return nil
}

// Read returns the next intake batch, up to batch_size events. It returns
// io.EOF once the input is drained.
func (s *Source) Read(ctx context.Context) (connector.Batch, error) {
	if s.scanner == nil {
		return connector.Batch{}, errors.New("jsonl source not opened")
	}

	events := make([]connector.ChangeEvent, 0, s.batchSize)
	for len(events) < s.batchSize && s.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return connector.Batch{}, err
		}
		raw := s.scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var l line
		if err := json.Unmarshal(raw, &l); err != nil {
			return connector.Batch{}, fmt.Errorf("parse line %d: %w", s.offset+int64(len(events))+1, err)
		}
		destination := l.Destination
		if destination == "" {
			destination = s.destination
		}
		if destination == "" {
			return connector.Batch{}, fmt.Errorf("line %d has no destination and no default is configured", s.offset+int64(len(events))+1)
		}
		events = append(events, connector.ChangeEvent{
			Key:         renderKey(l.Key),
			Value:       renderValue(l.Value),
			Destination: destination,
		})
	}
	if err := s.scanner.Err(); err != nil {
		return connector.Batch{}, fmt.Errorf("scan source: %w", err)
	}
	if len(events) == 0 {
		return connector.Batch{}, io.EOF
	}

	s.offset += int64(len(events))
	return connector.Batch{
		Events:     events,
		Checkpoint: connector.Checkpoint{Offset: s.offset},
	}, nil
}

func (s *Source) Ack(_ context.Context, checkpoint connector.Checkpoint) error {
	if checkpoint.Offset > s.committed {
		s.committed = checkpoint.Offset
	}
	s.logger.Debug("checkpoint acknowledged", zap.Int64("offset", s.committed))
	return nil
}

func (s *Source) Close(_ context.Context) error {
	s.scanner = nil
	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		return err
	}
	return nil
}

// Committed reports the highest acknowledged line offset.
func (s *Source) Committed() int64 {
	return s.committed
}

// renderKey turns a key document into partition-key text: JSON strings are
// unquoted, anything else keeps its JSON rendering. Absent or null keys
// return nil.
func renderKey(raw json.RawMessage) []byte {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []byte(s)
	}
	return []byte(raw)
}

func renderValue(raw json.RawMessage) []byte {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return []byte(raw)
}
