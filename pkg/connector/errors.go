package connector

import (
	"errors"
	"strconv"
)

// ErrRetriesExhausted signals that a sink gave up on a window of records
// after the bounded number of publish attempts.
var ErrRetriesExhausted = errors.New("exceeded maximum number of attempts to publish events")

// DeliveryError captures details for an exhausted delivery window. It is
// non-retriable: the engine must redeliver the whole unacknowledged batch.
type DeliveryError struct {
	Stream    string
	Attempts  int
	Remaining int
}

func (e *DeliveryError) Error() string {
	if e == nil {
		return "exceeded maximum number of attempts to publish events"
	}
	msg := "exceeded maximum number of attempts to publish events"
	if e.Stream != "" {
		msg += " stream=" + e.Stream
	}
	if e.Attempts != 0 {
		msg += " attempts=" + strconv.Itoa(e.Attempts)
	}
	if e.Remaining != 0 {
		msg += " remaining=" + strconv.Itoa(e.Remaining)
	}
	return msg
}

func (e *DeliveryError) Unwrap() error {
	return ErrRetriesExhausted
}

// AsDelivery extracts a DeliveryError from an error chain.
func AsDelivery(err error) (*DeliveryError, bool) {
	var delivery *DeliveryError
	if errors.As(err, &delivery) {
		return delivery, true
	}
	return nil, false
}
