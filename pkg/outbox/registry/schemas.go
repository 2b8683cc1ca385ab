// Package registry describes every event type the outbox carries: which
// aggregates may emit it, which topic it is routed to and how its payload
// decodes. The publisher and the consumers read the same table.
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/angelmondragon/orderhub-backend/pkg/config"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	"github.com/angelmondragon/orderhub-backend/pkg/outbox/payloads"
)

// PayloadVersion is the envelope version outbox.Service writes today.
const PayloadVersion = 1

type decodeFunc func(json.RawMessage) (any, error)

type schema struct {
	eventType  enums.OutboxEventType
	aggregates []enums.OutboxAggregateType
	topic      func(config.PubSubConfig) string
	decode     decodeFunc
}

var schemas = []schema{
	{
		eventType:  enums.EventEmailRequested,
		aggregates: []enums.OutboxAggregateType{enums.AggregateUser, enums.AggregateOrder},
		topic:      func(c config.PubSubConfig) string { return c.NotificationTopic },
		decode:     jsonDecoder[payloads.EmailRequestedEvent](),
	},
	{
		eventType:  enums.EventCatalogImportRequested,
		aggregates: []enums.OutboxAggregateType{enums.AggregateCatalogImport},
		topic:      func(c config.PubSubConfig) string { return c.CatalogTopic },
		decode:     jsonDecoder[payloads.CatalogImportRequestedEvent](),
	},
}

func (s schema) accepts(aggregate enums.OutboxAggregateType) bool {
	return slices.Contains(s.aggregates, aggregate)
}

// jsonDecoder decodes into a fresh *T and refuses an absent or null body.
func jsonDecoder[T any]() decodeFunc {
	return func(raw json.RawMessage) (any, error) {
		if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			return nil, fmt.Errorf("payload is empty")
		}
		out := new(T)
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// NonRetryableError marks a failure that no retry can fix.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

// NewNonRetryableError wraps err as NonRetryableError.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func permanent(format string, args ...any) error {
	return NewNonRetryableError(fmt.Errorf(format, args...))
}
