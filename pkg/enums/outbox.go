package enums

// OutboxAggregateType names the entity an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateUser          OutboxAggregateType = "user"
	AggregateOrder         OutboxAggregateType = "order"
	AggregateCatalogImport OutboxAggregateType = "catalog_import"
)

var aggregateTypes = set[OutboxAggregateType]{AggregateUser, AggregateOrder, AggregateCatalogImport}

func (a OutboxAggregateType) IsValid() bool { return aggregateTypes.has(a) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return aggregateTypes.parse("aggregate type", value)
}

// OutboxEventType selects the topic and payload schema of an outbox event.
type OutboxEventType string

const (
	EventEmailRequested         OutboxEventType = "email_requested"
	EventCatalogImportRequested OutboxEventType = "catalog_import_requested"
)

var eventTypes = set[OutboxEventType]{EventEmailRequested, EventCatalogImportRequested}

func (e OutboxEventType) IsValid() bool { return eventTypes.has(e) }

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return eventTypes.parse("event type", value)
}

// OutboxDLQErrorReason records why an outbox row was parked in outbox_dlq.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonUnroutable marks rows whose event type or envelope could not be resolved to a topic.
	OutboxDLQReasonUnroutable   OutboxDLQErrorReason = "unroutable"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
)

var dlqReasons = set[OutboxDLQErrorReason]{OutboxDLQReasonUnroutable, OutboxDLQReasonNonRetryable, OutboxDLQReasonMaxAttempts}

func (r OutboxDLQErrorReason) IsValid() bool { return dlqReasons.has(r) }

func ParseOutboxDLQErrorReason(value string) (OutboxDLQErrorReason, error) {
	return dlqReasons.parse("dlq error reason", value)
}
