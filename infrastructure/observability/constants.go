package observability

// Metric name prefixes
const (
	MetricPrefix = "pixeldesk"
)

// Metric names
const (
	// Ledger metrics
	PointsTransactionsTotal = MetricPrefix + ".points.transactions_total"
	PointsAmountTotal       = MetricPrefix + ".points.amount_total"

	// Workstation metrics
	BindingEventsTotal      = MetricPrefix + ".workstations.binding_events_total"
	InactivityWarningsTotal = MetricPrefix + ".workstations.inactivity_warnings_total"

	// Sweep metrics
	SweepRunsTotal           = MetricPrefix + ".sweep.runs_total"
	SweepDuration            = MetricPrefix + ".sweep.duration"
	SweepRefundedPointsTotal = MetricPrefix + ".sweep.refunded_points_total"
	SweepFailuresTotal       = MetricPrefix + ".sweep.failures_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"

	// HTTP metrics
	HTTPRequestsTotal   = MetricPrefix + ".http.requests_total"
	HTTPRequestDuration = MetricPrefix + ".http.request_duration"
)

// Label keys
const (
	LabelType      = "type"
	LabelEventType = "event_type"
	LabelAction    = "action"
	LabelTrigger   = "trigger"
	LabelReason    = "reason"

	// HTTP labels
	LabelMethod = "method"
	LabelRoute  = "route"
	LabelStatus = "status"
)

// Binding actions
const (
	BindingActionBound     = "bound"
	BindingActionUnbound   = "unbound"
	BindingActionReclaimed = "reclaimed"
)
