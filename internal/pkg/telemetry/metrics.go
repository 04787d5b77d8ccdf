package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Classification quality
	MetricLLMShare      = "classify.llm_share"
	MetricOverrideShare = "classify.rule_override_share"

	// Collaborator health
	MetricCollaboratorErrorRate = "collaborator.error_rate"
	MetricCollaboratorLatency   = "collaborator.latency_p95"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricQueriesResolved  = "business.queries_resolved"
	MetricStopoversPlanned = "business.stopovers_planned"
)
