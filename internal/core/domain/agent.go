package domain

import "time"

// Agent names reported in responses and events.
const (
	AgentNone      = "none"
	AgentSimple    = "simple"
	AgentMultiStep = "multi-step"
)

// AgentResult is the normalized outcome of an agent run. Tools lists the
// use cases invoked in order; Reasoning carries human-readable step notes
// for observability.
type AgentResult struct {
	Success   bool     `json:"success"`
	Agent     string   `json:"agent"`
	Tools     []string `json:"tools,omitempty"`
	Reasoning []string `json:"reasoning,omitempty"`
	Data      any      `json:"data,omitempty"`
	Error     *Error   `json:"error,omitempty"`
}

// QueryRequest is the single orchestration call at the system boundary.
type QueryRequest struct {
	Query               string             `json:"query"`
	UserID              string             `json:"user_id"`
	UserLocation        *Location          `json:"user_location,omitempty"`
	ConversationHistory []ConversationTurn `json:"conversation_history,omitempty"`
	MemoryEnabled       bool               `json:"memory_enabled,omitempty"`
}

// QueryResponse is the orchestrator's answer. Failures are structured —
// never a raw stack trace.
type QueryResponse struct {
	Success        bool             `json:"success"`
	Classification *ClassifiedQuery `json:"classification,omitempty"`
	AgentUsed      string           `json:"agent_used"`
	Result         any              `json:"result,omitempty"`
	Error          *Error           `json:"error,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}

// QueryEvent is published after each orchestrated query (best-effort).
type QueryEvent struct {
	QueryID    string     `json:"query_id"`
	UserID     string     `json:"user_id,omitempty"`
	Intent     Intent     `json:"intent"`
	Complexity Complexity `json:"complexity"`
	Agent      string     `json:"agent"`
	Success    bool       `json:"success"`
	DurationMS int64      `json:"duration_ms"`
	Timestamp  time.Time  `json:"timestamp"`
}
