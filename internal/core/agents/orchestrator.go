package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/wayfinder/internal/core/classify"
	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
)

// memoryTimeout bounds the best-effort memory calls so a slow store can
// never stall the main flow.
const memoryTimeout = 5 * time.Second

// Orchestrator drives one query through the pipeline: memory load,
// classification, routing to an agent, memory store, event publish. Memory
// and events are optional collaborators; either may be nil.
type Orchestrator struct {
	classifier *classify.Classifier
	simple     Agent
	multi      Agent
	memory     ports.MemoryStore
	events     ports.EventPublisher
}

// NewOrchestrator creates an Orchestrator. memory and events may be nil.
func NewOrchestrator(
	classifier *classify.Classifier,
	simple Agent,
	multi Agent,
	memory ports.MemoryStore,
	events ports.EventPublisher,
) *Orchestrator {
	return &Orchestrator{classifier: classifier, simple: simple, multi: multi, memory: memory, events: events}
}

// ResultPayload is the success half of a QueryResponse: the use-case output
// plus the agent's tool and reasoning trace.
type ResultPayload struct {
	Data      any      `json:"data,omitempty"`
	Tools     []string `json:"tools,omitempty"`
	Reasoning []string `json:"reasoning,omitempty"`
}

// StubPayload is the informational payload of the follow-up and directions
// terminal exits. A full implementation would resolve the referenced entity
// from conversation state instead.
type StubPayload struct {
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// HandleQuery runs the full pipeline for one request. Failures are always
// structured responses; nothing panics out of the orchestrator.
func (o *Orchestrator) HandleQuery(ctx context.Context, req domain.QueryRequest) domain.QueryResponse {
	start := time.Now()

	if strings.TrimSpace(req.Query) == "" {
		return o.finish(ctx, req, failureResponse(nil, domain.AgentNone,
			domain.NewError(domain.ErrInvalidInput, "query must not be empty")), start)
	}

	mem := o.loadMemory(ctx, req)

	cq, err := o.classifier.Classify(ctx, req.Query, req.ConversationHistory)
	if err != nil {
		return o.finish(ctx, req, failureResponse(nil, domain.AgentNone, domain.AsDomainError(err)), start)
	}

	if cq.NeedsClarification() {
		return o.finish(ctx, req, failureResponse(&cq, domain.AgentNone,
			domain.NewError(domain.ErrInvalidInput, "could not work out what to search for, please be more specific")), start)
	}

	if cq.Intent == domain.IntentFollowUp {
		return o.finish(ctx, req, stubResponse(&cq, followUpPayload(mem)), start)
	}
	if cq.Intent == domain.IntentGetDirections && cq.Entities.Destination == "" {
		return o.finish(ctx, req, stubResponse(&cq, StubPayload{
			Message: "directions need a destination, ask for a named place",
		}), start)
	}

	agent := o.simple
	if cq.Complexity == domain.ComplexityMultiStep {
		agent = o.multi
	}
	result := agent.Execute(ctx, cq, req.UserLocation)

	if result.Success {
		o.storeMemory(ctx, req, cq)
	}

	resp := domain.QueryResponse{
		Success:        result.Success,
		Classification: &cq,
		AgentUsed:      result.Agent,
	}
	if result.Success {
		resp.Result = ResultPayload{Data: result.Data, Tools: result.Tools, Reasoning: result.Reasoning}
	} else {
		resp.Error = result.Error
	}
	return o.finish(ctx, req, resp, start)
}

// finish stamps the response and publishes the query-resolved event.
func (o *Orchestrator) finish(ctx context.Context, req domain.QueryRequest, resp domain.QueryResponse, start time.Time) domain.QueryResponse {
	resp.Timestamp = time.Now().UTC()
	o.publishEvent(ctx, req, resp, time.Since(start))
	return resp
}

func failureResponse(cq *domain.ClassifiedQuery, agent string, err *domain.Error) domain.QueryResponse {
	return domain.QueryResponse{
		Classification: cq,
		AgentUsed:      agent,
		Error:          err,
	}
}

func stubResponse(cq *domain.ClassifiedQuery, payload StubPayload) domain.QueryResponse {
	return domain.QueryResponse{
		Success:        true,
		Classification: cq,
		AgentUsed:      domain.AgentNone,
		Result:         payload,
	}
}

func followUpPayload(mem *domain.MemoryContext) StubPayload {
	p := StubPayload{Message: "follow-up questions are not yet linked to previous results, please repeat the full request"}
	if mem != nil && len(mem.RecentQueries) > 0 {
		p.Hint = fmt.Sprintf("your last query was %q", mem.RecentQueries[0].Query)
	}
	return p
}

// loadMemory is best-effort: failures are logged and an empty context used.
func (o *Orchestrator) loadMemory(ctx context.Context, req domain.QueryRequest) *domain.MemoryContext {
	if !req.MemoryEnabled || o.memory == nil || req.UserID == "" {
		return nil
	}

	mctx, cancel := context.WithTimeout(ctx, memoryTimeout)
	defer cancel()

	mem, err := o.memory.GetContext(mctx, req.UserID)
	if err != nil {
		slog.Warn("memory load failed", "user_id", req.UserID, "error", err)
		return nil
	}
	return mem
}

// storeMemory records a successful query, best-effort.
func (o *Orchestrator) storeMemory(ctx context.Context, req domain.QueryRequest, cq domain.ClassifiedQuery) {
	if !req.MemoryEnabled || o.memory == nil || req.UserID == "" {
		return
	}

	rec := domain.MemoryRecord{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Query:     req.Query,
		Intent:    cq.Intent,
		Category:  cq.Entities.PrimaryPOI,
		Transport: cq.Entities.Transport,
		Success:   true,
		CreatedAt: time.Now().UTC(),
	}

	mctx, cancel := context.WithTimeout(ctx, memoryTimeout)
	defer cancel()

	if err := o.memory.AddMemory(mctx, req.UserID, rec); err != nil {
		slog.Warn("memory store failed", "user_id", req.UserID, "error", err)
	}
}

func (o *Orchestrator) publishEvent(ctx context.Context, req domain.QueryRequest, resp domain.QueryResponse, took time.Duration) {
	if o.events == nil {
		return
	}

	evt := &domain.QueryEvent{
		QueryID:    uuid.NewString(),
		UserID:     req.UserID,
		Agent:      resp.AgentUsed,
		Success:    resp.Success,
		DurationMS: took.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}
	if resp.Classification != nil {
		evt.Intent = resp.Classification.Intent
		evt.Complexity = resp.Classification.Complexity
	}

	if err := o.events.PublishQueryResolved(ctx, evt); err != nil {
		slog.Warn("query event publish failed", "error", err)
	}
}
