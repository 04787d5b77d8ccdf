package agents_test

import (
	"context"
	"testing"

	"github.com/samirrijal/wayfinder/internal/core/agents"
	"github.com/samirrijal/wayfinder/internal/core/classify"
	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
)

func rulesClassifier() *classify.Classifier {
	return classify.NewClassifier(nil, classify.NewRuleClassifier())
}

func TestOrchestrator_HandleQuery_EmptyQuery(t *testing.T) {
	orch := agents.NewOrchestrator(rulesClassifier(), &mockAgent{}, &mockAgent{}, nil, nil)

	resp := orch.HandleQuery(context.Background(), domain.QueryRequest{Query: "   "})
	if resp.Success {
		t.Fatal("expected failure for an empty query")
	}
	if resp.AgentUsed != domain.AgentNone {
		t.Errorf("expected no agent, got %s", resp.AgentUsed)
	}
	if resp.Error == nil || resp.Error.Code != domain.ErrInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %+v", resp.Error)
	}
}

func TestOrchestrator_HandleQuery_ClarifyExit(t *testing.T) {
	simple := &mockAgent{}
	multi := &mockAgent{}
	orch := agents.NewOrchestrator(rulesClassifier(), simple, multi, nil, nil)

	resp := orch.HandleQuery(context.Background(), domain.QueryRequest{Query: "hello"})
	if resp.Success {
		t.Fatal("expected failure for a clarification query")
	}
	if resp.AgentUsed != domain.AgentNone {
		t.Errorf("expected no agent, got %s", resp.AgentUsed)
	}
	if simple.calls+multi.calls != 0 {
		t.Error("no agent may run on a clarify exit")
	}
	if resp.Classification == nil || resp.Classification.Intent != domain.IntentClarification {
		t.Error("expected the classification on the response")
	}
}

func TestOrchestrator_HandleQuery_LowConfidenceExit(t *testing.T) {
	llm := &mockLLM{generateFn: func(context.Context, string, ports.GenerateOptions) (string, error) {
		return `{"intent":"find-nearest","primary_poi":"cafe","confidence":0.3}`, nil
	}}
	classifier := classify.NewClassifier(llm, classify.NewRuleClassifier())
	simple := &mockAgent{}
	orch := agents.NewOrchestrator(classifier, simple, &mockAgent{}, nil, nil)

	resp := orch.HandleQuery(context.Background(), domain.QueryRequest{Query: "find the nearest cafe"})
	if resp.Success {
		t.Fatal("expected failure below the confidence gate")
	}
	if resp.AgentUsed != domain.AgentNone || simple.calls != 0 {
		t.Error("no agent may run below the confidence gate")
	}
}

func TestOrchestrator_HandleQuery_RoutesSimple(t *testing.T) {
	simple := &mockAgent{executeFn: func(_ context.Context, cq domain.ClassifiedQuery, _ *domain.Location) domain.AgentResult {
		if cq.Intent != domain.IntentFindNearest {
			t.Errorf("expected find-nearest, got %s", cq.Intent)
		}
		return domain.AgentResult{
			Success:   true,
			Agent:     domain.AgentSimple,
			Tools:     []string{"find-nearest-poi"},
			Reasoning: []string{"found one"},
			Data:      "payload",
		}
	}}
	multi := &mockAgent{}
	orch := agents.NewOrchestrator(rulesClassifier(), simple, multi, nil, nil)

	resp := orch.HandleQuery(context.Background(), domain.QueryRequest{
		Query:        "find the nearest cafe",
		UserLocation: locPtr(houston),
	})
	if !resp.Success {
		t.Fatalf("unexpected failure: %+v", resp.Error)
	}
	if resp.AgentUsed != domain.AgentSimple {
		t.Errorf("expected the simple agent, got %s", resp.AgentUsed)
	}
	if simple.calls != 1 || multi.calls != 0 {
		t.Errorf("expected only the simple agent to run, got simple=%d multi=%d", simple.calls, multi.calls)
	}

	payload, ok := resp.Result.(agents.ResultPayload)
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}
	if payload.Data != "payload" || len(payload.Tools) != 1 {
		t.Errorf("unexpected payload: %+v", payload)
	}
	if resp.Timestamp.IsZero() {
		t.Error("expected a response timestamp")
	}
}

func TestOrchestrator_HandleQuery_RoutesMultiStep(t *testing.T) {
	simple := &mockAgent{}
	multi := &mockAgent{executeFn: func(_ context.Context, cq domain.ClassifiedQuery, _ *domain.Location) domain.AgentResult {
		return domain.AgentResult{Success: true, Agent: domain.AgentMultiStep}
	}}
	orch := agents.NewOrchestrator(rulesClassifier(), simple, multi, nil, nil)

	resp := orch.HandleQuery(context.Background(), domain.QueryRequest{
		Query:        "italian restaurants near the hospital",
		UserLocation: locPtr(houston),
	})
	if !resp.Success {
		t.Fatalf("unexpected failure: %+v", resp.Error)
	}
	if resp.AgentUsed != domain.AgentMultiStep {
		t.Errorf("expected the multi-step agent, got %s", resp.AgentUsed)
	}
	if simple.calls != 0 || multi.calls != 1 {
		t.Errorf("expected only the multi-step agent to run, got simple=%d multi=%d", simple.calls, multi.calls)
	}
}

func TestOrchestrator_HandleQuery_FollowUpStub(t *testing.T) {
	memory := &mockMemory{contextFn: func(_ context.Context, userID string) (*domain.MemoryContext, error) {
		return &domain.MemoryContext{
			UserID:        userID,
			RecentQueries: []domain.MemoryRecord{{Query: "find the nearest cafe"}},
		}, nil
	}}
	simple := &mockAgent{}
	orch := agents.NewOrchestrator(rulesClassifier(), simple, &mockAgent{}, memory, nil)

	resp := orch.HandleQuery(context.Background(), domain.QueryRequest{
		Query:         "what about the second one",
		UserID:        "u1",
		MemoryEnabled: true,
	})
	if !resp.Success {
		t.Fatalf("expected an informational stub, got %+v", resp.Error)
	}
	if resp.AgentUsed != domain.AgentNone || simple.calls != 0 {
		t.Error("stub exits must not invoke an agent")
	}

	stub, ok := resp.Result.(agents.StubPayload)
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}
	if stub.Message == "" {
		t.Error("expected a stub message")
	}
	if stub.Hint == "" {
		t.Error("expected a hint built from the remembered query")
	}
}

func TestOrchestrator_HandleQuery_DirectionsStubWithoutDestination(t *testing.T) {
	llm := &mockLLM{generateFn: func(context.Context, string, ports.GenerateOptions) (string, error) {
		return `{"intent":"get_directions","confidence":0.8}`, nil
	}}
	classifier := classify.NewClassifier(llm, classify.NewRuleClassifier())
	simple := &mockAgent{}
	orch := agents.NewOrchestrator(classifier, simple, &mockAgent{}, nil, nil)

	resp := orch.HandleQuery(context.Background(), domain.QueryRequest{
		Query:        "take me there",
		UserLocation: locPtr(houston),
	})
	if !resp.Success {
		t.Fatalf("expected an informational stub, got %+v", resp.Error)
	}
	if simple.calls != 0 {
		t.Error("directions without a destination must not reach an agent")
	}
	if _, ok := resp.Result.(agents.StubPayload); !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}
}

func TestOrchestrator_HandleQuery_DirectionsWithDestinationRoutesSimple(t *testing.T) {
	simple := &mockAgent{executeFn: func(_ context.Context, cq domain.ClassifiedQuery, _ *domain.Location) domain.AgentResult {
		if cq.Intent != domain.IntentGetDirections {
			t.Errorf("expected get-directions, got %s", cq.Intent)
		}
		return domain.AgentResult{Success: true, Agent: domain.AgentSimple}
	}}
	orch := agents.NewOrchestrator(rulesClassifier(), simple, &mockAgent{}, nil, nil)

	resp := orch.HandleQuery(context.Background(), domain.QueryRequest{
		Query:        "how do i get to the airport",
		UserLocation: locPtr(houston),
	})
	if !resp.Success {
		t.Fatalf("unexpected failure: %+v", resp.Error)
	}
	if simple.calls != 1 {
		t.Errorf("expected the simple agent to handle directions, got %d calls", simple.calls)
	}
}

func TestOrchestrator_HandleQuery_MemoryStoreOnSuccessOnly(t *testing.T) {
	memory := &mockMemory{}
	success := &mockAgent{executeFn: func(context.Context, domain.ClassifiedQuery, *domain.Location) domain.AgentResult {
		return domain.AgentResult{Success: true, Agent: domain.AgentSimple}
	}}
	orch := agents.NewOrchestrator(rulesClassifier(), success, &mockAgent{}, memory, nil)

	req := domain.QueryRequest{
		Query:         "find the nearest cafe",
		UserID:        "u1",
		UserLocation:  locPtr(houston),
		MemoryEnabled: true,
	}
	orch.HandleQuery(context.Background(), req)
	if len(memory.added) != 1 {
		t.Fatalf("expected 1 memory record, got %d", len(memory.added))
	}
	rec := memory.added[0]
	if rec.UserID != "u1" || rec.Intent != domain.IntentFindNearest || rec.Query != req.Query {
		t.Errorf("unexpected memory record: %+v", rec)
	}
	if rec.ID == "" {
		t.Error("expected a generated record ID")
	}

	failing := &mockAgent{executeFn: func(context.Context, domain.ClassifiedQuery, *domain.Location) domain.AgentResult {
		return domain.AgentResult{Agent: domain.AgentSimple, Error: domain.NewError(domain.ErrNoResultsFound, "nothing")}
	}}
	memory2 := &mockMemory{}
	orch2 := agents.NewOrchestrator(rulesClassifier(), failing, &mockAgent{}, memory2, nil)

	orch2.HandleQuery(context.Background(), req)
	if len(memory2.added) != 0 {
		t.Errorf("failed queries must not be stored, got %d records", len(memory2.added))
	}
}

func TestOrchestrator_HandleQuery_MemoryFailuresAreSwallowed(t *testing.T) {
	memory := &mockMemory{
		contextFn: func(context.Context, string) (*domain.MemoryContext, error) {
			return nil, context.DeadlineExceeded
		},
		addErr: context.DeadlineExceeded,
	}
	simple := &mockAgent{executeFn: func(context.Context, domain.ClassifiedQuery, *domain.Location) domain.AgentResult {
		return domain.AgentResult{Success: true, Agent: domain.AgentSimple}
	}}
	orch := agents.NewOrchestrator(rulesClassifier(), simple, &mockAgent{}, memory, nil)

	resp := orch.HandleQuery(context.Background(), domain.QueryRequest{
		Query:         "find the nearest cafe",
		UserID:        "u1",
		UserLocation:  locPtr(houston),
		MemoryEnabled: true,
	})
	if !resp.Success {
		t.Fatalf("memory failures must not fail the query: %+v", resp.Error)
	}
}

func TestOrchestrator_HandleQuery_PublishesEvent(t *testing.T) {
	events := &mockEvents{}
	simple := &mockAgent{executeFn: func(context.Context, domain.ClassifiedQuery, *domain.Location) domain.AgentResult {
		return domain.AgentResult{Success: true, Agent: domain.AgentSimple}
	}}
	orch := agents.NewOrchestrator(rulesClassifier(), simple, &mockAgent{}, nil, events)

	orch.HandleQuery(context.Background(), domain.QueryRequest{
		Query:        "find the nearest cafe",
		UserID:       "u1",
		UserLocation: locPtr(houston),
	})
	if len(events.published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events.published))
	}
	evt := events.published[0]
	if evt.Intent != domain.IntentFindNearest || evt.Agent != domain.AgentSimple || !evt.Success {
		t.Errorf("unexpected event: %+v", evt)
	}
	if evt.QueryID == "" {
		t.Error("expected a generated query ID")
	}

	// Exits publish too, with no agent.
	orch.HandleQuery(context.Background(), domain.QueryRequest{Query: "hello"})
	if len(events.published) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events.published))
	}
	if evt := events.published[1]; evt.Success || evt.Agent != domain.AgentNone {
		t.Errorf("unexpected exit event: %+v", evt)
	}
}

func TestOrchestrator_HandleQuery_PublishFailureIsSwallowed(t *testing.T) {
	events := &mockEvents{publishErr: context.DeadlineExceeded}
	simple := &mockAgent{executeFn: func(context.Context, domain.ClassifiedQuery, *domain.Location) domain.AgentResult {
		return domain.AgentResult{Success: true, Agent: domain.AgentSimple}
	}}
	orch := agents.NewOrchestrator(rulesClassifier(), simple, &mockAgent{}, nil, events)

	resp := orch.HandleQuery(context.Background(), domain.QueryRequest{
		Query:        "find the nearest cafe",
		UserLocation: locPtr(houston),
	})
	if !resp.Success {
		t.Fatalf("publish failures must not fail the query: %+v", resp.Error)
	}
}
