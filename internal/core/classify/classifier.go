package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
)

const (
	llmTimeout     = 30 * time.Second
	maxHistory     = 3
	llmTemperature = 0.1
	llmMaxTokens   = 512
)

// Classifier is the two-stage classification pipeline: an LLM primary path
// with the rule engine as fallback, followed by shared normalization and a
// final rule-based sanity pass that can override the primary result.
type Classifier struct {
	llm   ports.LLMClient
	rules *RuleClassifier
}

// NewClassifier creates a Classifier. llm may be nil, in which case only
// the rule path runs.
func NewClassifier(llm ports.LLMClient, rules *RuleClassifier) *Classifier {
	return &Classifier{llm: llm, rules: rules}
}

// Classify turns free text plus optional conversation history into a
// ClassifiedQuery. The result always passes the post-processing invariants;
// the error is non-nil only for unusable input.
func (c *Classifier) Classify(ctx context.Context, text string, history []domain.ConversationTurn) (domain.ClassifiedQuery, error) {
	if strings.TrimSpace(text) == "" {
		return domain.ClassifiedQuery{}, domain.NewError(domain.ErrInvalidInput, "query text must not be empty")
	}

	base, err := c.classifyLLM(ctx, text, history)
	if err != nil {
		slog.Debug("llm classification unavailable, using rules", "error", err)
		base = c.rules.Classify(text)
	}

	out := applyInvariants(base, text)

	// Final sanity pass: the rule engine is a trusted override when the
	// chosen intent disagrees with unambiguous cues in the raw text.
	if override, ok := c.sanityOverride(out, text); ok {
		out = override
	}

	return out, nil
}

// sanityOverride re-checks the raw text against the enroute and
// clarification regexes. When the chosen intent disagrees with one of those
// cues, the rule-based result is substituted at high confidence. The
// substitution only happens if the rule engine actually lands on a
// different intent after normalization.
func (c *Classifier) sanityOverride(cq domain.ClassifiedQuery, text string) (domain.ClassifiedQuery, bool) {
	lower := strings.ToLower(text)

	enrouteDisagrees := enroutePattern.MatchString(lower) && cq.Intent != domain.IntentFindEnroute
	clarificationDisagrees := clarificationPattern.MatchString(lower) && cq.Intent != domain.IntentClarification
	if !enrouteDisagrees && !clarificationDisagrees {
		return cq, false
	}

	override := applyInvariants(c.rules.Classify(text), text)
	if override.Intent == cq.Intent {
		return cq, false
	}
	override.Confidence = overrideConfidence
	override.Source = domain.SourceRuleOverride
	return override, true
}

// llmReply is the fixed output schema requested from the LLM.
type llmReply struct {
	Intent          string   `json:"intent"`
	PrimaryPOI      string   `json:"primary_poi"`
	SecondaryPOI    string   `json:"secondary_poi"`
	Transport       string   `json:"transport"`
	TimeConstraint  *int     `json:"time_constraint"`
	Destination     string   `json:"destination"`
	Cuisine         string   `json:"cuisine"`
	Keywords        []string `json:"keywords"`
	RequiresContext bool     `json:"requires_context"`
	Confidence      float64  `json:"confidence"`
	Reasoning       string   `json:"reasoning"`
}

func (c *Classifier) classifyLLM(ctx context.Context, text string, history []domain.ConversationTurn) (domain.ClassifiedQuery, error) {
	if c.llm == nil {
		return domain.ClassifiedQuery{}, fmt.Errorf("no llm configured")
	}

	ctx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	reply, err := c.llm.Generate(ctx, buildPrompt(text, history), ports.GenerateOptions{
		Temperature: llmTemperature,
		MaxTokens:   llmMaxTokens,
		Format:      "json",
	})
	if err != nil {
		return domain.ClassifiedQuery{}, fmt.Errorf("generate: %w", err)
	}

	raw, ok := extractJSONObject(reply)
	if !ok {
		return domain.ClassifiedQuery{}, fmt.Errorf("no JSON object in reply")
	}

	var parsed llmReply
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return domain.ClassifiedQuery{}, fmt.Errorf("unmarshal reply: %w", err)
	}

	return domain.ClassifiedQuery{
		Intent: parseIntent(parsed.Intent),
		Entities: domain.QueryEntities{
			PrimaryPOI:     domain.POICategory(strings.ToLower(parsed.PrimaryPOI)),
			SecondaryPOI:   domain.POICategory(strings.ToLower(parsed.SecondaryPOI)),
			Transport:      parseTransport(parsed.Transport),
			TimeConstraint: parsed.TimeConstraint,
			Destination:    strings.TrimSpace(parsed.Destination),
			Cuisine:        strings.ToLower(strings.TrimSpace(parsed.Cuisine)),
			Keywords:       parsed.Keywords,
		},
		RequiresContext: parsed.RequiresContext,
		Confidence:      parsed.Confidence,
		Reasoning:       parsed.Reasoning,
		Source:          domain.SourceLLM,
	}, nil
}

// parseIntent tolerates case and underscore/hyphen variations.
func parseIntent(s string) domain.Intent {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "-")
	return domain.Intent(s)
}

func parseTransport(s string) domain.TransportMode {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	switch s {
	case "walk", "foot":
		s = "walking"
	case "drive", "car":
		s = "driving"
	case "bike", "bicycle":
		s = "cycling"
	case "transit", "bus", "train":
		s = "public_transport"
	}
	return domain.TransportMode(s)
}

// extractJSONObject returns the first balanced JSON object in s. LLM
// replies often wrap JSON in prose or code fences; brace matching is
// tolerant of both.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// buildPrompt asks for the fixed output schema, with up to 3 prior turns of
// conversation for context.
func buildPrompt(text string, history []domain.ConversationTurn) string {
	var b strings.Builder

	b.WriteString("Classify the user's place-finding request into JSON.\n\n")
	b.WriteString("Intents: find-nearest, find-within-time, find-near-poi, find-enroute, get-directions, follow-up, clarification.\n")
	b.WriteString("Categories: ")
	for i, cat := range domain.AllCategories {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(cat))
	}
	b.WriteString(".\nTransport: walking, driving, cycling, public_transport.\n\n")
	b.WriteString(`Reply with exactly one JSON object:
{"intent": "", "primary_poi": "", "secondary_poi": "", "transport": "", "time_constraint": null, "destination": "", "cuisine": "", "keywords": [], "requires_context": false, "confidence": 0.0, "reasoning": ""}` + "\n\n")

	if n := len(history); n > 0 {
		if n > maxHistory {
			history = history[n-maxHistory:]
		}
		b.WriteString("Previous conversation:\n")
		for _, turn := range history {
			role := "User"
			if turn.Role == "assistant" {
				role = "Assistant"
			}
			fmt.Fprintf(&b, "%s: %s\n", role, turn.Content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Current request: %s\n", text)
	return b.String()
}
