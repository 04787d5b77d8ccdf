package classify

import (
	"fmt"
	"strings"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// ruleConfidence is reported when the rule engine runs as the fallback path.
// When it overrides a disagreeing primary result it is trusted at 0.9.
const (
	ruleConfidence     = 0.6
	overrideConfidence = 0.9
)

// RuleClassifier is the deterministic keyword/regex classifier. It is both
// the fallback when the LLM path fails and the trusted override in the
// final sanity pass.
type RuleClassifier struct{}

// NewRuleClassifier creates a RuleClassifier.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// Classify derives a ClassifiedQuery from the text alone. Deterministic:
// the same text always yields the same intent and complexity.
func (r *RuleClassifier) Classify(text string) domain.ClassifiedQuery {
	lower := strings.ToLower(strings.TrimSpace(text))

	cats := findCategories(lower)
	entities := domain.QueryEntities{
		Transport:      findTransport(lower),
		TimeConstraint: findTimeConstraint(lower),
		Cuisine:        findCuisine(lower),
		Keywords:       extractKeywords(lower),
	}
	if len(cats) > 0 {
		entities.PrimaryPOI = cats[0].Category
	}
	if len(cats) > 1 {
		entities.SecondaryPOI = cats[1].Category
	}

	intent, reasoning := r.decideIntent(lower, cats, entities)

	if intent == domain.IntentFindEnroute || intent == domain.IntentGetDirections {
		entities.Destination = findDestination(lower)
	}

	cq := domain.ClassifiedQuery{
		Intent:          intent,
		Complexity:      intent.Complexity(),
		Entities:        entities,
		RequiresContext: intent == domain.IntentFollowUp,
		Confidence:      ruleConfidence,
		Reasoning:       reasoning,
		Source:          domain.SourceRules,
	}
	return cq
}

// decideIntent walks the cue checks in priority order.
func (r *RuleClassifier) decideIntent(text string, cats []categoryMatch, e domain.QueryEntities) (domain.Intent, string) {
	switch {
	case clarificationPattern.MatchString(text):
		return domain.IntentClarification, "no searchable request in text"

	case followUpPattern.MatchString(text):
		return domain.IntentFollowUp, "follow-up cue refers to a previous answer"

	case enroutePattern.MatchString(text) && len(cats) > 0:
		return domain.IntentFindEnroute, "enroute cue with a place category"

	case directionsPattern.MatchString(text):
		return domain.IntentGetDirections, "directions cue"

	case len(cats) > 1 && locativePattern.MatchString(text):
		return domain.IntentFindNearPOI,
			fmt.Sprintf("two categories (%s, %s) joined by a locative marker", cats[0].Category, cats[1].Category)

	case len(cats) > 0 && e.TimeConstraint != nil:
		return domain.IntentFindWithinTime,
			fmt.Sprintf("category %s with a %d minute budget", cats[0].Category, *e.TimeConstraint)

	case len(cats) > 0 && (nearestPattern.MatchString(text) || withinPattern.MatchString(text)):
		return domain.IntentFindNearest, fmt.Sprintf("nearest cue with category %s", cats[0].Category)

	case len(cats) > 0:
		return domain.IntentFindNearest, fmt.Sprintf("bare category %s defaults to nearest", cats[0].Category)

	default:
		return domain.IntentClarification, "no category or cue recognized"
	}
}
