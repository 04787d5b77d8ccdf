package classify

import (
	"strings"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// applyInvariants runs the ordered post-processing rules over a raw
// classification, regardless of which pipeline stage produced it. The order
// is load-bearing: later rules may depend on earlier normalizations.
func applyInvariants(cq domain.ClassifiedQuery, text string) domain.ClassifiedQuery {
	lower := strings.ToLower(text)

	// 1. Unknown intent collapses to clarification at low confidence.
	if !cq.Intent.Valid() {
		cq.Intent = domain.IntentClarification
		if cq.Confidence > 0.5 {
			cq.Confidence = 0.5
		}
	}

	// 2. Brand and cuisine tokens resolve to taxonomy categories. A cuisine
	// named as the "category" means a restaurant of that cuisine, never a
	// cuisine-specific category.
	cq.Entities.PrimaryPOI, cq.Entities.Cuisine = normalizeCategory(cq.Entities.PrimaryPOI, cq.Entities.Cuisine)
	cq.Entities.SecondaryPOI, cq.Entities.Cuisine = normalizeCategory(cq.Entities.SecondaryPOI, cq.Entities.Cuisine)

	// 3. Word-order swap: the category named as "what I want" is primary,
	// the landmark is secondary. Best-effort on substring positions; enroute
	// queries have independent semantics and are left alone.
	if cq.Intent != domain.IntentFindEnroute {
		cq.Entities = maybeSwapCategories(cq.Entities, lower)
	}

	// 4. A secondary category makes this a compound search.
	if cq.Entities.SecondaryPOI != "" {
		cq.Intent = domain.IntentFindNearPOI
		if cq.Entities.Cuisine == "" {
			cq.Entities.Cuisine = findCuisine(lower)
		}
	}

	// 5. An enroute cue plus a destination overrides everything else.
	if enroutePattern.MatchString(lower) && cq.Entities.Destination != "" {
		cq.Intent = domain.IntentFindEnroute
	}

	// 6. Transport defaults to walking.
	if !cq.Entities.Transport.Valid() {
		cq.Entities.Transport = domain.TransportWalking
	}

	// Complexity is always derived, never trusted from the input.
	cq.Complexity = cq.Intent.Complexity()
	if cq.Intent == domain.IntentFollowUp {
		cq.RequiresContext = true
	}

	cq.Confidence = clamp01(cq.Confidence)
	return cq
}

// normalizeCategory resolves one category slot. Cuisine tokens move into
// the cuisine slot with the category downgraded to restaurant.
func normalizeCategory(cat domain.POICategory, cuisine string) (domain.POICategory, string) {
	token := strings.TrimSpace(string(cat))
	if token == "" {
		return "", cuisine
	}

	if isCuisineToken(token) {
		if cuisine == "" {
			cuisine = strings.ToLower(token)
		}
		return domain.CategoryRestaurant, cuisine
	}

	// "italian restaurant" style phrases: split the qualifier off.
	if fields := strings.Fields(strings.ToLower(token)); len(fields) > 1 && isCuisineToken(fields[0]) {
		if cuisine == "" {
			cuisine = fields[0]
		}
		token = strings.Join(fields[1:], " ")
	}

	if normalized, ok := normalizeCategoryToken(token); ok {
		return normalized, cuisine
	}
	return "", cuisine
}

// maybeSwapCategories applies the locative-marker heuristic: when the
// primary category appears after the marker and the secondary before it,
// the two were extracted in the wrong roles.
func maybeSwapCategories(e domain.QueryEntities, text string) domain.QueryEntities {
	if e.PrimaryPOI == "" || e.SecondaryPOI == "" {
		return e
	}

	marker := locativePattern.FindStringIndex(text)
	if marker == nil {
		return e
	}

	primaryPos := categoryPosition(text, e.PrimaryPOI)
	secondaryPos := categoryPosition(text, e.SecondaryPOI)
	if primaryPos < 0 || secondaryPos < 0 {
		return e
	}

	if primaryPos > marker[0] && secondaryPos < marker[0] {
		e.PrimaryPOI, e.SecondaryPOI = e.SecondaryPOI, e.PrimaryPOI
	}
	return e
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
