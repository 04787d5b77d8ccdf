package classify_test

import (
	"context"
	"testing"

	"github.com/samirrijal/wayfinder/internal/core/classify"
	"github.com/samirrijal/wayfinder/internal/core/domain"
)

func TestRuleClassifier_Classify(t *testing.T) {
	cases := []struct {
		name      string
		text      string
		intent    domain.Intent
		primary   domain.POICategory
		secondary domain.POICategory
		transport domain.TransportMode
		minutes   int // 0 means no constraint expected
		dest      string
		cuisine   string
	}{
		{
			name:    "nearest cue",
			text:    "find the nearest cafe",
			intent:  domain.IntentFindNearest,
			primary: domain.CategoryCafe,
		},
		{
			name:      "time budget with transport",
			text:      "coffee shops within 15 minutes walk",
			intent:    domain.IntentFindWithinTime,
			primary:   domain.CategoryCafe,
			transport: domain.TransportWalking,
			minutes:   15,
		},
		{
			name:      "half an hour by bike",
			text:      "find a pharmacy within half an hour by bike",
			intent:    domain.IntentFindWithinTime,
			primary:   domain.CategoryPharmacy,
			transport: domain.TransportCycling,
			minutes:   30,
		},
		{
			name:   "directions",
			text:   "how do i get to the airport",
			intent: domain.IntentGetDirections,
			dest:   "airport",
		},
		{
			name:   "follow-up",
			text:   "what about the second one",
			intent: domain.IntentFollowUp,
		},
		{
			name:   "greeting",
			text:   "hello",
			intent: domain.IntentClarification,
		},
		{
			name:    "enroute",
			text:    "grab a coffee on the way to the airport",
			intent:  domain.IntentFindEnroute,
			primary: domain.CategoryCafe,
			dest:    "airport",
		},
		{
			name:    "bare category",
			text:    "where can i buy groceries",
			intent:  domain.IntentFindNearest,
			primary: domain.CategorySupermarket,
		},
		{
			name:      "two categories with locative",
			text:      "italian restaurants near the hospital",
			intent:    domain.IntentFindNearPOI,
			primary:   domain.CategoryRestaurant,
			secondary: domain.CategoryHospital,
			cuisine:   "italian",
		},
	}

	rules := classify.NewRuleClassifier()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := rules.Classify(tc.text)

			if got.Intent != tc.intent {
				t.Errorf("intent: expected %s, got %s", tc.intent, got.Intent)
			}
			if got.Entities.PrimaryPOI != tc.primary {
				t.Errorf("primary: expected %q, got %q", tc.primary, got.Entities.PrimaryPOI)
			}
			if got.Entities.SecondaryPOI != tc.secondary {
				t.Errorf("secondary: expected %q, got %q", tc.secondary, got.Entities.SecondaryPOI)
			}
			if tc.transport != "" && got.Entities.Transport != tc.transport {
				t.Errorf("transport: expected %s, got %s", tc.transport, got.Entities.Transport)
			}
			if tc.minutes > 0 {
				if got.Entities.TimeConstraint == nil {
					t.Errorf("expected %d minute constraint, got none", tc.minutes)
				} else if *got.Entities.TimeConstraint != tc.minutes {
					t.Errorf("minutes: expected %d, got %d", tc.minutes, *got.Entities.TimeConstraint)
				}
			}
			if got.Entities.Destination != tc.dest {
				t.Errorf("destination: expected %q, got %q", tc.dest, got.Entities.Destination)
			}
			if tc.cuisine != "" && got.Entities.Cuisine != tc.cuisine {
				t.Errorf("cuisine: expected %q, got %q", tc.cuisine, got.Entities.Cuisine)
			}
			if got.Source != domain.SourceRules {
				t.Errorf("expected rules source, got %s", got.Source)
			}
			if got.Complexity != tc.intent.Complexity() {
				t.Errorf("complexity: expected %s, got %s", tc.intent.Complexity(), got.Complexity)
			}
		})
	}
}

func TestRuleClassifier_FollowUpRequiresContext(t *testing.T) {
	got := classify.NewRuleClassifier().Classify("tell me more about that one")
	if got.Intent != domain.IntentFollowUp {
		t.Fatalf("expected follow-up, got %s", got.Intent)
	}
	if !got.RequiresContext {
		t.Error("expected RequiresContext for a follow-up")
	}
}

func TestClassifier_EnrouteSkipsCategorySwap(t *testing.T) {
	// The locative marker would swap hospital/cafe for an ordinary compound
	// search, but enroute queries keep the roles the classifier assigned.
	c := newClassifier(fixedReply(
		`{"intent":"find-enroute","primary_poi":"hospital","secondary_poi":"cafe","destination":"austin","confidence":0.8}`))

	got, err := c.Classify(context.Background(), "grab coffee near the hospital on my way to austin", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Intent != domain.IntentFindEnroute {
		t.Fatalf("expected find-enroute, got %s", got.Intent)
	}
	if got.Entities.PrimaryPOI != domain.CategoryHospital {
		t.Errorf("expected primary hospital (no swap), got %s", got.Entities.PrimaryPOI)
	}
	if got.Entities.SecondaryPOI != domain.CategoryCafe {
		t.Errorf("expected secondary cafe, got %s", got.Entities.SecondaryPOI)
	}
}

func TestClassifier_CuisineAsCategory(t *testing.T) {
	c := newClassifier(fixedReply(
		`{"intent":"find-nearest","primary_poi":"italian","confidence":0.85}`))

	got, err := c.Classify(context.Background(), "find italian near me", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Entities.PrimaryPOI != domain.CategoryRestaurant {
		t.Errorf("expected restaurant, got %s", got.Entities.PrimaryPOI)
	}
	if got.Entities.Cuisine != "italian" {
		t.Errorf("expected italian cuisine, got %q", got.Entities.Cuisine)
	}
}

func TestClassifier_CuisineQualifiedCategory(t *testing.T) {
	c := newClassifier(fixedReply(
		`{"intent":"find-nearest","primary_poi":"italian restaurant","confidence":0.85}`))

	got, err := c.Classify(context.Background(), "best italian restaurant around here", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Entities.PrimaryPOI != domain.CategoryRestaurant {
		t.Errorf("expected restaurant, got %s", got.Entities.PrimaryPOI)
	}
	if got.Entities.Cuisine != "italian" {
		t.Errorf("expected italian cuisine, got %q", got.Entities.Cuisine)
	}
}

func TestClassifier_InvalidTransportDefaultsToWalking(t *testing.T) {
	c := newClassifier(fixedReply(
		`{"intent":"find-nearest","primary_poi":"cafe","transport":"jetpack","confidence":0.9}`))

	got, err := c.Classify(context.Background(), "find a cafe", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Entities.Transport != domain.TransportWalking {
		t.Errorf("expected walking default, got %s", got.Entities.Transport)
	}
}
