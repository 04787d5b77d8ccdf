package domain

// Intent is the closed set of query intents the classifier may produce.
type Intent string

const (
	IntentFindNearest    Intent = "find-nearest"
	IntentFindWithinTime Intent = "find-within-time"
	IntentFindNearPOI    Intent = "find-near-poi"
	IntentFindEnroute    Intent = "find-enroute"
	IntentGetDirections  Intent = "get-directions"
	IntentFollowUp       Intent = "follow-up"
	IntentClarification  Intent = "clarification"
)

// Valid reports whether the intent is one of the known values.
func (i Intent) Valid() bool {
	switch i {
	case IntentFindNearest, IntentFindWithinTime, IntentFindNearPOI,
		IntentFindEnroute, IntentGetDirections, IntentFollowUp, IntentClarification:
		return true
	}
	return false
}

// Complexity derives the plan complexity from the intent. It is never set
// independently: compound searches and enroute searches need multi-step
// plans, everything else is single-step.
func (i Intent) Complexity() Complexity {
	switch i {
	case IntentFindNearPOI, IntentFindEnroute:
		return ComplexityMultiStep
	default:
		return ComplexitySimple
	}
}

// Complexity selects which agent executes the query.
type Complexity string

const (
	ComplexitySimple    Complexity = "simple"
	ComplexityMultiStep Complexity = "multi-step"
)

// TransportMode is a travel mode understood by the routing collaborator.
type TransportMode string

const (
	TransportWalking         TransportMode = "walking"
	TransportDriving         TransportMode = "driving"
	TransportCycling         TransportMode = "cycling"
	TransportPublicTransport TransportMode = "public_transport"
)

// Valid reports whether the mode is one of the known values.
func (m TransportMode) Valid() bool {
	switch m {
	case TransportWalking, TransportDriving, TransportCycling, TransportPublicTransport:
		return true
	}
	return false
}

// POICategory is the closed category taxonomy shared with the POI search
// collaborator. Brand names and synonyms are normalized into it by the
// classifier; free-text cuisine qualifiers stay in QueryEntities.Cuisine.
type POICategory string

const (
	CategoryCafe         POICategory = "cafe"
	CategoryRestaurant   POICategory = "restaurant"
	CategoryFastFood     POICategory = "fast_food"
	CategoryBar          POICategory = "bar"
	CategoryBakery       POICategory = "bakery"
	CategorySupermarket  POICategory = "supermarket"
	CategoryPharmacy     POICategory = "pharmacy"
	CategoryHospital     POICategory = "hospital"
	CategoryClinic       POICategory = "clinic"
	CategoryPark         POICategory = "park"
	CategoryGym          POICategory = "gym"
	CategoryLibrary      POICategory = "library"
	CategorySchool       POICategory = "school"
	CategoryBank         POICategory = "bank"
	CategoryATM          POICategory = "atm"
	CategoryFuel         POICategory = "fuel"
	CategoryHotel        POICategory = "hotel"
	CategoryCinema       POICategory = "cinema"
	CategoryMuseum       POICategory = "museum"
	CategoryShoppingMall POICategory = "shopping_mall"
)

// AllCategories lists the full taxonomy in a stable order.
var AllCategories = []POICategory{
	CategoryCafe, CategoryRestaurant, CategoryFastFood, CategoryBar, CategoryBakery,
	CategorySupermarket, CategoryPharmacy, CategoryHospital, CategoryClinic, CategoryPark,
	CategoryGym, CategoryLibrary, CategorySchool, CategoryBank, CategoryATM,
	CategoryFuel, CategoryHotel, CategoryCinema, CategoryMuseum, CategoryShoppingMall,
}

// Valid reports whether the category is part of the taxonomy.
func (c POICategory) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// QueryEntities holds everything the classifier extracted from the text.
// Only the classifier mutates these during normalization (brand→category
// mapping, cuisine extraction, primary/secondary disambiguation).
type QueryEntities struct {
	PrimaryPOI     POICategory   `json:"primary_poi,omitempty"`
	SecondaryPOI   POICategory   `json:"secondary_poi,omitempty"`
	Transport      TransportMode `json:"transport,omitempty"`
	TimeConstraint *int          `json:"time_constraint,omitempty"` // minutes
	Destination    string        `json:"destination,omitempty"`
	Cuisine        string        `json:"cuisine,omitempty"`
	Keywords       []string      `json:"keywords,omitempty"`
}

// ClassificationSource tags which stage of the classification pipeline
// produced the final result.
type ClassificationSource string

const (
	SourceLLM          ClassificationSource = "llm"
	SourceRules        ClassificationSource = "rules"
	SourceRuleOverride ClassificationSource = "rule-override"
)

// ClassifiedQuery is the immutable output of the classifier.
type ClassifiedQuery struct {
	Intent          Intent               `json:"intent"`
	Complexity      Complexity           `json:"complexity"`
	Entities        QueryEntities        `json:"entities"`
	RequiresContext bool                 `json:"requires_context"`
	Confidence      float64              `json:"confidence"`
	Reasoning       string               `json:"reasoning,omitempty"`
	Source          ClassificationSource `json:"source"`
}

// NeedsClarification reports whether the caller must ask the user to
// rephrase instead of executing the query.
func (q ClassifiedQuery) NeedsClarification() bool {
	return q.Intent == IntentClarification || q.Confidence < 0.5
}

// ConversationTurn is one prior exchange passed back in for context.
type ConversationTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}
