package classify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// categoryLexicon maps query tokens — category names, synonyms and brand
// names — onto the closed POI taxonomy. Longer tokens win over shorter ones
// so "coffee shop" is consumed before "coffee".
var categoryLexicon = map[string]domain.POICategory{
	// direct category names
	"cafe": domain.CategoryCafe, "restaurant": domain.CategoryRestaurant,
	"fast food": domain.CategoryFastFood, "bar": domain.CategoryBar,
	"bakery": domain.CategoryBakery, "supermarket": domain.CategorySupermarket,
	"pharmacy": domain.CategoryPharmacy, "hospital": domain.CategoryHospital,
	"clinic": domain.CategoryClinic, "park": domain.CategoryPark,
	"gym": domain.CategoryGym, "library": domain.CategoryLibrary,
	"school": domain.CategorySchool, "bank": domain.CategoryBank,
	"atm": domain.CategoryATM, "hotel": domain.CategoryHotel,
	"cinema": domain.CategoryCinema, "museum": domain.CategoryMuseum,

	// synonyms
	"coffee shop": domain.CategoryCafe, "coffee": domain.CategoryCafe,
	"espresso": domain.CategoryCafe,
	"food": domain.CategoryRestaurant, "eat": domain.CategoryRestaurant,
	"lunch": domain.CategoryRestaurant, "dinner": domain.CategoryRestaurant,
	"grocery store": domain.CategorySupermarket, "grocery": domain.CategorySupermarket,
	"groceries": domain.CategorySupermarket,
	"drugstore": domain.CategoryPharmacy,
	"gas station": domain.CategoryFuel, "gas": domain.CategoryFuel,
	"petrol": domain.CategoryFuel, "fuel": domain.CategoryFuel,
	"workout": domain.CategoryGym, "fitness": domain.CategoryGym,
	"doctor": domain.CategoryClinic,
	"emergency room": domain.CategoryHospital, "er": domain.CategoryHospital,
	"pub": domain.CategoryBar, "drinks": domain.CategoryBar,
	"motel": domain.CategoryHotel,
	"movie theater": domain.CategoryCinema, "movies": domain.CategoryCinema,
	"movie": domain.CategoryCinema, "theater": domain.CategoryCinema,
	"mall": domain.CategoryShoppingMall, "shopping mall": domain.CategoryShoppingMall,
	"gallery": domain.CategoryMuseum,
	"playground": domain.CategoryPark,

	// brand names
	"starbucks": domain.CategoryCafe, "dunkin": domain.CategoryCafe,
	"mcdonalds": domain.CategoryFastFood, "mcdonald's": domain.CategoryFastFood,
	"burger king": domain.CategoryFastFood, "kfc": domain.CategoryFastFood,
	"taco bell": domain.CategoryFastFood, "subway": domain.CategoryFastFood,
	"chipotle": domain.CategoryFastFood, "wendys": domain.CategoryFastFood,
	"wendy's": domain.CategoryFastFood,
	"cvs": domain.CategoryPharmacy, "walgreens": domain.CategoryPharmacy,
	"walmart": domain.CategorySupermarket, "target": domain.CategorySupermarket,
	"costco": domain.CategorySupermarket, "kroger": domain.CategorySupermarket,
	"heb": domain.CategorySupermarket, "aldi": domain.CategorySupermarket,
	"whole foods": domain.CategorySupermarket, "trader joes": domain.CategorySupermarket,
	"trader joe's": domain.CategorySupermarket,
	"shell": domain.CategoryFuel, "exxon": domain.CategoryFuel,
	"chevron": domain.CategoryFuel,
	"chase": domain.CategoryBank, "wells fargo": domain.CategoryBank,
	"bank of america": domain.CategoryBank,
}

// cuisineTokens are free-text qualifiers that stay in entities.cuisine and
// never become a category on their own.
var cuisineTokens = []string{
	"italian", "mexican", "chinese", "japanese", "thai", "indian", "vietnamese",
	"korean", "greek", "french", "mediterranean", "american", "bbq", "barbecue",
	"sushi", "pizza", "seafood", "vegan", "vegetarian",
}

var transportLexicon = map[string]domain.TransportMode{
	"walk": domain.TransportWalking, "walking": domain.TransportWalking,
	"on foot": domain.TransportWalking, "by foot": domain.TransportWalking,
	"drive": domain.TransportDriving, "driving": domain.TransportDriving,
	"by car": domain.TransportDriving, "car": domain.TransportDriving,
	"bike": domain.TransportCycling, "biking": domain.TransportCycling,
	"cycling": domain.TransportCycling, "bicycle": domain.TransportCycling,
	"bus": domain.TransportPublicTransport, "train": domain.TransportPublicTransport,
	"transit": domain.TransportPublicTransport, "subway ride": domain.TransportPublicTransport,
	"metro": domain.TransportPublicTransport, "public transport": domain.TransportPublicTransport,
	"public transit": domain.TransportPublicTransport,
}

var (
	minutesPattern  = regexp.MustCompile(`\b(\d+)\s*(?:minutes?|mins?)\b`)
	hoursPattern    = regexp.MustCompile(`\b(\d+)\s*(?:hours?|hrs?)\b`)
	halfHourPattern = regexp.MustCompile(`\bhalf an hour\b`)
	oneHourPattern  = regexp.MustCompile(`\ban? hour\b`)

	locativePattern = regexp.MustCompile(`\b(close to|next to|near|around|by)\b`)
	nearestPattern  = regexp.MustCompile(`\b(nearest|closest)\b`)
	withinPattern   = regexp.MustCompile(`\bwithin\b`)

	enroutePattern = regexp.MustCompile(
		`\b(on (?:the|my) way|en ?route|along the way|before (?:going|heading|i get)|on the (?:drive|ride|trip))\b`)
	directionsPattern = regexp.MustCompile(
		`\b(directions to|how do i get to|navigate to|take me to|route to)\b`)
	followUpPattern = regexp.MustCompile(
		`\b(what about|how about|which one|tell me more|more info|the (?:first|second|third|last) one|that one|those)\b`)
	clarificationPattern = regexp.MustCompile(
		`^\s*(?:hi|hello|hey|help|what can you do|what|huh|\?+)[\s?!.]*$`)

	destinationPattern = regexp.MustCompile(
		`\b(?:way to|going to|heading to|get to|to)\s+(?:the\s+)?([a-z][a-z0-9' ]{1,60})`)

	wordPattern = regexp.MustCompile(`[a-z][a-z']+`)
)

// stopwords excluded from extracted keywords.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "any": true, "are": true, "can": true,
	"find": true, "for": true, "from": true, "get": true, "give": true,
	"i": true, "in": true, "is": true, "it": true, "me": true, "my": true,
	"of": true, "on": true, "or": true, "place": true, "places": true,
	"please": true, "show": true, "some": true, "that": true, "the": true,
	"there": true, "to": true, "want": true, "what": true, "where": true,
	"with": true, "you": true,
}

// categoryMatch is one lexicon hit with its position in the text.
type categoryMatch struct {
	Category domain.POICategory
	Token    string
	Pos      int
}

// lexiconTokens holds lexicon keys sorted longest-first so multi-word
// tokens are matched before their substrings.
var lexiconTokens = func() []string {
	tokens := make([]string, 0, len(categoryLexicon))
	for tok := range categoryLexicon {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if len(tokens[i]) != len(tokens[j]) {
			return len(tokens[i]) > len(tokens[j])
		}
		return tokens[i] < tokens[j]
	})
	return tokens
}()

// tokenPatterns are plural-tolerant: "restaurants" and "cafes" hit the
// singular lexicon entries.
var tokenPatterns = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(lexiconTokens))
	for _, tok := range lexiconTokens {
		m[tok] = regexp.MustCompile(`\b` + regexp.QuoteMeta(tok) + `s?\b`)
	}
	return m
}()

var cuisinePatterns = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(cuisineTokens))
	for _, c := range cuisineTokens {
		m[c] = regexp.MustCompile(`\b` + regexp.QuoteMeta(c) + `\b`)
	}
	return m
}()

var transportPatterns = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(transportLexicon))
	for tok := range transportLexicon {
		m[tok] = regexp.MustCompile(`\b` + regexp.QuoteMeta(tok) + `\b`)
	}
	return m
}()

// findCategories returns every distinct category mentioned in the text,
// ordered by first occurrence. Overlapping tokens are consumed longest-first.
func findCategories(text string) []categoryMatch {
	used := make([]bool, len(text))
	var matches []categoryMatch

	for _, tok := range lexiconTokens {
		for _, loc := range tokenPatterns[tok].FindAllStringIndex(text, -1) {
			overlaps := false
			for i := loc[0]; i < loc[1]; i++ {
				if used[i] {
					overlaps = true
					break
				}
			}
			if overlaps {
				continue
			}
			for i := loc[0]; i < loc[1]; i++ {
				used[i] = true
			}
			matches = append(matches, categoryMatch{
				Category: categoryLexicon[tok],
				Token:    tok,
				Pos:      loc[0],
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Pos < matches[j].Pos })

	// Collapse repeat mentions of the same category.
	seen := make(map[domain.POICategory]bool)
	distinct := matches[:0]
	for _, m := range matches {
		if seen[m.Category] {
			continue
		}
		seen[m.Category] = true
		distinct = append(distinct, m)
	}
	return distinct
}

// categoryPosition returns the first position in text of any token mapping
// to the category, or -1. Best-effort: multi-word categories may mismatch.
func categoryPosition(text string, cat domain.POICategory) int {
	pos := -1
	for _, tok := range lexiconTokens {
		if categoryLexicon[tok] != cat {
			continue
		}
		if loc := tokenPatterns[tok].FindStringIndex(text); loc != nil {
			if pos == -1 || loc[0] < pos {
				pos = loc[0]
			}
		}
	}
	return pos
}

// normalizeCategoryToken resolves a free token (possibly a brand, synonym or
// category name) to a taxonomy category. The boolean reports success.
func normalizeCategoryToken(token string) (domain.POICategory, bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return "", false
	}
	if cat, ok := categoryLexicon[token]; ok {
		return cat, true
	}
	if cat := domain.POICategory(strings.ReplaceAll(token, " ", "_")); cat.Valid() {
		return cat, true
	}
	if singular := strings.TrimSuffix(token, "s"); singular != token {
		return normalizeCategoryToken(singular)
	}
	return "", false
}

// findCuisine returns the first cuisine qualifier in the text.
func findCuisine(text string) string {
	pos := -1
	found := ""
	for _, c := range cuisineTokens {
		if loc := cuisinePatterns[c].FindStringIndex(text); loc != nil && (pos == -1 || loc[0] < pos) {
			pos = loc[0]
			found = c
		}
	}
	if found == "barbecue" {
		found = "bbq"
	}
	return found
}

// isCuisineToken reports whether the token is a cuisine qualifier.
func isCuisineToken(token string) bool {
	token = strings.ToLower(strings.TrimSpace(token))
	for _, c := range cuisineTokens {
		if token == c {
			return true
		}
	}
	return false
}

// findTransport returns the transport mode mentioned in the text, longest
// token first so "public transport" wins over "transit".
func findTransport(text string) domain.TransportMode {
	best := domain.TransportMode("")
	bestLen := 0
	for tok, mode := range transportLexicon {
		if transportPatterns[tok].MatchString(text) && len(tok) > bestLen {
			best = mode
			bestLen = len(tok)
		}
	}
	return best
}

// findTimeConstraint extracts a time budget in minutes, or nil.
func findTimeConstraint(text string) *int {
	if m := minutesPattern.FindStringSubmatch(text); m != nil {
		if n := atoiSafe(m[1]); n > 0 {
			return &n
		}
	}
	if m := hoursPattern.FindStringSubmatch(text); m != nil {
		if n := atoiSafe(m[1]); n > 0 {
			n *= 60
			return &n
		}
	}
	if halfHourPattern.MatchString(text) {
		n := 30
		return &n
	}
	if oneHourPattern.MatchString(text) {
		n := 60
		return &n
	}
	return nil
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
		if n > 100000 {
			return 0
		}
	}
	return n
}

// findDestination extracts the destination phrase for enroute/directions
// queries. Trailing category/transport words are trimmed off.
func findDestination(text string) string {
	m := destinationPattern.FindStringSubmatch(text)
	if m == nil {
		if strings.Contains(text, "downtown") {
			return "downtown"
		}
		return ""
	}

	dest := strings.TrimSpace(m[1])
	// Cut at a trailing time phrase ("downtown in 30 minutes").
	if loc := minutesPattern.FindStringIndex(dest); loc != nil {
		dest = strings.TrimSpace(dest[:loc[0]])
	}
	dest = strings.TrimSuffix(dest, " in")
	return dest
}

// extractKeywords keeps the content-bearing tokens of the query, capped.
func extractKeywords(text string) []string {
	var out []string
	for _, w := range wordPattern.FindAllString(text, -1) {
		if stopwords[w] || len(w) < 3 {
			continue
		}
		out = append(out, w)
		if len(out) == 8 {
			break
		}
	}
	return out
}
