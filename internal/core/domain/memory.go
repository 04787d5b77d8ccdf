package domain

import "time"

// MemoryRecord is one remembered query outcome for a user.
type MemoryRecord struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Query     string        `json:"query"`
	Intent    Intent        `json:"intent"`
	Category  POICategory   `json:"category,omitempty"`
	Transport TransportMode `json:"transport,omitempty"`
	Success   bool          `json:"success"`
	CreatedAt time.Time     `json:"created_at"`
}

// MemoryContext summarizes a user's history for the classifier and agents.
// Loaded best-effort; an empty context is always a valid substitute.
type MemoryContext struct {
	UserID             string         `json:"user_id"`
	RecentQueries      []MemoryRecord `json:"recent_queries,omitempty"`
	PreferredTransport TransportMode  `json:"preferred_transport,omitempty"`
	FrequentCategories []POICategory  `json:"frequent_categories,omitempty"`
}
