package models

import "time"

// ProviderReliability is the adaptive trust score for one score provider.
// Updated only by the learning feedback step after a position resolves,
// never by the provider itself.
type ProviderReliability struct {
	SourceID  string    `json:"source_id"`
	Score     float64   `json:"score"` // floor..1.0
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	UpdatedAt time.Time `json:"updated_at"`
}
