package models

import "time"

// LocationSource identifies which acquisition path produced a location.
type LocationSource string

const (
	SourceGPS    LocationSource = "gps"
	SourceMap    LocationSource = "map"
	SourceSearch LocationSource = "search"
)

// LocationSelection is the single current location of a report draft.
// Selecting from a new source replaces the previous value wholesale;
// fields from different sources are never merged.
type LocationSelection struct {
	Coordinate Coordinate     `json:"coordinate"`
	Address    string         `json:"address"`
	Source     LocationSource `json:"source"`
	Accuracy   *float64       `json:"accuracy,omitempty"` // meters, GPS fixes only
	SelectedAt time.Time      `json:"selected_at"`
}

// SearchResult is one normalized hit from the place-search service.
// Transient: it lives until the next query or a selection.
type SearchResult struct {
	ID         string     `json:"id"`
	Coordinate Coordinate `json:"coordinate"`
	Title      string     `json:"title"`
	Subtitle   string     `json:"subtitle"`
	Importance float64    `json:"importance"`
}
