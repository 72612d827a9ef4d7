// Package viewlog records listing views. It is the only writer of a
// listing's views_count.
package viewlog

import "time"

// Source says where a view came from.
type Source string

const (
	SourceWeb Source = "web"
	SourceAPI Source = "api"
)

// Event represents one recorded view of a listing.
type Event struct {
	ID        int64     `json:"id"`
	ListingID string    `json:"listing_id"`
	Source    Source    `json:"source"`
	ViewedAt  time.Time `json:"viewed_at"`
}

// Recorder is the view-logging contract. Record appends an event and
// bumps the listing's view counter as one unit.
type Recorder interface {
	Record(listingID string, source Source) error
	ListByListingID(listingID string) ([]*Event, error)
}
