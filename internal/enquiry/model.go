// Package enquiry provides consumer enquiries attached to listings.
package enquiry

import "time"

// Enquiry represents one consumer message about a listing.
type Enquiry struct {
	ID        int64     `json:"id"`
	ListingID string    `json:"listing_id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the enquiry persistence contract.
type Store interface {
	Add(listingID, name, contact, message string) (*Enquiry, error)
	ListByListingID(listingID string) ([]*Enquiry, error)
	Delete(id int64) error
}
