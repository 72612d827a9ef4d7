// Package listing provides the property listing domain model, the
// filter/sort view engine, and the credit-gated action workflow.
package listing

import (
	"time"
)

// Status represents where a listing is in its lifecycle.
// A listing has exactly one status at a time.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusSold     Status = "sold"
	StatusRented   Status = "rented"
)

// ValidStatus returns true if s is a known listing status.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusDraft, StatusPending, StatusActive, StatusInactive, StatusSold, StatusRented:
		return true
	}
	return false
}

// PropertyType values accepted for a listing.
const (
	TypeHouse     = "house"
	TypeApartment = "apartment"
	TypeCondo     = "condo"
	TypeVilla     = "villa"
	TypeStudio    = "studio"
	TypeShophouse = "shophouse"
)

// ValidPropertyType returns true if t is a known property type.
func ValidPropertyType(t string) bool {
	switch t {
	case TypeHouse, TypeApartment, TypeCondo, TypeVilla, TypeStudio, TypeShophouse:
		return true
	}
	return false
}

// ListingType values: a listing is for sale or for rent.
const (
	ForSale = "sale"
	ForRent = "rent"
)

// Listing represents one advertised property.
type Listing struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	PropertyType string    `json:"property_type"`
	ListingType  string    `json:"listing_type"`
	Price        int64     `json:"price"`
	Bedrooms     int       `json:"bedrooms"`
	Bathrooms    int       `json:"bathrooms"`
	AreaSqft     float64   `json:"area_sqft"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	PostalCode   string    `json:"postal_code,omitempty"`
	Amenities    []string  `json:"amenities,omitempty"`
	ImageURLs    []string  `json:"image_urls,omitempty"`
	Status       Status    `json:"status"`
	IsFeatured   bool      `json:"is_featured"`
	ViewsCount   int64     `json:"views_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the listing.
func (l *Listing) Clone() *Listing {
	c := *l
	if l.Amenities != nil {
		c.Amenities = append([]string(nil), l.Amenities...)
	}
	if l.ImageURLs != nil {
		c.ImageURLs = append([]string(nil), l.ImageURLs...)
	}
	return &c
}

// duplicateOf builds the insert payload for a duplicate of src.
// Title gets a "(Copy)" suffix; status, featured flag and view counter
// are reset so the copy re-enters the approval pipeline from scratch.
func duplicateOf(src *Listing) *Listing {
	d := src.Clone()
	d.ID = ""
	d.Title = src.Title + " (Copy)"
	d.Status = StatusPending
	d.IsFeatured = false
	d.ViewsCount = 0
	d.CreatedAt = time.Time{}
	d.UpdatedAt = time.Time{}
	return d
}
