package client

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/ptrcarlson/adboard/internal/credit"
	"github.com/ptrcarlson/adboard/internal/listing"
)

// The client doubles as a remote record store and credit ledger, so an
// orchestrator can run against a server instead of the local database.
// These methods hit the raw /api/store surface, which skips the
// server-side orchestrator and view logger.
var (
	_ listing.Store = (*Client)(nil)
	_ credit.Ledger = (*Client)(nil)
)

// Query returns raw records, newest first.
func (c *Client) Query(f listing.QueryFilter) ([]*listing.Listing, error) {
	params := url.Values{}
	if f.OwnerID != "" {
		params.Set("owner_id", f.OwnerID)
	}
	if f.Status != "" {
		params.Set("status", string(f.Status))
	}

	path := "/api/store/listings"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var listings []*listing.Listing
	if err := c.get(path, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// GetByID returns one record without counting a view.
func (c *Client) GetByID(id string) (*listing.Listing, error) {
	var l listing.Listing
	if err := c.get("/api/store/listings/"+id, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Insert stores a new record and returns it with its assigned id and
// timestamps.
func (c *Client) Insert(l *listing.Listing) (*listing.Listing, error) {
	var saved listing.Listing
	if err := c.post("/api/store/listings", l, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// Update applies a partial update to one record.
func (c *Client) Update(id string, p listing.Patch) error {
	return c.patch("/api/store/listings/"+id, p)
}

// UpdateMany applies a partial update to every selected record.
func (c *Client) UpdateMany(ids []string, p listing.Patch) error {
	body := struct {
		IDs   []string      `json:"ids"`
		Patch listing.Patch `json:"patch"`
	}{IDs: ids, Patch: p}
	return c.post("/api/store/listings/update", body, nil)
}

// Delete removes one record.
func (c *Client) Delete(id string) error {
	return c.doDelete("/api/store/listings/" + id)
}

// DeleteMany removes every selected record.
func (c *Client) DeleteMany(ids []string) error {
	body := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}
	return c.post("/api/store/listings/delete", body, nil)
}

// IncrementViews bumps a record's view counter.
func (c *Client) IncrementViews(id string) error {
	return c.post("/api/store/listings/"+id+"/views", nil, nil)
}

// Decrement consumes credits from an owner's balance. A conflict from
// the server maps back onto credit.ErrInsufficient so gate checks work
// the same against a remote ledger.
func (c *Client) Decrement(ownerID string, field credit.Field, amount int) error {
	body := map[string]interface{}{
		"owner_id": ownerID,
		"field":    string(field),
		"amount":   amount,
	}

	err := c.post("/api/credits/decrement", body, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
		return credit.ErrInsufficient
	}
	return err
}
