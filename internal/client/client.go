// Package client provides an HTTP client for the adboard REST API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ptrcarlson/adboard/internal/credit"
	"github.com/ptrcarlson/adboard/internal/enquiry"
	"github.com/ptrcarlson/adboard/internal/listing"
	"github.com/ptrcarlson/adboard/internal/viewlog"
)

// Client is an HTTP client for the adboard API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError is an error response from the server. It keeps the HTTP
// status code so callers can map it back onto domain errors.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string { return e.Message }

// New creates a new API client.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ShowResponse is the response from GET /api/listings/{id}.
type ShowResponse struct {
	Listing   *listing.Listing   `json:"listing"`
	Enquiries []*enquiry.Enquiry `json:"enquiries"`
}

// ListOptions shapes the result of ListListings through the server-side
// view engine.
type ListOptions struct {
	OwnerID string
	Query   string
	Status  string
	Sort    string
}

// ListListings returns listings, filtered and sorted by the server.
func (c *Client) ListListings(opts ListOptions) ([]*listing.Listing, error) {
	params := url.Values{}
	if opts.OwnerID != "" {
		params.Set("owner_id", opts.OwnerID)
	}
	if opts.Query != "" {
		params.Set("q", opts.Query)
	}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Sort != "" {
		params.Set("sort", opts.Sort)
	}

	path := "/api/listings"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var listings []*listing.Listing
	if err := c.get(path, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// GetListing returns a listing with its enquiries. The server counts
// the call as a view.
func (c *Client) GetListing(id string) (*ShowResponse, error) {
	var resp ShowResponse
	if err := c.get("/api/listings/"+id, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateListing submits a new listing draft for an owner.
func (c *Client) CreateListing(ownerID string, d listing.Draft) (*listing.Listing, error) {
	body := struct {
		OwnerID string `json:"owner_id"`
		listing.Draft
	}{OwnerID: ownerID, Draft: d}

	var l listing.Listing
	if err := c.post("/api/listings", body, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// DuplicateListing copies a listing, spending a listing credit.
func (c *Client) DuplicateListing(id string) (*listing.Listing, error) {
	var l listing.Listing
	if err := c.post("/api/listings/"+id+"/duplicate", nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// FeatureListing features a listing, spending a boosting credit.
func (c *Client) FeatureListing(id string) error {
	return c.post("/api/listings/"+id+"/feature", nil, nil)
}

// ToggleListing flips a listing between active and inactive and
// returns the new status.
func (c *Client) ToggleListing(id string) (listing.Status, error) {
	var resp struct {
		Status listing.Status `json:"status"`
	}
	if err := c.post("/api/listings/"+id+"/toggle", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// DeleteListing removes a listing.
func (c *Client) DeleteListing(id string) error {
	return c.doDelete("/api/listings/" + id)
}

// Batch runs a bulk action (activate, deactivate, feature, delete)
// over the owner's selected listings. Deletion requires confirm.
func (c *Client) Batch(ownerID, action string, ids []string, confirm bool) error {
	body := map[string]interface{}{
		"owner_id": ownerID,
		"action":   action,
		"ids":      ids,
		"confirm":  confirm,
	}
	return c.post("/api/listings/batch", body, nil)
}

// AddEnquiry records a consumer enquiry on a listing.
func (c *Client) AddEnquiry(id, name, contact, message string) (*enquiry.Enquiry, error) {
	body := map[string]string{
		"name":    name,
		"contact": contact,
		"message": message,
	}
	var e enquiry.Enquiry
	if err := c.post("/api/listings/"+id+"/enquiries", body, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEnquiries returns enquiries for a listing.
func (c *Client) ListEnquiries(id string) ([]*enquiry.Enquiry, error) {
	var enquiries []*enquiry.Enquiry
	if err := c.get("/api/listings/"+id+"/enquiries", &enquiries); err != nil {
		return nil, err
	}
	return enquiries, nil
}

// ListViews returns the recorded view events for a listing.
func (c *Client) ListViews(id string) ([]*viewlog.Event, error) {
	var events []*viewlog.Event
	if err := c.get("/api/listings/"+id+"/views", &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetBalance returns an owner's credit balance.
func (c *Client) GetBalance(ownerID string) (credit.Balance, error) {
	var b credit.Balance
	if err := c.get("/api/credits?owner_id="+url.QueryEscape(ownerID), &b); err != nil {
		return credit.Balance{}, err
	}
	return b, nil
}

// Grant adds credits to an owner's balance and returns the updated
// balance.
func (c *Client) Grant(ownerID string, field credit.Field, amount int, reason string) (credit.Balance, error) {
	body := map[string]interface{}{
		"owner_id": ownerID,
		"field":    string(field),
		"amount":   amount,
		"reason":   reason,
	}
	var b credit.Balance
	if err := c.post("/api/credits/grants", body, &b); err != nil {
		return credit.Balance{}, err
	}
	return b, nil
}

// RequestCredits submits a credit request for review.
func (c *Client) RequestCredits(ownerID string, field credit.Field, amount int) (*credit.Request, error) {
	body := map[string]interface{}{
		"owner_id": ownerID,
		"field":    string(field),
		"amount":   amount,
	}
	var req credit.Request
	if err := c.post("/api/credits/requests", body, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListRequests returns credit requests, optionally filtered by status.
func (c *Client) ListRequests(status string) ([]*credit.Request, error) {
	path := "/api/credits/requests"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var requests []*credit.Request
	if err := c.get(path, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// ApproveRequest approves a pending credit request.
func (c *Client) ApproveRequest(id, reviewer string) (*credit.Request, error) {
	return c.review(id, reviewer, "approve")
}

// RejectRequest rejects a pending credit request.
func (c *Client) RejectRequest(id, reviewer string) (*credit.Request, error) {
	return c.review(id, reviewer, "reject")
}

func (c *Client) review(id, reviewer, verb string) (*credit.Request, error) {
	body := map[string]string{"reviewed_by": reviewer}
	var req credit.Request
	if err := c.post(fmt.Sprintf("/api/credits/requests/%s/%s", id, verb), body, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// History returns an owner's ledger movements, newest first.
func (c *Client) History(ownerID string) ([]*credit.Transaction, error) {
	var history []*credit.Transaction
	if err := c.get("/api/credits/history?owner_id="+url.QueryEscape(ownerID), &history); err != nil {
		return nil, err
	}
	return history, nil
}

// get performs a GET request and decodes the response.
func (c *Client) get(path string, result interface{}) error {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// post performs a POST request with a JSON body and decodes the response.
func (c *Client) post(path string, body interface{}, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

// patch performs a PATCH request with a JSON body.
func (c *Client) patch(path string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequest("PATCH", c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, nil)
}

// doDelete performs a DELETE request.
func (c *Client) doDelete(path string) error {
	req, err := http.NewRequest("DELETE", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, nil)
}

// do executes an HTTP request and handles errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "error", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: "server error: " + http.StatusText(resp.StatusCode)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
