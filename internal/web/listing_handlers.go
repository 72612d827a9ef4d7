package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ptrcarlson/adboard/internal/enquiry"
	"github.com/ptrcarlson/adboard/internal/listing"
	"github.com/ptrcarlson/adboard/internal/viewlog"
)

// handleListings routes /api/listings requests.
func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/listings")
	path = strings.TrimPrefix(path, "/")

	// /api/listings: list or create
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			s.apiListListings(w, r)
		case http.MethodPost:
			s.apiCreateListing(w, r)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// /api/listings/batch
	if path == "batch" {
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiBatch(w, r)
		return
	}

	// /api/listings/{id}/enquiries
	if strings.HasSuffix(path, "/enquiries") {
		id := strings.TrimSuffix(path, "/enquiries")
		switch r.Method {
		case http.MethodGet:
			s.apiListEnquiries(w, id)
		case http.MethodPost:
			s.apiAddEnquiry(w, r, id)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// /api/listings/{id}/views
	if strings.HasSuffix(path, "/views") {
		id := strings.TrimSuffix(path, "/views")
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiListViews(w, id)
		return
	}

	// /api/listings/{id}/duplicate
	if strings.HasSuffix(path, "/duplicate") {
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiDuplicateListing(w, strings.TrimSuffix(path, "/duplicate"))
		return
	}

	// /api/listings/{id}/feature
	if strings.HasSuffix(path, "/feature") {
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiFeatureListing(w, strings.TrimSuffix(path, "/feature"))
		return
	}

	// /api/listings/{id}/toggle
	if strings.HasSuffix(path, "/toggle") {
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiToggleListing(w, strings.TrimSuffix(path, "/toggle"))
		return
	}

	// /api/listings/{id}: show or remove
	switch r.Method {
	case http.MethodGet:
		s.apiGetListing(w, path)
	case http.MethodDelete:
		s.apiDeleteListing(w, path)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// apiListListings returns listings through the view engine. The q,
// status and sort parameters shape the result; owner_id narrows the
// stored set before filtering.
func (s *Server) apiListListings(w http.ResponseWriter, r *http.Request) {
	records, err := s.listings.Query(listing.QueryFilter{
		OwnerID: r.URL.Query().Get("owner_id"),
	})
	if err != nil {
		apiError(w, fmt.Sprintf("querying listings: %v", err), http.StatusInternalServerError)
		return
	}

	visible := listing.View(records, listing.QueryState{
		Text:   r.URL.Query().Get("q"),
		Status: r.URL.Query().Get("status"),
		Sort:   listing.SortKey(r.URL.Query().Get("sort")),
	})
	if visible == nil {
		visible = make([]*listing.Listing, 0)
	}

	apiJSON(w, visible, http.StatusOK)
}

// apiCreateListing submits a new listing for the owner in the body.
func (s *Server) apiCreateListing(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerID string `json:"owner_id"`
		listing.Draft
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.OwnerID == "" {
		apiError(w, "owner_id is required", http.StatusBadRequest)
		return
	}

	svc, err := s.serviceFor(req.OwnerID)
	if err != nil {
		actionError(w, err)
		return
	}

	saved, err := svc.Create(req.Draft)
	if err != nil && !reloadOnly(err) {
		actionError(w, err)
		return
	}

	apiJSON(w, saved, http.StatusCreated)
}

// apiGetListing returns one listing with its enquiries and records the
// view.
func (s *Server) apiGetListing(w http.ResponseWriter, id string) {
	l, err := s.listings.GetByID(id)
	if err != nil {
		apiError(w, "listing not found", http.StatusNotFound)
		return
	}

	if err := s.views.Record(id, viewlog.SourceAPI); err != nil {
		apiError(w, fmt.Sprintf("recording view: %v", err), http.StatusInternalServerError)
		return
	}
	l.ViewsCount++

	enquiries, err := s.enquiries.ListByListingID(id)
	if err != nil {
		apiError(w, fmt.Sprintf("loading enquiries: %v", err), http.StatusInternalServerError)
		return
	}

	type response struct {
		Listing   *listing.Listing `json:"listing"`
		Enquiries interface{}      `json:"enquiries"`
	}

	apiJSON(w, response{Listing: l, Enquiries: enquiries}, http.StatusOK)
}

// apiDeleteListing removes a listing through its owner's orchestrator.
func (s *Server) apiDeleteListing(w http.ResponseWriter, id string) {
	l, err := s.listings.GetByID(id)
	if err != nil {
		apiError(w, "listing not found", http.StatusNotFound)
		return
	}

	svc, err := s.serviceFor(l.OwnerID)
	if err != nil {
		actionError(w, err)
		return
	}
	if err := svc.Delete(id); err != nil && !reloadOnly(err) {
		actionError(w, err)
		return
	}

	apiJSON(w, map[string]interface{}{"id": id, "removed": true}, http.StatusOK)
}

// apiDuplicateListing copies a listing, spending a listing credit.
func (s *Server) apiDuplicateListing(w http.ResponseWriter, id string) {
	l, err := s.listings.GetByID(id)
	if err != nil {
		apiError(w, "listing not found", http.StatusNotFound)
		return
	}

	svc, err := s.serviceFor(l.OwnerID)
	if err != nil {
		actionError(w, err)
		return
	}

	dup, err := svc.Duplicate(id)
	if err != nil && !reloadOnly(err) {
		actionError(w, err)
		return
	}

	apiJSON(w, dup, http.StatusCreated)
}

// apiFeatureListing features a listing, spending a boosting credit.
func (s *Server) apiFeatureListing(w http.ResponseWriter, id string) {
	l, err := s.listings.GetByID(id)
	if err != nil {
		apiError(w, "listing not found", http.StatusNotFound)
		return
	}

	svc, err := s.serviceFor(l.OwnerID)
	if err != nil {
		actionError(w, err)
		return
	}
	if err := svc.Feature(id); err != nil && !reloadOnly(err) {
		actionError(w, err)
		return
	}

	apiJSON(w, map[string]interface{}{"id": id, "featured": true}, http.StatusOK)
}

// apiToggleListing flips a listing between active and inactive.
func (s *Server) apiToggleListing(w http.ResponseWriter, id string) {
	l, err := s.listings.GetByID(id)
	if err != nil {
		apiError(w, "listing not found", http.StatusNotFound)
		return
	}

	svc, err := s.serviceFor(l.OwnerID)
	if err != nil {
		actionError(w, err)
		return
	}

	next, err := svc.ToggleStatus(id)
	if err != nil && !reloadOnly(err) {
		actionError(w, err)
		return
	}

	apiJSON(w, map[string]interface{}{"id": id, "status": next}, http.StatusOK)
}

// apiBatch runs a bulk action over the owner's selected listings.
// Deletion additionally requires confirm, matching the destructive
// double-check in the CLI.
func (s *Server) apiBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerID string   `json:"owner_id"`
		Action  string   `json:"action"`
		IDs     []string `json:"ids"`
		Confirm bool     `json:"confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.OwnerID == "" {
		apiError(w, "owner_id is required", http.StatusBadRequest)
		return
	}

	svc, err := s.serviceFor(req.OwnerID)
	if err != nil {
		actionError(w, err)
		return
	}

	switch req.Action {
	case "activate":
		err = svc.BatchSetStatus(req.IDs, listing.StatusActive)
	case "deactivate":
		err = svc.BatchSetStatus(req.IDs, listing.StatusInactive)
	case "feature":
		err = svc.BatchFeature(req.IDs)
	case "delete":
		if !req.Confirm {
			apiError(w, "batch delete requires confirm", http.StatusBadRequest)
			return
		}
		err = svc.BatchDelete(req.IDs)
	default:
		apiError(w, fmt.Sprintf("unknown batch action: %q", req.Action), http.StatusBadRequest)
		return
	}
	if err != nil && !reloadOnly(err) {
		actionError(w, err)
		return
	}

	apiJSON(w, map[string]interface{}{"action": req.Action, "count": len(req.IDs)}, http.StatusOK)
}

// apiListEnquiries returns enquiries for a listing.
func (s *Server) apiListEnquiries(w http.ResponseWriter, id string) {
	if _, err := s.listings.GetByID(id); err != nil {
		apiError(w, "listing not found", http.StatusNotFound)
		return
	}

	enquiries, err := s.enquiries.ListByListingID(id)
	if err != nil {
		apiError(w, fmt.Sprintf("loading enquiries: %v", err), http.StatusInternalServerError)
		return
	}
	if enquiries == nil {
		enquiries = make([]*enquiry.Enquiry, 0)
	}

	apiJSON(w, enquiries, http.StatusOK)
}

// apiAddEnquiry records a consumer enquiry on a listing.
func (s *Server) apiAddEnquiry(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Name    string `json:"name"`
		Contact string `json:"contact"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		apiError(w, "name is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		apiError(w, "message is required", http.StatusBadRequest)
		return
	}

	if _, err := s.listings.GetByID(id); err != nil {
		apiError(w, "listing not found", http.StatusNotFound)
		return
	}

	e, err := s.enquiries.Add(id, strings.TrimSpace(req.Name), strings.TrimSpace(req.Contact), strings.TrimSpace(req.Message))
	if err != nil {
		apiError(w, fmt.Sprintf("adding enquiry: %v", err), http.StatusInternalServerError)
		return
	}

	apiJSON(w, e, http.StatusCreated)
}

// apiListViews returns the recorded view events for a listing.
func (s *Server) apiListViews(w http.ResponseWriter, id string) {
	if _, err := s.listings.GetByID(id); err != nil {
		apiError(w, "listing not found", http.StatusNotFound)
		return
	}

	events, err := s.views.ListByListingID(id)
	if err != nil {
		apiError(w, fmt.Sprintf("loading view events: %v", err), http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = make([]*viewlog.Event, 0)
	}

	apiJSON(w, events, http.StatusOK)
}
