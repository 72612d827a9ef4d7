package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ptrcarlson/adboard/internal/listing"
)

// handleStore routes /api/store/listings requests: the raw record-store
// surface the remote client's Store implementation runs against. Unlike
// /api/listings these handlers bypass the orchestrator and the view
// logger; credit gating stays with the caller's orchestrator.
func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/store/listings")
	path = strings.TrimPrefix(path, "/")

	// /api/store/listings: query or insert
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			s.storeQuery(w, r)
		case http.MethodPost:
			s.storeInsert(w, r)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// /api/store/listings/update
	if path == "update" {
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.storeUpdateMany(w, r)
		return
	}

	// /api/store/listings/delete
	if path == "delete" {
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.storeDeleteMany(w, r)
		return
	}

	// /api/store/listings/{id}/views
	if strings.HasSuffix(path, "/views") {
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.storeIncrementViews(w, strings.TrimSuffix(path, "/views"))
		return
	}

	// /api/store/listings/{id}: get, patch or delete
	switch r.Method {
	case http.MethodGet:
		s.storeGet(w, path)
	case http.MethodPatch:
		s.storeUpdate(w, r, path)
	case http.MethodDelete:
		s.storeDelete(w, path)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// storeQuery returns raw records, newest first, without the view engine.
func (s *Server) storeQuery(w http.ResponseWriter, r *http.Request) {
	records, err := s.listings.Query(listing.QueryFilter{
		OwnerID: r.URL.Query().Get("owner_id"),
		Status:  listing.Status(r.URL.Query().Get("status")),
	})
	if err != nil {
		actionError(w, err)
		return
	}
	if records == nil {
		records = make([]*listing.Listing, 0)
	}

	apiJSON(w, records, http.StatusOK)
}

// storeInsert stores a record as given, assigning id and timestamps.
func (s *Server) storeInsert(w http.ResponseWriter, r *http.Request) {
	var l listing.Listing
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if l.OwnerID == "" {
		apiError(w, "owner_id is required", http.StatusBadRequest)
		return
	}

	saved, err := s.listings.Insert(&l)
	if err != nil {
		actionError(w, err)
		return
	}

	apiJSON(w, saved, http.StatusCreated)
}

// storeGet returns one record without counting a view.
func (s *Server) storeGet(w http.ResponseWriter, id string) {
	l, err := s.listings.GetByID(id)
	if err != nil {
		apiError(w, "listing not found", http.StatusNotFound)
		return
	}
	apiJSON(w, l, http.StatusOK)
}

// storeUpdate applies a partial update to one record.
func (s *Server) storeUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var p listing.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if err := s.listings.Update(id, p); err != nil {
		actionError(w, err)
		return
	}

	apiJSON(w, map[string]interface{}{"id": id, "updated": true}, http.StatusOK)
}

// storeUpdateMany applies a partial update to every selected record.
func (s *Server) storeUpdateMany(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs   []string      `json:"ids"`
		Patch listing.Patch `json:"patch"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		apiError(w, "ids is required", http.StatusBadRequest)
		return
	}

	if err := s.listings.UpdateMany(req.IDs, req.Patch); err != nil {
		actionError(w, err)
		return
	}

	apiJSON(w, map[string]interface{}{"count": len(req.IDs), "updated": true}, http.StatusOK)
}

// storeDelete removes one record.
func (s *Server) storeDelete(w http.ResponseWriter, id string) {
	if err := s.listings.Delete(id); err != nil {
		actionError(w, err)
		return
	}
	apiJSON(w, map[string]interface{}{"id": id, "removed": true}, http.StatusOK)
}

// storeDeleteMany removes every selected record.
func (s *Server) storeDeleteMany(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		apiError(w, "ids is required", http.StatusBadRequest)
		return
	}

	if err := s.listings.DeleteMany(req.IDs); err != nil {
		actionError(w, err)
		return
	}

	apiJSON(w, map[string]interface{}{"count": len(req.IDs), "removed": true}, http.StatusOK)
}

// storeIncrementViews bumps a record's view counter.
func (s *Server) storeIncrementViews(w http.ResponseWriter, id string) {
	if err := s.listings.IncrementViews(id); err != nil {
		actionError(w, err)
		return
	}
	apiJSON(w, map[string]interface{}{"id": id, "updated": true}, http.StatusOK)
}
