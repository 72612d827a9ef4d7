package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ptrcarlson/adboard/internal/credit"
)

// handleCredits routes /api/credits requests.
func (s *Server) handleCredits(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/credits")
	path = strings.TrimPrefix(path, "/")

	// /api/credits: balance lookup
	if path == "" {
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiGetBalance(w, r)
		return
	}

	// /api/credits/grants
	if path == "grants" {
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiGrant(w, r)
		return
	}

	// /api/credits/decrement
	if path == "decrement" {
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiDecrement(w, r)
		return
	}

	// /api/credits/history
	if path == "history" {
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiHistory(w, r)
		return
	}

	// /api/credits/requests: submit or list
	if path == "requests" {
		switch r.Method {
		case http.MethodGet:
			s.apiListRequests(w, r)
		case http.MethodPost:
			s.apiSubmitRequest(w, r)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// /api/credits/requests/{id}/approve
	if strings.HasPrefix(path, "requests/") && strings.HasSuffix(path, "/approve") {
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id := strings.TrimSuffix(strings.TrimPrefix(path, "requests/"), "/approve")
		s.apiReviewRequest(w, r, id, true)
		return
	}

	// /api/credits/requests/{id}/reject
	if strings.HasPrefix(path, "requests/") && strings.HasSuffix(path, "/reject") {
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id := strings.TrimSuffix(strings.TrimPrefix(path, "requests/"), "/reject")
		s.apiReviewRequest(w, r, id, false)
		return
	}

	// /api/credits/requests/{id}
	if strings.HasPrefix(path, "requests/") {
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiGetRequest(w, strings.TrimPrefix(path, "requests/"))
		return
	}

	apiError(w, "not found", http.StatusNotFound)
}

// apiGetBalance returns an owner's credit balance.
func (s *Server) apiGetBalance(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		apiError(w, "owner_id is required", http.StatusBadRequest)
		return
	}

	b, err := s.credits.GetBalance(ownerID)
	if err != nil {
		apiError(w, fmt.Sprintf("loading balance: %v", err), http.StatusInternalServerError)
		return
	}

	apiJSON(w, b, http.StatusOK)
}

// apiGrant adds credits to an owner's balance.
func (s *Server) apiGrant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerID string `json:"owner_id"`
		Field   string `json:"field"`
		Amount  int    `json:"amount"`
		Reason  string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.OwnerID == "" {
		apiError(w, "owner_id is required", http.StatusBadRequest)
		return
	}
	if !credit.ValidField(req.Field) {
		apiError(w, "field must be listing_credits or boosting_credits", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		apiError(w, "amount must be positive", http.StatusBadRequest)
		return
	}

	if err := s.credits.Grant(req.OwnerID, credit.Field(req.Field), req.Amount, req.Reason); err != nil {
		apiError(w, fmt.Sprintf("granting credits: %v", err), http.StatusInternalServerError)
		return
	}

	b, err := s.credits.GetBalance(req.OwnerID)
	if err != nil {
		apiError(w, fmt.Sprintf("loading balance: %v", err), http.StatusInternalServerError)
		return
	}

	apiJSON(w, b, http.StatusOK)
}

// apiDecrement consumes credits from an owner's balance. This is the
// ledger surface the remote client's Decrement runs against.
func (s *Server) apiDecrement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerID string `json:"owner_id"`
		Field   string `json:"field"`
		Amount  int    `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.OwnerID == "" {
		apiError(w, "owner_id is required", http.StatusBadRequest)
		return
	}
	if !credit.ValidField(req.Field) {
		apiError(w, "field must be listing_credits or boosting_credits", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		apiError(w, "amount must be positive", http.StatusBadRequest)
		return
	}

	if err := s.credits.Decrement(req.OwnerID, credit.Field(req.Field), req.Amount); err != nil {
		if errors.Is(err, credit.ErrInsufficient) {
			apiError(w, err.Error(), http.StatusConflict)
			return
		}
		apiError(w, fmt.Sprintf("decrementing credits: %v", err), http.StatusInternalServerError)
		return
	}

	b, err := s.credits.GetBalance(req.OwnerID)
	if err != nil {
		apiError(w, fmt.Sprintf("loading balance: %v", err), http.StatusInternalServerError)
		return
	}

	apiJSON(w, b, http.StatusOK)
}

// apiSubmitRequest records an owner's ask for more credits.
func (s *Server) apiSubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerID string `json:"owner_id"`
		Field   string `json:"field"`
		Amount  int    `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.OwnerID == "" {
		apiError(w, "owner_id is required", http.StatusBadRequest)
		return
	}
	if !credit.ValidField(req.Field) {
		apiError(w, "field must be listing_credits or boosting_credits", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		apiError(w, "amount must be positive", http.StatusBadRequest)
		return
	}

	created, err := s.credits.Request(req.OwnerID, credit.Field(req.Field), req.Amount)
	if err != nil {
		apiError(w, fmt.Sprintf("submitting request: %v", err), http.StatusInternalServerError)
		return
	}

	apiJSON(w, created, http.StatusCreated)
}

// apiListRequests returns credit requests, optionally filtered by status.
func (s *Server) apiListRequests(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && status != string(credit.RequestPending) &&
		status != string(credit.RequestApproved) && status != string(credit.RequestRejected) {
		apiError(w, "status must be pending, approved or rejected", http.StatusBadRequest)
		return
	}

	requests, err := s.credits.ListRequests(credit.RequestStatus(status))
	if err != nil {
		apiError(w, fmt.Sprintf("listing requests: %v", err), http.StatusInternalServerError)
		return
	}
	if requests == nil {
		requests = make([]*credit.Request, 0)
	}

	apiJSON(w, requests, http.StatusOK)
}

// apiGetRequest returns one credit request.
func (s *Server) apiGetRequest(w http.ResponseWriter, id string) {
	req, err := s.credits.GetRequest(id)
	if err != nil {
		apiError(w, "credit request not found", http.StatusNotFound)
		return
	}
	apiJSON(w, req, http.StatusOK)
}

// apiReviewRequest approves or rejects a pending credit request.
func (s *Server) apiReviewRequest(w http.ResponseWriter, r *http.Request, id string, approve bool) {
	var req struct {
		ReviewedBy string `json:"reviewed_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.ReviewedBy == "" {
		apiError(w, "reviewed_by is required", http.StatusBadRequest)
		return
	}

	var (
		reviewed *credit.Request
		err      error
	)
	if approve {
		reviewed, err = s.credits.Approve(id, req.ReviewedBy)
	} else {
		reviewed, err = s.credits.Reject(id, req.ReviewedBy)
	}
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			apiError(w, err.Error(), http.StatusNotFound)
			return
		}
		if strings.Contains(err.Error(), "already") {
			apiError(w, err.Error(), http.StatusConflict)
			return
		}
		apiError(w, fmt.Sprintf("reviewing request: %v", err), http.StatusInternalServerError)
		return
	}

	apiJSON(w, reviewed, http.StatusOK)
}

// apiHistory returns an owner's ledger movements.
func (s *Server) apiHistory(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		apiError(w, "owner_id is required", http.StatusBadRequest)
		return
	}

	history, err := s.credits.History(ownerID)
	if err != nil {
		apiError(w, fmt.Sprintf("loading history: %v", err), http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = make([]*credit.Transaction, 0)
	}

	apiJSON(w, history, http.StatusOK)
}
