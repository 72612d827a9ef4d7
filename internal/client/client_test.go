package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ptrcarlson/adboard/internal/credit"
	"github.com/ptrcarlson/adboard/internal/enquiry"
	"github.com/ptrcarlson/adboard/internal/listing"
)

func TestListListings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/listings" {
			t.Errorf("path = %q, want /api/listings", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode([]*listing.Listing{{ID: "l1", Title: "Villa"}}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	listings, err := c.ListListings(ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("got %d listings, want 1", len(listings))
	}
	if listings[0].Title != "Villa" {
		t.Errorf("title = %q", listings[0].Title)
	}
}

func TestListListingsQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("owner_id") != "owner-1" {
			t.Errorf("owner_id = %q", q.Get("owner_id"))
		}
		if q.Get("q") != "lake" {
			t.Errorf("q = %q", q.Get("q"))
		}
		if q.Get("status") != "active" {
			t.Errorf("status = %q", q.Get("status"))
		}
		if q.Get("sort") != "price_low" {
			t.Errorf("sort = %q", q.Get("sort"))
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode([]*listing.Listing{}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.ListListings(ListOptions{
		OwnerID: "owner-1", Query: "lake", Status: "active", Sort: "price_low",
	}); err != nil {
		t.Fatalf("list: %v", err)
	}
}

func TestGetListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/listings/l42" {
			t.Errorf("path = %q", r.URL.Path)
		}
		resp := ShowResponse{
			Listing:   &listing.Listing{ID: "l42", Title: "Lakeside Villa"},
			Enquiries: []*enquiry.Enquiry{{ID: 1, Name: "Alice"}},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.GetListing("l42")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.Listing.ID != "l42" {
		t.Errorf("id = %q", resp.Listing.ID)
	}
	if len(resp.Enquiries) != 1 {
		t.Errorf("enquiries = %d", len(resp.Enquiries))
	}
}

func TestCreateListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("method = %s", r.Method)
		}
		var req struct {
			OwnerID string `json:"owner_id"`
			Title   string `json:"title"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.OwnerID != "owner-1" {
			t.Errorf("owner_id = %q", req.OwnerID)
		}
		if req.Title != "New Apartment" {
			t.Errorf("title = %q", req.Title)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(&listing.Listing{ID: "l1", Title: req.Title, Status: listing.StatusPending}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	l, err := c.CreateListing("owner-1", listing.Draft{Title: "New Apartment"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if l.Status != listing.StatusPending {
		t.Errorf("status = %q", l.Status)
	}
}

func TestToggleListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/listings/l1/toggle" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"id": "l1", "status": "inactive"}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	next, err := c.ToggleListing("l1")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if next != listing.StatusInactive {
		t.Errorf("status = %q, want inactive", next)
	}
}

func TestDeleteListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "DELETE" {
			t.Errorf("method = %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]interface{}{"removed": true}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.DeleteListing("l1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/listings/batch" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req struct {
			Action  string   `json:"action"`
			IDs     []string `json:"ids"`
			Confirm bool     `json:"confirm"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Action != "delete" || !req.Confirm || len(req.IDs) != 2 {
			t.Errorf("req = %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]interface{}{"count": 2}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.Batch("owner-1", "delete", []string{"a", "b"}, true); err != nil {
		t.Fatalf("batch: %v", err)
	}
}

func TestGetBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("owner_id") != "owner-1" {
			t.Errorf("owner_id = %q", r.URL.Query().Get("owner_id"))
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(credit.Balance{OwnerID: "owner-1", ListingCredits: 4}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	b, err := c.GetBalance("owner-1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if b.ListingCredits != 4 {
		t.Errorf("listing credits = %d", b.ListingCredits)
	}
}

func TestRequestAndApprove(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/credits/requests":
			w.WriteHeader(http.StatusCreated)
			if err := json.NewEncoder(w).Encode(&credit.Request{ID: "r1", Status: credit.RequestPending}); err != nil {
				t.Fatalf("encode: %v", err)
			}
		case "/api/credits/requests/r1/approve":
			var req struct {
				ReviewedBy string `json:"reviewed_by"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if req.ReviewedBy != "admin-1" {
				t.Errorf("reviewed_by = %q", req.ReviewedBy)
			}
			if err := json.NewEncoder(w).Encode(&credit.Request{ID: "r1", Status: credit.RequestApproved}); err != nil {
				t.Fatalf("encode: %v", err)
			}
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	req, err := c.RequestCredits("owner-1", credit.FieldListing, 5)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if req.Status != credit.RequestPending {
		t.Errorf("status = %q", req.Status)
	}

	approved, err := c.ApproveRequest("r1", "admin-1")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != credit.RequestApproved {
		t.Errorf("status = %q", approved.Status)
	}
}

func TestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		if err := json.NewEncoder(w).Encode(map[string]string{"error": "no listing credits left"}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.CreateListing("owner-1", listing.Draft{Title: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "no listing credits left" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.ListListings(ListOptions{}); err == nil {
		t.Fatal("expected error")
	}
}
