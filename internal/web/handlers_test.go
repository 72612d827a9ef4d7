package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ptrcarlson/adboard/internal/credit"
	"github.com/ptrcarlson/adboard/internal/db"
	"github.com/ptrcarlson/adboard/internal/enquiry"
	"github.com/ptrcarlson/adboard/internal/listing"
	"github.com/ptrcarlson/adboard/internal/viewlog"
)

type testEnv struct {
	server   *Server
	listings *listing.Repository
	credits  *credit.Repository
}

func testServer(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() {
		if err := database.Close(); err != nil {
			t.Errorf("closing test database: %v", err)
		}
	})

	listings := listing.NewRepository(database)
	credits := credit.NewRepository(database)
	server := NewServer(listings, credits, enquiry.NewRepository(database), viewlog.NewRepository(database))

	return &testEnv{server: server, listings: listings, credits: credits}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func (e *testEnv) grant(t *testing.T, owner string, field credit.Field, amount int) {
	t.Helper()
	if err := e.credits.Grant(owner, field, amount, "test seed"); err != nil {
		t.Fatalf("granting credits: %v", err)
	}
}

func (e *testEnv) createListing(t *testing.T, owner, title string, status listing.Status) *listing.Listing {
	t.Helper()
	saved, err := e.listings.Insert(&listing.Listing{
		OwnerID:      owner,
		Title:        title,
		PropertyType: listing.TypeHouse,
		ListingType:  listing.ForSale,
		Price:        100000,
		AreaSqft:     1200,
		City:         "Austin",
		State:        "TX",
		Status:       status,
	})
	if err != nil {
		t.Fatalf("seeding listing: %v", err)
	}
	return saved
}

func TestHealth(t *testing.T) {
	env := testServer(t)

	rec := env.do(t, "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestCreateListingEndpoint(t *testing.T) {
	env := testServer(t)
	env.grant(t, "owner-1", credit.FieldListing, 2)

	rec := env.do(t, "POST", "/api/listings", map[string]interface{}{
		"owner_id":      "owner-1",
		"title":         "New Apartment",
		"property_type": "apartment",
		"listing_type":  "rent",
		"price":         1500,
		"area_sqft":     800,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var created listing.Listing
	decode(t, rec, &created)
	if created.Status != listing.StatusPending {
		t.Errorf("status = %q, want pending", created.Status)
	}

	// One credit spent.
	b, err := env.credits.GetBalance("owner-1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if b.ListingCredits != 1 {
		t.Errorf("listing credits = %d, want 1", b.ListingCredits)
	}
}

func TestCreateListingWithoutCredits(t *testing.T) {
	env := testServer(t)

	rec := env.do(t, "POST", "/api/listings", map[string]interface{}{
		"owner_id":      "owner-1",
		"title":         "New Apartment",
		"property_type": "apartment",
		"listing_type":  "rent",
		"area_sqft":     800,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateListingBadRequests(t *testing.T) {
	env := testServer(t)

	rec := env.do(t, "POST", "/api/listings", map[string]interface{}{
		"title": "no owner",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing owner: status = %d, want 400", rec.Code)
	}

	req := httptest.NewRequest("POST", "/api/listings", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	env.server.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad json: status = %d, want 400", rr.Code)
	}
}

func TestListListingsEndpoint(t *testing.T) {
	env := testServer(t)
	env.createListing(t, "owner-1", "Lakeside Villa", listing.StatusActive)
	env.createListing(t, "owner-1", "City Condo", listing.StatusPending)
	env.createListing(t, "owner-2", "Other House", listing.StatusActive)

	rec := env.do(t, "GET", "/api/listings?owner_id=owner-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var listings []*listing.Listing
	decode(t, rec, &listings)
	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(listings))
	}

	rec = env.do(t, "GET", "/api/listings?owner_id=owner-1&q=lake", nil)
	decode(t, rec, &listings)
	if len(listings) != 1 || listings[0].Title != "Lakeside Villa" {
		t.Errorf("text filter returned %d listings", len(listings))
	}

	rec = env.do(t, "GET", "/api/listings?status=active&sort=price_low", nil)
	decode(t, rec, &listings)
	if len(listings) != 2 {
		t.Errorf("status filter returned %d listings, want 2", len(listings))
	}

	rec = env.do(t, "GET", "/api/listings?q=nothing-matches", nil)
	if body := rec.Body.String(); body == "null\n" {
		t.Error("empty result should encode as [], not null")
	}
}

func TestGetListingRecordsView(t *testing.T) {
	env := testServer(t)
	l := env.createListing(t, "owner-1", "Lakeside Villa", listing.StatusActive)

	rec := env.do(t, "GET", "/api/listings/"+l.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Listing listing.Listing `json:"listing"`
	}
	decode(t, rec, &resp)
	if resp.Listing.ViewsCount != 1 {
		t.Errorf("views = %d, want 1 after detail view", resp.Listing.ViewsCount)
	}

	env.do(t, "GET", "/api/listings/"+l.ID, nil)
	got, err := env.listings.GetByID(l.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ViewsCount != 2 {
		t.Errorf("views = %d, want 2", got.ViewsCount)
	}
}

func TestGetListingNotFound(t *testing.T) {
	env := testServer(t)

	rec := env.do(t, "GET", "/api/listings/nonexistent", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDuplicateEndpoint(t *testing.T) {
	env := testServer(t)
	env.grant(t, "owner-1", credit.FieldListing, 1)
	l := env.createListing(t, "owner-1", "Lakeside Villa", listing.StatusActive)

	rec := env.do(t, "POST", "/api/listings/"+l.ID+"/duplicate", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var dup listing.Listing
	decode(t, rec, &dup)
	if dup.Title != "Lakeside Villa (Copy)" {
		t.Errorf("title = %q", dup.Title)
	}
	if dup.Status != listing.StatusPending {
		t.Errorf("status = %q, want pending", dup.Status)
	}

	// Second duplicate has no credits left.
	rec = env.do(t, "POST", "/api/listings/"+l.ID+"/duplicate", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestFeatureEndpoint(t *testing.T) {
	env := testServer(t)
	env.grant(t, "owner-1", credit.FieldBoosting, 1)
	l := env.createListing(t, "owner-1", "Lakeside Villa", listing.StatusActive)

	rec := env.do(t, "POST", "/api/listings/"+l.ID+"/feature", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	got, err := env.listings.GetByID(l.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.IsFeatured {
		t.Error("listing not featured")
	}
}

func TestFeaturePendingListing(t *testing.T) {
	env := testServer(t)
	env.grant(t, "owner-1", credit.FieldBoosting, 1)
	l := env.createListing(t, "owner-1", "Lakeside Villa", listing.StatusPending)

	rec := env.do(t, "POST", "/api/listings/"+l.ID+"/feature", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestToggleEndpoint(t *testing.T) {
	env := testServer(t)
	l := env.createListing(t, "owner-1", "Lakeside Villa", listing.StatusActive)

	rec := env.do(t, "POST", "/api/listings/"+l.ID+"/toggle", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status string `json:"status"`
	}
	decode(t, rec, &resp)
	if resp.Status != "inactive" {
		t.Errorf("status = %q, want inactive", resp.Status)
	}

	pending := env.createListing(t, "owner-1", "Pending One", listing.StatusPending)
	rec = env.do(t, "POST", "/api/listings/"+pending.ID+"/toggle", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("toggle pending: status = %d, want 409", rec.Code)
	}
}

func TestDeleteEndpoint(t *testing.T) {
	env := testServer(t)
	l := env.createListing(t, "owner-1", "Lakeside Villa", listing.StatusActive)

	rec := env.do(t, "DELETE", "/api/listings/"+l.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if _, err := env.listings.GetByID(l.ID); err == nil {
		t.Error("listing still retrievable")
	}

	rec = env.do(t, "DELETE", "/api/listings/"+l.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want 404", rec.Code)
	}
}

func TestBatchEndpoint(t *testing.T) {
	env := testServer(t)
	a := env.createListing(t, "owner-1", "A", listing.StatusActive)
	b := env.createListing(t, "owner-1", "B", listing.StatusActive)

	rec := env.do(t, "POST", "/api/listings/batch", map[string]interface{}{
		"owner_id": "owner-1",
		"action":   "deactivate",
		"ids":      []string{a.ID, b.ID},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	got, _ := env.listings.GetByID(a.ID)
	if got.Status != listing.StatusInactive {
		t.Errorf("status = %q, want inactive", got.Status)
	}
}

func TestBatchDeleteRequiresConfirm(t *testing.T) {
	env := testServer(t)
	a := env.createListing(t, "owner-1", "A", listing.StatusActive)

	rec := env.do(t, "POST", "/api/listings/batch", map[string]interface{}{
		"owner_id": "owner-1",
		"action":   "delete",
		"ids":      []string{a.ID},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unconfirmed delete: status = %d, want 400", rec.Code)
	}

	rec = env.do(t, "POST", "/api/listings/batch", map[string]interface{}{
		"owner_id": "owner-1",
		"action":   "delete",
		"ids":      []string{a.ID},
		"confirm":  true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("confirmed delete: status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if _, err := env.listings.GetByID(a.ID); err == nil {
		t.Error("listing still retrievable")
	}
}

func TestBatchFeatureInsufficient(t *testing.T) {
	env := testServer(t)
	env.grant(t, "owner-1", credit.FieldBoosting, 1)
	a := env.createListing(t, "owner-1", "A", listing.StatusActive)
	b := env.createListing(t, "owner-1", "B", listing.StatusActive)

	rec := env.do(t, "POST", "/api/listings/batch", map[string]interface{}{
		"owner_id": "owner-1",
		"action":   "feature",
		"ids":      []string{a.ID, b.ID},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}

	// Neither listing was touched.
	got, _ := env.listings.GetByID(a.ID)
	if got.IsFeatured {
		t.Error("listing featured despite refused batch")
	}
}

func TestBatchUnknownAction(t *testing.T) {
	env := testServer(t)

	rec := env.do(t, "POST", "/api/listings/batch", map[string]interface{}{
		"owner_id": "owner-1",
		"action":   "promote",
		"ids":      []string{"x"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestEnquiryEndpoints(t *testing.T) {
	env := testServer(t)
	l := env.createListing(t, "owner-1", "Lakeside Villa", listing.StatusActive)

	rec := env.do(t, "POST", "/api/listings/"+l.ID+"/enquiries", map[string]interface{}{
		"name":    "Alice",
		"contact": "alice@example.com",
		"message": "Is it available?",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, "GET", "/api/listings/"+l.ID+"/enquiries", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var enquiries []*enquiry.Enquiry
	decode(t, rec, &enquiries)
	if len(enquiries) != 1 || enquiries[0].Name != "Alice" {
		t.Errorf("got %d enquiries", len(enquiries))
	}

	rec = env.do(t, "POST", "/api/listings/"+l.ID+"/enquiries", map[string]interface{}{
		"name": "Bob",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing message: status = %d, want 400", rec.Code)
	}
}

func TestViewsEndpoint(t *testing.T) {
	env := testServer(t)
	l := env.createListing(t, "owner-1", "Lakeside Villa", listing.StatusActive)

	env.do(t, "GET", "/api/listings/"+l.ID, nil)
	env.do(t, "GET", "/api/listings/"+l.ID, nil)

	rec := env.do(t, "GET", "/api/listings/"+l.ID+"/views", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var events []*viewlog.Event
	decode(t, rec, &events)
	if len(events) != 2 {
		t.Errorf("got %d events, want 2", len(events))
	}
}

func TestCreditBalanceEndpoint(t *testing.T) {
	env := testServer(t)
	env.grant(t, "owner-1", credit.FieldListing, 7)

	rec := env.do(t, "GET", "/api/credits?owner_id=owner-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var b credit.Balance
	decode(t, rec, &b)
	if b.ListingCredits != 7 {
		t.Errorf("listing credits = %d, want 7", b.ListingCredits)
	}

	rec = env.do(t, "GET", "/api/credits", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing owner: status = %d, want 400", rec.Code)
	}
}

func TestGrantEndpoint(t *testing.T) {
	env := testServer(t)

	rec := env.do(t, "POST", "/api/credits/grants", map[string]interface{}{
		"owner_id": "owner-1",
		"field":    "boosting_credits",
		"amount":   3,
		"reason":   "promo",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var b credit.Balance
	decode(t, rec, &b)
	if b.BoostingCredits != 3 {
		t.Errorf("boosting credits = %d, want 3", b.BoostingCredits)
	}

	rec = env.do(t, "POST", "/api/credits/grants", map[string]interface{}{
		"owner_id": "owner-1",
		"field":    "karma",
		"amount":   3,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad field: status = %d, want 400", rec.Code)
	}
}

func TestCreditRequestWorkflow(t *testing.T) {
	env := testServer(t)

	rec := env.do(t, "POST", "/api/credits/requests", map[string]interface{}{
		"owner_id": "owner-1",
		"field":    "listing_credits",
		"amount":   5,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var req credit.Request
	decode(t, rec, &req)
	if req.Status != credit.RequestPending {
		t.Errorf("status = %q, want pending", req.Status)
	}

	rec = env.do(t, "GET", "/api/credits/requests?status=pending", nil)
	var pending []*credit.Request
	decode(t, rec, &pending)
	if len(pending) != 1 {
		t.Fatalf("got %d pending requests, want 1", len(pending))
	}

	rec = env.do(t, "POST", fmt.Sprintf("/api/credits/requests/%s/approve", req.ID), map[string]interface{}{
		"reviewed_by": "admin-1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	// Approval granted the credits.
	b, err := env.credits.GetBalance("owner-1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if b.ListingCredits != 5 {
		t.Errorf("listing credits = %d, want 5", b.ListingCredits)
	}

	// Second review conflicts.
	rec = env.do(t, "POST", fmt.Sprintf("/api/credits/requests/%s/reject", req.ID), map[string]interface{}{
		"reviewed_by": "admin-2",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("double review: status = %d, want 409", rec.Code)
	}
}

func TestCreditHistoryEndpoint(t *testing.T) {
	env := testServer(t)
	env.grant(t, "owner-1", credit.FieldListing, 5)

	rec := env.do(t, "GET", "/api/credits/history?owner_id=owner-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var history []*credit.Transaction
	decode(t, rec, &history)
	if len(history) != 1 || history[0].Delta != 5 {
		t.Errorf("history = %+v", history)
	}
}

func TestStoreEndpoints(t *testing.T) {
	env := testServer(t)

	rec := env.do(t, "POST", "/api/store/listings", &listing.Listing{
		OwnerID:      "owner-1",
		Title:        "Raw House",
		PropertyType: listing.TypeHouse,
		ListingType:  listing.ForSale,
		Price:        200000,
		AreaSqft:     900,
		Status:       listing.StatusActive,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("insert: status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var saved listing.Listing
	decode(t, rec, &saved)
	if saved.ID == "" {
		t.Fatal("expected assigned id")
	}

	// Raw get does not count a view.
	rec = env.do(t, "GET", "/api/store/listings/"+saved.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status = %d, want 200", rec.Code)
	}
	var got listing.Listing
	decode(t, rec, &got)
	if got.ViewsCount != 0 {
		t.Errorf("views = %d, want 0 after raw get", got.ViewsCount)
	}

	rec = env.do(t, "PATCH", "/api/store/listings/"+saved.ID, map[string]interface{}{
		"is_featured": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	stored, err := env.listings.GetByID(saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.IsFeatured {
		t.Error("patch did not apply")
	}
	if stored.Title != "Raw House" {
		t.Errorf("title = %q, patch touched an unset field", stored.Title)
	}

	rec = env.do(t, "GET", "/api/store/listings?owner_id=owner-1", nil)
	var records []*listing.Listing
	decode(t, rec, &records)
	if len(records) != 1 {
		t.Errorf("query returned %d records, want 1", len(records))
	}

	rec = env.do(t, "DELETE", "/api/store/listings/"+saved.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d, want 200", rec.Code)
	}
	rec = env.do(t, "GET", "/api/store/listings/"+saved.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", rec.Code)
	}
}

func TestStoreBatchEndpoints(t *testing.T) {
	env := testServer(t)
	a := env.createListing(t, "owner-1", "A", listing.StatusActive)
	b := env.createListing(t, "owner-1", "B", listing.StatusActive)

	rec := env.do(t, "POST", "/api/store/listings/update", map[string]interface{}{
		"ids":   []string{a.ID, b.ID},
		"patch": map[string]interface{}{"status": "inactive"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	got, _ := env.listings.GetByID(a.ID)
	if got.Status != listing.StatusInactive {
		t.Errorf("status = %q, want inactive", got.Status)
	}

	rec = env.do(t, "POST", "/api/store/listings/delete", map[string]interface{}{
		"ids": []string{a.ID, b.ID},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if _, err := env.listings.GetByID(a.ID); err == nil {
		t.Error("listing still retrievable")
	}

	rec = env.do(t, "POST", "/api/store/listings/update", map[string]interface{}{
		"ids": []string{},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty ids: status = %d, want 400", rec.Code)
	}
}

func TestDecrementEndpoint(t *testing.T) {
	env := testServer(t)
	env.grant(t, "owner-1", credit.FieldBoosting, 2)

	rec := env.do(t, "POST", "/api/credits/decrement", map[string]interface{}{
		"owner_id": "owner-1",
		"field":    "boosting_credits",
		"amount":   2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var b credit.Balance
	decode(t, rec, &b)
	if b.BoostingCredits != 0 {
		t.Errorf("boosting credits = %d, want 0", b.BoostingCredits)
	}

	rec = env.do(t, "POST", "/api/credits/decrement", map[string]interface{}{
		"owner_id": "owner-1",
		"field":    "boosting_credits",
		"amount":   1,
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("overdraw: status = %d, want 409", rec.Code)
	}

	rec = env.do(t, "POST", "/api/credits/decrement", map[string]interface{}{
		"owner_id": "owner-1",
		"field":    "karma",
		"amount":   1,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad field: status = %d, want 400", rec.Code)
	}
}

// flakyStore fails Query after a set number of calls, simulating a
// store that drops out mid-action.
type flakyStore struct {
	listing.Store
	calls     int
	failAfter int
}

func (f *flakyStore) Query(q listing.QueryFilter) ([]*listing.Listing, error) {
	f.calls++
	if f.calls > f.failAfter {
		return nil, fmt.Errorf("store offline")
	}
	return f.Store.Query(q)
}

func TestCreateListingSurvivesReloadFailure(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() {
		if err := database.Close(); err != nil {
			t.Errorf("closing test database: %v", err)
		}
	})

	listings := listing.NewRepository(database)
	credits := credit.NewRepository(database)
	flaky := &flakyStore{Store: listings, failAfter: 1}
	server := NewServer(flaky, credits, enquiry.NewRepository(database), viewlog.NewRepository(database))
	env := &testEnv{server: server, listings: listings, credits: credits}

	env.grant(t, "owner-1", credit.FieldListing, 1)

	// The first Query feeds the pre-action refresh; the post-action
	// reload then fails. The listing was created and the credit spent,
	// so the response is still a 201.
	rec := env.do(t, "POST", "/api/listings", map[string]interface{}{
		"owner_id":      "owner-1",
		"title":         "New Apartment",
		"property_type": "apartment",
		"listing_type":  "rent",
		"price":         1500,
		"area_sqft":     800,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 when only the reload failed: %s", rec.Code, rec.Body.String())
	}

	var created listing.Listing
	decode(t, rec, &created)
	if _, err := listings.GetByID(created.ID); err != nil {
		t.Errorf("created listing not stored: %v", err)
	}
	b, err := credits.GetBalance("owner-1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if b.ListingCredits != 0 {
		t.Errorf("listing credits = %d, want 0", b.ListingCredits)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := testServer(t)

	tests := []struct {
		method, path string
	}{
		{"PUT", "/api/listings"},
		{"DELETE", "/api/credits"},
		{"GET", "/api/listings/batch"},
		{"DELETE", "/api/credits/requests"},
	}

	for _, tt := range tests {
		rec := env.do(t, tt.method, tt.path, nil)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: status = %d, want 405", tt.method, tt.path, rec.Code)
		}
	}
}
