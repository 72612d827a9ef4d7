package enquiry

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ptrcarlson/adboard/internal/db"
)

func testRepo(t *testing.T) (*Repository, *sql.DB) {
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
	return NewRepository(database), database
}

// seedListing inserts a minimal listing row so enquiry foreign keys hold.
func seedListing(t *testing.T, database *sql.DB, id string) {
	t.Helper()
	_, err := database.Exec(
		`INSERT INTO listings (id, owner_id, title, property_type, listing_type, area_sqft)
		 VALUES (?, 'owner-1', 'Test Listing', 'house', 'sale', 1000)`,
		id,
	)
	if err != nil {
		t.Fatalf("seeding listing: %v", err)
	}
}

func TestAddAndList(t *testing.T) {
	repo, database := testRepo(t)
	seedListing(t, database, "listing-1")

	first, err := repo.Add("listing-1", "Alice", "alice@example.com", "Is it still available?")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if first.ID == 0 {
		t.Error("expected assigned id")
	}
	if first.CreatedAt.IsZero() {
		t.Error("expected assigned timestamp")
	}

	second, err := repo.Add("listing-1", "Bob", "", "Can I visit this weekend?")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	enquiries, err := repo.ListByListingID("listing-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(enquiries) != 2 {
		t.Fatalf("got %d enquiries, want 2", len(enquiries))
	}
	// Newest first.
	if enquiries[0].ID != second.ID || enquiries[1].ID != first.ID {
		t.Errorf("order = [%d %d], want [%d %d]",
			enquiries[0].ID, enquiries[1].ID, second.ID, first.ID)
	}
	if enquiries[1].Contact != "alice@example.com" {
		t.Errorf("contact = %q", enquiries[1].Contact)
	}
}

func TestAddValidation(t *testing.T) {
	repo, database := testRepo(t)
	seedListing(t, database, "listing-1")

	if _, err := repo.Add("listing-1", "", "c", "message"); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := repo.Add("listing-1", "Alice", "c", ""); err == nil {
		t.Error("expected error for empty message")
	}
}

func TestAddUnknownListing(t *testing.T) {
	repo, _ := testRepo(t)

	if _, err := repo.Add("nonexistent", "Alice", "", "hello"); err == nil {
		t.Error("expected foreign key failure for unknown listing")
	}
}

func TestListEmpty(t *testing.T) {
	repo, database := testRepo(t)
	seedListing(t, database, "listing-1")

	enquiries, err := repo.ListByListingID("listing-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(enquiries) != 0 {
		t.Errorf("got %d enquiries, want 0", len(enquiries))
	}
}

func TestDelete(t *testing.T) {
	repo, database := testRepo(t)
	seedListing(t, database, "listing-1")

	e, err := repo.Add("listing-1", "Alice", "", "hello")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := repo.Delete(e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	enquiries, err := repo.ListByListingID("listing-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(enquiries) != 0 {
		t.Error("enquiry still listed after delete")
	}

	if err := repo.Delete(e.ID); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("second delete: err = %v, want not found", err)
	}
}
