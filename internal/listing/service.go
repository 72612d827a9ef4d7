package listing

import (
	"fmt"
	"log/slog"

	"github.com/ptrcarlson/adboard/internal/credit"
)

// Service orchestrates one owner's credit-gated listing actions. It holds
// cached copies of the owner's listings and credit balance, checks every
// precondition against the cache before issuing a remote call, runs the
// remote mutations of an action strictly in order, and reloads both caches
// from the authoritative stores after any successful action instead of
// patching local state.
//
// The cache is stale from the moment a mutation is issued until the next
// successful Refresh. Concurrent actions are not serialized here; the
// stores' own guarantees decide the outcome of overlapping writes.
type Service struct {
	store   Store
	ledger  credit.Ledger
	ownerID string

	records []*Listing
	balance credit.Balance
}

// NewService creates an orchestrator for ownerID. Call Refresh before
// reading Records or Balance.
func NewService(store Store, ledger credit.Ledger, ownerID string) *Service {
	return &Service{store: store, ledger: ledger, ownerID: ownerID}
}

// Refresh reloads the owner's listings and credit balance.
func (s *Service) Refresh() error {
	records, err := s.store.Query(QueryFilter{OwnerID: s.ownerID})
	if err != nil {
		return &ReloadError{Err: fmt.Errorf("querying listings: %w", err)}
	}

	balance, err := s.ledger.GetBalance(s.ownerID)
	if err != nil {
		return &ReloadError{Err: fmt.Errorf("loading credit balance: %w", err)}
	}

	s.records = records
	s.balance = balance
	return nil
}

// Records returns the cached listings, newest first.
func (s *Service) Records() []*Listing {
	return append([]*Listing(nil), s.records...)
}

// Balance returns the cached credit balance.
func (s *Service) Balance() credit.Balance {
	return s.balance
}

// Visible runs the view engine over the cached listings.
func (s *Service) Visible(q QueryState) []*Listing {
	return View(s.records, q)
}

// Draft is the caller-supplied part of a new listing. Identity, status,
// counters and timestamps are assigned by the orchestrator and the store.
type Draft struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	PropertyType string   `json:"property_type"`
	ListingType  string   `json:"listing_type"`
	Price        int64    `json:"price"`
	Bedrooms     int      `json:"bedrooms"`
	Bathrooms    int      `json:"bathrooms"`
	AreaSqft     float64  `json:"area_sqft"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	PostalCode   string   `json:"postal_code"`
	Amenities    []string `json:"amenities"`
	ImageURLs    []string `json:"image_urls"`
}

func (d Draft) validate() error {
	if d.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !ValidPropertyType(d.PropertyType) {
		return fmt.Errorf("invalid property type: %q", d.PropertyType)
	}
	if d.ListingType != ForSale && d.ListingType != ForRent {
		return fmt.Errorf("listing type must be %q or %q", ForSale, ForRent)
	}
	if d.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if d.Bedrooms < 0 || d.Bathrooms < 0 {
		return fmt.Errorf("bedrooms and bathrooms must not be negative")
	}
	if d.AreaSqft <= 0 {
		return fmt.Errorf("area must be positive")
	}
	return nil
}

// Create submits a new listing. It costs one listing credit, deducted at
// submission; the listing enters the pipeline as pending.
func (s *Service) Create(d Draft) (*Listing, error) {
	if err := d.validate(); err != nil {
		return nil, &PreconditionError{Reason: err.Error()}
	}
	if s.balance.ListingCredits <= 0 {
		return nil, &PreconditionError{Reason: "no listing credits left"}
	}

	l := &Listing{
		OwnerID:      s.ownerID,
		Title:        d.Title,
		Description:  d.Description,
		PropertyType: d.PropertyType,
		ListingType:  d.ListingType,
		Price:        d.Price,
		Bedrooms:     d.Bedrooms,
		Bathrooms:    d.Bathrooms,
		AreaSqft:     d.AreaSqft,
		Address:      d.Address,
		City:         d.City,
		State:        d.State,
		PostalCode:   d.PostalCode,
		Amenities:    d.Amenities,
		ImageURLs:    d.ImageURLs,
		Status:       StatusPending,
	}

	saved, err := s.store.Insert(l)
	if err != nil {
		return nil, &MutationError{Op: "inserting listing", Err: err}
	}

	if err := s.ledger.Decrement(s.ownerID, credit.FieldListing, 1); err != nil {
		return nil, s.compensateInsert(saved.ID, "deducting listing credit", err)
	}

	if err := s.Refresh(); err != nil {
		return saved, err
	}
	return saved, nil
}

// Duplicate inserts a copy of the listing with id. The copy's title is
// suffixed "(Copy)"; its status, featured flag and view counter are
// reset. Costs one listing credit.
func (s *Service) Duplicate(id string) (*Listing, error) {
	if s.balance.ListingCredits <= 0 {
		return nil, &PreconditionError{Reason: "no listing credits left"}
	}

	src, err := s.store.GetByID(id)
	if err != nil {
		return nil, &MutationError{Op: "loading source listing", Err: err}
	}

	saved, err := s.store.Insert(duplicateOf(src))
	if err != nil {
		return nil, &MutationError{Op: "inserting duplicate", Err: err}
	}

	if err := s.ledger.Decrement(s.ownerID, credit.FieldListing, 1); err != nil {
		return nil, s.compensateInsert(saved.ID, "deducting listing credit", err)
	}

	if err := s.Refresh(); err != nil {
		return saved, err
	}
	return saved, nil
}

// Feature marks an active listing as featured. Costs one boosting credit.
func (s *Service) Feature(id string) error {
	if s.balance.BoostingCredits <= 0 {
		return &PreconditionError{Reason: "no boosting credits left"}
	}

	l, err := s.store.GetByID(id)
	if err != nil {
		return &MutationError{Op: "loading listing", Err: err}
	}
	if l.Status != StatusActive {
		return &PreconditionError{Reason: fmt.Sprintf("only active listings can be featured (status is %q)", l.Status)}
	}
	if l.IsFeatured {
		return &PreconditionError{Reason: "listing is already featured"}
	}

	if err := s.store.Update(id, featuredPatch(true)); err != nil {
		return &MutationError{Op: "featuring listing", Err: err}
	}

	if err := s.ledger.Decrement(s.ownerID, credit.FieldBoosting, 1); err != nil {
		merr := &MutationError{Op: "deducting boosting credit", Err: err}
		if cerr := s.store.Update(id, featuredPatch(false)); cerr != nil {
			slog.Warn("compensation failed, listing left featured without charge",
				"listing_id", id, "error", cerr)
		} else {
			merr.Compensated = true
		}
		return merr
	}

	return s.Refresh()
}

// ToggleStatus flips a listing between active and inactive. Any other
// status refuses the toggle.
func (s *Service) ToggleStatus(id string) (Status, error) {
	l, err := s.store.GetByID(id)
	if err != nil {
		return "", &MutationError{Op: "loading listing", Err: err}
	}

	var next Status
	switch l.Status {
	case StatusActive:
		next = StatusInactive
	case StatusInactive:
		next = StatusActive
	default:
		return "", &PreconditionError{Reason: fmt.Sprintf("cannot toggle a %q listing", l.Status)}
	}

	if err := s.store.Update(id, statusPatch(next)); err != nil {
		return "", &MutationError{Op: "updating status", Err: err}
	}

	if err := s.Refresh(); err != nil {
		return next, err
	}
	return next, nil
}

// Delete removes a single listing.
func (s *Service) Delete(id string) error {
	if err := s.store.Delete(id); err != nil {
		return &MutationError{Op: "deleting listing", Err: err}
	}
	return s.Refresh()
}

// BatchSetStatus sets every selected listing to st, which must be
// active or inactive.
func (s *Service) BatchSetStatus(ids []string, st Status) error {
	if len(ids) == 0 {
		return &PreconditionError{Reason: "empty selection"}
	}
	if st != StatusActive && st != StatusInactive {
		return &PreconditionError{Reason: fmt.Sprintf("batch status must be active or inactive, got %q", st)}
	}

	if err := s.store.UpdateMany(ids, statusPatch(st)); err != nil {
		return &MutationError{Op: "updating statuses", Err: err}
	}
	return s.Refresh()
}

// BatchFeature features every selected listing. Costs one boosting
// credit per id; refused outright if the cached balance cannot cover
// the whole selection.
func (s *Service) BatchFeature(ids []string) error {
	if len(ids) == 0 {
		return &PreconditionError{Reason: "empty selection"}
	}
	if s.balance.BoostingCredits < len(ids) {
		return &PreconditionError{Reason: fmt.Sprintf(
			"need %d boosting credits, have %d", len(ids), s.balance.BoostingCredits)}
	}

	// Remember which listings the batch actually flips, so a failed
	// credit deduction does not unfeature listings that were featured
	// before this action.
	flipped := s.notYetFeatured(ids)

	if err := s.store.UpdateMany(ids, featuredPatch(true)); err != nil {
		return &MutationError{Op: "featuring listings", Err: err}
	}

	if err := s.ledger.Decrement(s.ownerID, credit.FieldBoosting, len(ids)); err != nil {
		merr := &MutationError{Op: "deducting boosting credits", Err: err}
		if len(flipped) > 0 {
			if cerr := s.store.UpdateMany(flipped, featuredPatch(false)); cerr != nil {
				slog.Warn("compensation failed, listings left featured without charge",
					"listing_ids", flipped, "error", cerr)
			} else {
				merr.Compensated = true
			}
		}
		return merr
	}

	return s.Refresh()
}

// BatchDelete removes every selected listing. Confirmation is the
// caller's responsibility.
func (s *Service) BatchDelete(ids []string) error {
	if len(ids) == 0 {
		return &PreconditionError{Reason: "empty selection"}
	}

	if err := s.store.DeleteMany(ids); err != nil {
		return &MutationError{Op: "deleting listings", Err: err}
	}
	return s.Refresh()
}

// notYetFeatured returns the subset of ids whose cached listing is not
// currently featured.
func (s *Service) notYetFeatured(ids []string) []string {
	featured := make(map[string]bool, len(s.records))
	for _, l := range s.records {
		featured[l.ID] = l.IsFeatured
	}

	var out []string
	for _, id := range ids {
		if !featured[id] {
			out = append(out, id)
		}
	}
	return out
}

// compensateInsert undoes a fresh insert after a failed credit
// deduction and wraps the original failure.
func (s *Service) compensateInsert(id, op string, err error) error {
	merr := &MutationError{Op: op, Err: err}
	if cerr := s.store.Delete(id); cerr != nil {
		slog.Warn("compensation failed, listing inserted without charge",
			"listing_id", id, "error", cerr)
	} else {
		merr.Compensated = true
	}
	return merr
}
