package listing

// QueryFilter narrows a Store query. Zero values mean "no constraint".
type QueryFilter struct {
	OwnerID string
	Status  Status
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Price       *int64  `json:"price,omitempty"`
	Status      *Status `json:"status,omitempty"`
	IsFeatured  *bool   `json:"is_featured,omitempty"`
}

// Store is the record store contract the orchestrator runs against.
// The canonical implementations are the SQLite Repository, the Postgres
// store and the HTTP client; tests use an in-memory fake.
//
// Query results are ordered by creation time descending. Insert assigns
// the id and timestamps; the caller never fabricates them.
type Store interface {
	Query(f QueryFilter) ([]*Listing, error)
	GetByID(id string) (*Listing, error)
	Insert(l *Listing) (*Listing, error)
	Update(id string, p Patch) error
	UpdateMany(ids []string, p Patch) error
	Delete(id string) error
	DeleteMany(ids []string) error
	IncrementViews(id string) error
}

// helpers for building patches without pointer boilerplate at call sites

func statusPatch(s Status) Patch { return Patch{Status: &s} }

func featuredPatch(v bool) Patch { return Patch{IsFeatured: &v} }
