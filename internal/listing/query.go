package listing

import (
	"sort"
	"strings"
)

// SortKey selects the ordering applied by View.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortOldest    SortKey = "oldest"
	SortPriceHigh SortKey = "price_high"
	SortPriceLow  SortKey = "price_low"
	SortViews     SortKey = "views"
)

// StatusAll is the status filter sentinel meaning "no status filter".
const StatusAll = "all"

// QueryState is the ephemeral client-side query: free text, a status
// filter and a sort key. It is never persisted.
type QueryState struct {
	Text   string  `json:"text"`
	Status string  `json:"status"`
	Sort   SortKey `json:"sort"`
}

// View applies the text filter, status filter and sort from q to records
// and returns the visible subset. It is pure: the input slice and the
// listings it points to are never modified, and equal-key elements keep
// their input order (the sort is stable).
func View(records []*Listing, q QueryState) []*Listing {
	out := make([]*Listing, 0, len(records))

	term := strings.ToLower(strings.TrimSpace(q.Text))
	for _, l := range records {
		if term != "" && !matchesText(l, term) {
			continue
		}
		if q.Status != "" && q.Status != StatusAll && string(l.Status) != q.Status {
			continue
		}
		out = append(out, l)
	}

	less := lessFunc(q.Sort)
	if less != nil {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}

	return out
}

// matchesText reports whether term appears in any of the searchable
// fields. Matching is a plain case-insensitive substring test.
func matchesText(l *Listing, term string) bool {
	for _, field := range []string{l.Title, l.City, l.State, l.PropertyType, l.Address} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// lessFunc returns the comparison for key, or nil for an unrecognized
// key (identity pass, input order is preserved).
func lessFunc(key SortKey) func(a, b *Listing) bool {
	switch key {
	case SortNewest:
		return func(a, b *Listing) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortOldest:
		return func(a, b *Listing) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortPriceHigh:
		return func(a, b *Listing) bool { return a.Price > b.Price }
	case SortPriceLow:
		return func(a, b *Listing) bool { return a.Price < b.Price }
	case SortViews:
		return func(a, b *Listing) bool { return a.ViewsCount > b.ViewsCount }
	}
	return nil
}
