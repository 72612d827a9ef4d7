package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ptrcarlson/adboard/internal/credit"
	"github.com/ptrcarlson/adboard/internal/enquiry"
	"github.com/ptrcarlson/adboard/internal/listing"
)

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printListingSummary prints a single listing in text format.
func printListingSummary(l *listing.Listing) {
	fmt.Printf("Listing %s\n", l.ID)
	fmt.Printf("  Title:    %s\n", l.Title)
	fmt.Printf("  Owner:    %s\n", l.OwnerID)
	fmt.Printf("  Type:     %s (%s)\n", l.PropertyType, l.ListingType)
	fmt.Printf("  Price:    $%s\n", formatPrice(l.Price))
	if l.Bedrooms > 0 || l.Bathrooms > 0 {
		fmt.Printf("  Bed/Bath: %d/%d\n", l.Bedrooms, l.Bathrooms)
	}
	fmt.Printf("  Area:     %.0f sqft\n", l.AreaSqft)
	if l.Address != "" {
		fmt.Printf("  Address:  %s\n", l.Address)
	}
	if l.City != "" || l.State != "" {
		fmt.Printf("  Location: %s, %s %s\n", l.City, l.State, l.PostalCode)
	}
	if len(l.Amenities) > 0 {
		fmt.Printf("  Amenities: %s\n", strings.Join(l.Amenities, ", "))
	}
	fmt.Printf("  Status:   %s%s\n", l.Status, featuredTag(l))
	fmt.Printf("  Views:    %d\n", l.ViewsCount)
}

func featuredTag(l *listing.Listing) string {
	if l.IsFeatured {
		return " (featured)"
	}
	return ""
}

// printListingTable prints listings as a formatted table.
func printListingTable(listings []*listing.Listing) error {
	if len(listings) == 0 {
		fmt.Println("No listings found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tTITLE\tTYPE\tPRICE\tCITY\tSTATUS\tVIEWS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t-----\t----\t-----\t----\t------\t-----"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, l := range listings {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t$%s\t%s\t%s\t%d\n",
			truncate(l.ID, 12), truncate(l.Title, 32), l.PropertyType,
			formatPrice(l.Price), truncate(l.City, 16),
			string(l.Status)+featuredTag(l), l.ViewsCount); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Printf("\nTotal: %d listings\n", len(listings))
	return nil
}

// printBalance prints a credit balance in text format.
func printBalance(b credit.Balance) {
	fmt.Printf("Credits for %s\n", b.OwnerID)
	fmt.Printf("  Listing:  %d\n", b.ListingCredits)
	fmt.Printf("  Boosting: %d\n", b.BoostingCredits)
}

// printRequestTable prints credit requests as a formatted table.
func printRequestTable(requests []*credit.Request) error {
	if len(requests) == 0 {
		fmt.Println("No credit requests.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tOWNER\tFIELD\tAMOUNT\tSTATUS\tREVIEWED BY"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}

	for _, r := range requests {
		reviewer := r.ReviewedBy
		if reviewer == "" {
			reviewer = "-"
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			truncate(r.ID, 12), r.OwnerID, r.Field, r.Amount, r.Status, reviewer); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	return w.Flush()
}

// printHistory prints ledger movements in text format.
func printHistory(history []*credit.Transaction) {
	if len(history) == 0 {
		fmt.Println("No credit movements.")
		return
	}

	for _, t := range history {
		sign := ""
		if t.Delta > 0 {
			sign = "+"
		}
		fmt.Printf("[%s] %s%d %s (now %d): %s\n",
			t.CreatedAt.Format("2006-01-02 15:04"), sign, t.Delta, t.Field, t.BalanceAfter, t.Reason)
	}
}

// printEnquiries prints enquiries in text format.
func printEnquiries(enquiries []*enquiry.Enquiry) {
	if len(enquiries) == 0 {
		fmt.Println("No enquiries.")
		return
	}

	for _, e := range enquiries {
		contact := e.Contact
		if contact == "" {
			contact = "no contact"
		}
		fmt.Printf("[%s] #%d %s (%s)\n  %s\n\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.ID, e.Name, contact, e.Message)
	}
}

// formatPrice formats a dollar amount as a string with commas.
func formatPrice(dollars int64) string {
	s := fmt.Sprintf("%d", dollars)

	// Add commas
	if len(s) <= 3 {
		return s
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	return strings.Join(parts, ",")
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
