package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEnquiriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enquiries <listing-id>",
		Short: "List enquiries on a listing",
		Args:  cobra.ExactArgs(1),
		RunE:  runEnquiries,
	}
}

func runEnquiries(cmd *cobra.Command, args []string) error {
	c := newAPIClient()

	enquiries, err := c.ListEnquiries(args[0])
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(enquiries)
	}

	printEnquiries(enquiries)
	return nil
}

func newEnquireCmd() *cobra.Command {
	var name, contact, message string

	cmd := &cobra.Command{
		Use:   "enquire <listing-id>",
		Short: "Record an enquiry on a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnquire(args[0], name, contact, message)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "enquirer name (required)")
	cmd.Flags().StringVar(&contact, "contact", "", "phone or email")
	cmd.Flags().StringVar(&message, "message", "", "enquiry message (required)")

	for _, f := range []string{"name", "message"} {
		if err := cmd.MarkFlagRequired(f); err != nil {
			panic(err)
		}
	}

	return cmd
}

func runEnquire(listingID, name, contact, message string) error {
	c := newAPIClient()

	e, err := c.AddEnquiry(listingID, name, contact, message)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(e)
	}

	fmt.Printf("Enquiry #%d recorded.\n", e.ID)
	return nil
}
