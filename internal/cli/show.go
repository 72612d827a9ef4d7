package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show listing details",
		Long:  "Show full details for a listing, including its enquiries. Goes through the API so the view is counted.",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	c := newAPIClient()

	resp, err := c.GetListing(args[0])
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(resp)
	}

	printListingSummary(resp.Listing)
	fmt.Println()
	if len(resp.Enquiries) > 0 {
		fmt.Printf("Enquiries (%d):\n", len(resp.Enquiries))
		printEnquiries(resp.Enquiries)
	} else {
		fmt.Println("No enquiries.")
	}

	return nil
}
