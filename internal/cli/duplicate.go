package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDuplicateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Duplicate a listing",
		Long:  "Insert a copy of a listing with a \"(Copy)\" title, pending status and reset counters. Costs one listing credit.",
		Args:  cobra.ExactArgs(1),
		RunE:  runDuplicate,
	}
}

func runDuplicate(cmd *cobra.Command, args []string) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.close()

	owner, err := b.ownerOf(args[0])
	if err != nil {
		return err
	}
	svc, err := b.serviceFor(owner)
	if err != nil {
		return err
	}

	dup, err := svc.Duplicate(args[0])
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(dup)
	}

	fmt.Println("Listing duplicated.")
	printListingSummary(dup)
	return nil
}
