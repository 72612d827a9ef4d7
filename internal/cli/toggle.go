package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Toggle a listing between active and inactive",
		Long:  "Flip a listing between active and inactive. Listings in any other status cannot be toggled.",
		Args:  cobra.ExactArgs(1),
		RunE:  runToggle,
	}
}

func runToggle(cmd *cobra.Command, args []string) error {
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

	next, err := svc.ToggleStatus(args[0])
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]interface{}{"id": args[0], "status": next})
	}

	fmt.Printf("Listing %s is now %s.\n", args[0], next)
	return nil
}
