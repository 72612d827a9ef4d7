// Package cli defines the cobra command tree for adboard.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ptrcarlson/adboard/internal/client"
	"github.com/ptrcarlson/adboard/internal/config"
	"github.com/ptrcarlson/adboard/internal/credit"
	"github.com/ptrcarlson/adboard/internal/db"
	"github.com/ptrcarlson/adboard/internal/listing"
)

var (
	flagFormat string
	flagDB     string
	flagServer string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "adboard",
		Short:         "Manage property advertising listings",
		Long:          "A tool for property agents: create and manage listings, spend listing and boosting credits, review credit requests, and serve the JSON API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.adboard/adboard.db)")
	root.PersistentFlags().StringVar(&flagServer, "server", "", "adboard API base URL (default: from config)")

	root.AddCommand(
		newAddCmd(),
		newListCmd(),
		newShowCmd(),
		newDuplicateCmd(),
		newFeatureCmd(),
		newToggleCmd(),
		newBatchCmd(),
		newRemoveCmd(),
		newEnquireCmd(),
		newEnquiriesCmd(),
		newCreditsCmd(),
		newServeCmd(),
		newVersionCmd(),
	)

	return root
}

// openDB opens the SQLite database using the --db flag or default path.
func openDB() (*sql.DB, error) {
	path := flagDB
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}

// newAPIClient creates an HTTP client for the adboard API.
func newAPIClient() *client.Client {
	url := flagServer
	if url == "" {
		if cfg, err := config.Load(""); err == nil {
			url = cfg.ServerURL
		} else {
			url = "http://localhost:8080"
		}
	}
	return client.New(url)
}

// backend is the record store and credit ledger pair the orchestrator
// runs against: the remote API when --server is set, the local SQLite
// database otherwise.
type backend struct {
	store  listing.Store
	ledger credit.Ledger
	close  func()
}

func openBackend() (*backend, error) {
	if flagServer != "" {
		c := newAPIClient()
		return &backend{store: c, ledger: c, close: func() {}}, nil
	}

	database, err := openDB()
	if err != nil {
		return nil, err
	}
	return &backend{
		store:  listing.NewRepository(database),
		ledger: credit.NewRepository(database),
		close:  func() { closeDB(database) },
	}, nil
}

// serviceFor builds a refreshed orchestrator for ownerID.
func (b *backend) serviceFor(ownerID string) (*listing.Service, error) {
	svc := listing.NewService(b.store, b.ledger, ownerID)
	if err := svc.Refresh(); err != nil {
		return nil, err
	}
	return svc, nil
}

// ownerOf looks up the listing with id and returns its owner.
func (b *backend) ownerOf(id string) (string, error) {
	l, err := b.store.GetByID(id)
	if err != nil {
		return "", err
	}
	return l.OwnerID, nil
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}
