package cli

import (
	"github.com/spf13/cobra"

	"github.com/ptrcarlson/adboard/internal/config"
	"github.com/ptrcarlson/adboard/internal/credit"
	"github.com/ptrcarlson/adboard/internal/db"
	"github.com/ptrcarlson/adboard/internal/enquiry"
	"github.com/ptrcarlson/adboard/internal/listing"
	"github.com/ptrcarlson/adboard/internal/logging"
	"github.com/ptrcarlson/adboard/internal/viewlog"
	"github.com/ptrcarlson/adboard/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the JSON API server",
		Long:  "Start the HTTP API server over the configured storage backend (SQLite or Postgres).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port, cfgPath)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (default: from config)")
	cmd.Flags().StringVar(&cfgPath, "config", "", "config file path")

	return cmd
}

func runServe(port int, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logging.Setup(cfg.LogLevel)

	if port == 0 {
		port = cfg.Port
	}

	if cfg.DB.Driver == config.DriverPostgres {
		pool, err := db.OpenPostgres(cfg.DB.PostgresURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		server := web.NewServer(
			listing.NewPostgresStore(pool),
			credit.NewPostgresLedger(pool),
			enquiry.NewPostgresStore(pool),
			viewlog.NewPostgresRecorder(pool),
		)
		return server.ListenAndServe(port)
	}

	path := flagDB
	if path == "" {
		path = cfg.DB.Path
	}
	if path == "" {
		path, err = db.DefaultPath()
		if err != nil {
			return err
		}
	}

	database, err := db.Open(path)
	if err != nil {
		return err
	}
	defer closeDB(database)

	server := web.NewServer(
		listing.NewRepository(database),
		credit.NewRepository(database),
		enquiry.NewRepository(database),
		viewlog.NewRepository(database),
	)
	return server.ListenAndServe(port)
}
