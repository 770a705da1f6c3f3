// Command copilot queries the local Copilot Money cache from the terminal,
// serves it to MCP clients over stdio and exports it to BigQuery or GCS.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dvloznov/copilot-ledger/internal/config"
	"github.com/dvloznov/copilot-ledger/internal/decoder"
	"github.com/dvloznov/copilot-ledger/internal/logger"
	"github.com/dvloznov/copilot-ledger/internal/store"
	"github.com/dvloznov/copilot-ledger/internal/tools"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var version = "dev"

// app holds what every subcommand needs once flags are parsed.
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	db    *store.Database
	tools *tools.Tools
}

type rootFlags struct {
	configPath string
	dbPath     string
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Logs go to logOut; results go to the
// command's stdout.
func newRootCmd(logOut io.Writer) *cobra.Command {
	var (
		flags rootFlags
		a     app
	)

	root := &cobra.Command{
		Use:          "copilot",
		Short:        "Read Copilot Money transactions and accounts from the local cache",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(flags, logOut)
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&flags.dbPath, "db-path", "", "LevelDB directory (default: the Copilot Money cache, or COPILOT_DB_PATH)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newTransactionsCmd(&a),
		newSearchCmd(&a),
		newAccountsCmd(&a),
		newBalanceCmd(&a),
		newCategoriesCmd(&a),
		newSpendingCmd(&a),
		newMCPCmd(&a),
		newExportBigQueryCmd(&a),
		newSnapshotCmd(&a),
	)
	return root
}

func (a *app) init(flags rootFlags, logOut io.Writer) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.dbPath != "" {
		cfg.Database.Path = flags.dbPath
	}
	if flags.verbose {
		cfg.Logging.Level = "debug"
	}

	a.cfg = cfg
	a.log = logger.NewWithWriter(logOut, cfg.Logging)
	dec := decoder.New(decoder.WithLimits(cfg.Decoder), decoder.WithLogger(a.log))
	a.db = store.New(cfg.Database.Path, dec, a.log)
	a.tools = tools.New(a.db)

	a.log.Debug().Str("db_path", cfg.Database.Path).Msg("Configuration loaded")
	return nil
}

// printJSON writes v as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
