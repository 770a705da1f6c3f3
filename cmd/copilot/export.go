package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	bqexport "github.com/dvloznov/copilot-ledger/internal/export/bigquery"
	"github.com/dvloznov/copilot-ledger/internal/export/gcs"
	"github.com/spf13/cobra"
)

func newExportBigQueryCmd(a *app) *cobra.Command {
	var (
		projectID, dataset string
		verify             bool
	)
	cmd := &cobra.Command{
		Use:   "export-bigquery",
		Short: "Insert all transactions and accounts into BigQuery under a new export run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if projectID == "" {
				projectID = a.cfg.Export.ProjectID
			}
			if dataset == "" {
				dataset = a.cfg.Export.Dataset
			}
			if projectID == "" {
				return errors.New("--project (or GCP_PROJECT) is required")
			}

			txs, err := a.db.AllTransactions(ctx)
			if err != nil {
				return err
			}
			accs, err := a.db.Accounts(ctx, "")
			if err != nil {
				return err
			}

			exp, err := bqexport.NewExporter(ctx, projectID, dataset, a.log)
			if err != nil {
				return err
			}
			defer exp.Close()

			if err := exp.EnsureTables(ctx); err != nil {
				return err
			}
			res, err := exp.Export(ctx, txs, accs)
			if err != nil {
				return err
			}

			out := map[string]any{"result": res}
			if verify {
				n, err := exp.CountRows(ctx, bqexport.TransactionsTable, res.RunID)
				if err != nil {
					return err
				}
				// Streaming inserts can take a moment to become queryable.
				out["transactions_visible"] = n
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "GCP project id (default: export.project_id)")
	cmd.Flags().StringVar(&dataset, "dataset", "", "BigQuery dataset (default: export.dataset)")
	cmd.Flags().BoolVar(&verify, "verify", false, "Count the inserted transaction rows after the export")
	return cmd
}

func newSnapshotCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Write a JSON snapshot of the database to stdout, a file or gs://bucket/object",
		Long: `Write a JSON snapshot of every decoded transaction, account and category.

Without --output the snapshot goes to stdout. A gs:// output uploads it to
Google Cloud Storage; "gs://" alone uses export.bucket with a timestamped
object name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			txs, err := a.db.AllTransactions(ctx)
			if err != nil {
				return err
			}
			accs, err := a.db.Accounts(ctx, "")
			if err != nil {
				return err
			}
			cats, err := a.db.Categories(ctx)
			if err != nil {
				return err
			}
			now := time.Now()
			snap := gcs.NewSnapshot(a.db.Path(), now, txs, accs, cats)

			switch {
			case output == "":
				return snap.WriteSnapshot(cmd.OutOrStdout())

			case output == "gs://":
				if a.cfg.Export.Bucket == "" {
					return errors.New("export.bucket (or GCS_BUCKET) is required for gs:// output")
				}
				output = "gs://" + a.cfg.Export.Bucket + "/" + gcs.ObjectName(now)
				fallthrough

			case strings.HasPrefix(output, "gs://"):
				up, err := gcs.NewUploader(ctx)
				if err != nil {
					return err
				}
				defer up.Close()
				if err := up.Upload(ctx, output, snap); err != nil {
					return err
				}
				a.log.Info().Str("uri", output).Int("transactions", len(txs)).Msg("Snapshot uploaded")
				return printJSON(cmd, map[string]any{"uri": output, "transactions": len(txs), "accounts": len(accs)})

			default:
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				if err := snap.WriteSnapshot(f); err != nil {
					f.Close()
					return err
				}
				return f.Close()
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file or gs:// URI (default: stdout)")
	return cmd
}
