package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apexperf/roster-cli/internal/importer"
	"github.com/apexperf/roster-cli/internal/sheet"
)

var (
	importFilePath  string
	importSheetName string
	importUserID    string
	importOrgID     string
	importAsRoster  bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import measurements (or roster entries) from an XLSX file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		opts := sheet.Options{SheetName: importSheetName}

		if importAsRoster {
			entries, err := sheet.ReadRoster(importFilePath, opts, importOrgID)
			if err != nil {
				return err
			}
			created := 0
			for _, entry := range entries {
				if _, err := env.Store.CreateRosterEntry(ctx, entry); err != nil {
					return eris.Wrapf(err, "create roster entry %q", entry.FullName())
				}
				created++
			}
			zap.L().Info("roster seed complete",
				zap.Int("created", created),
				zap.String("file", importFilePath),
			)
			return nil
		}

		if importUserID == "" {
			return eris.New("acting user id is required (--user)")
		}

		rows, err := sheet.ReadMeasurements(importFilePath, opts)
		if err != nil {
			return err
		}

		result, err := env.Importer.ImportRows(ctx, rows, importer.Context{
			ActingUserID:          importUserID,
			DefaultOrganizationID: importOrgID,
		})
		if err != nil {
			return err
		}

		summary := result.Summary()
		zap.L().Info("import complete",
			zap.String("file", importFilePath),
			zap.Int("successful", summary.Successful),
			zap.Int("failed", summary.Failed),
			zap.Int("pending_review", summary.PendingReview),
			zap.Int("warnings", summary.Warnings),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	importCmd.Flags().StringVar(&importFilePath, "file", "", "path to XLSX file (required)")
	importCmd.Flags().StringVar(&importSheetName, "sheet", "", "sheet name (default: first sheet)")
	importCmd.Flags().StringVar(&importUserID, "user", "", "acting user id")
	importCmd.Flags().StringVar(&importOrgID, "org", "", "default organization id for rows without a resolvable team")
	importCmd.Flags().BoolVar(&importAsRoster, "roster", false, "treat the file as roster seed data instead of measurements")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
