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
	"github.com/apexperf/roster-cli/internal/model"
)

var (
	ocrUserID string
	ocrOrgID  string
	ocrApply  bool
)

var ocrCmd = &cobra.Command{
	Use:   "ocr <image> [image...]",
	Short: "Extract measurements from photographed measurement sheets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if ocrApply && ocrUserID == "" {
			return eris.New("acting user id is required with --apply (--user)")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		images := make([][]byte, 0, len(args))
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return eris.Wrapf(err, "read image %s", path)
			}
			images = append(images, data)
		}

		results := env.OCR.ExtractFromImages(ctx, images)

		if !ocrApply {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}

		var rows []model.RowInput
		for i, res := range results {
			if res.Error != "" {
				zap.L().Warn("image extraction failed",
					zap.String("image", args[i]),
					zap.String("error", res.Error),
				)
				continue
			}
			for _, data := range res.ExtractedData {
				rows = append(rows, data.ToRow(len(rows)+1))
			}
		}

		result, err := env.Importer.ImportRows(ctx, rows, importer.Context{
			ActingUserID:          ocrUserID,
			DefaultOrganizationID: ocrOrgID,
			Source:                model.SourceOCR,
		})
		if err != nil {
			return err
		}

		summary := result.Summary()
		zap.L().Info("ocr import complete",
			zap.Int("images", len(args)),
			zap.Int("rows", len(rows)),
			zap.Int("successful", summary.Successful),
			zap.Int("failed", summary.Failed),
			zap.Int("pending_review", summary.PendingReview),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	ocrCmd.Flags().StringVar(&ocrUserID, "user", "", "acting user id (required with --apply)")
	ocrCmd.Flags().StringVar(&ocrOrgID, "org", "", "default organization id for extracted rows")
	ocrCmd.Flags().BoolVar(&ocrApply, "apply", false, "run extracted rows through the import pipeline instead of printing them")
	rootCmd.AddCommand(ocrCmd)
}
