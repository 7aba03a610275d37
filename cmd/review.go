package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apexperf/roster-cli/internal/model"
)

var (
	reviewOrgID      string
	reviewUserID     string
	reviewNotes      string
	reviewMaxAgeDays int
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Manage the manual review queue",
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending review items",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		list, err := env.Queue.ListPending(ctx, reviewOrgID)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	},
}

var reviewApproveCmd = &cobra.Command{
	Use:   "approve <item-id>",
	Short: "Approve a review item and persist its measurement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return decideReviewItem(cmd, args[0], model.ReviewActionApprove)
	},
}

var reviewRejectCmd = &cobra.Command{
	Use:   "reject <item-id>",
	Short: "Reject a review item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return decideReviewItem(cmd, args[0], model.ReviewActionReject)
	},
}

var reviewSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete decided review items older than the retention window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		removed, err := env.Queue.Sweep(ctx, reviewMaxAgeDays)
		if err != nil {
			return err
		}

		zap.L().Info("review sweep complete", zap.Int("removed", removed))
		return nil
	},
}

func decideReviewItem(cmd *cobra.Command, id string, action model.ReviewAction) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if reviewUserID == "" {
		return eris.New("reviewer user id is required (--user)")
	}

	env, err := initEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	item, err := env.Queue.Decide(ctx, id, action, reviewUserID, reviewNotes)
	if err != nil {
		return err
	}

	zap.L().Info("review item decided",
		zap.String("id", item.ID),
		zap.String("status", string(item.Status)),
		zap.String("reviewer", reviewUserID),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(item)
}

func init() {
	reviewListCmd.Flags().StringVar(&reviewOrgID, "org", "", "organization scope (default: all organizations)")
	reviewApproveCmd.Flags().StringVar(&reviewUserID, "user", "", "reviewer user id (required)")
	reviewApproveCmd.Flags().StringVar(&reviewNotes, "notes", "", "reviewer notes")
	reviewRejectCmd.Flags().StringVar(&reviewUserID, "user", "", "reviewer user id (required)")
	reviewRejectCmd.Flags().StringVar(&reviewNotes, "notes", "", "reviewer notes")
	reviewSweepCmd.Flags().IntVar(&reviewMaxAgeDays, "max-age-days", 0, "retention override in days (default from config)")

	reviewCmd.AddCommand(reviewListCmd, reviewApproveCmd, reviewRejectCmd, reviewSweepCmd)
	rootCmd.AddCommand(reviewCmd)
}
