package main

import (
	"fmt"

	"annotator/internal/app"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate <dataset-dir>",
	Short: "Pre-label images without a label file using the detector",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, manager, _, err := app.NewManager(cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()
		defer manager.Close()

		if !manager.DetectorReady() {
			return fmt.Errorf("detector not available, check MODEL_PATH (%s)", cfg.ModelPath)
		}

		result, err := manager.SetDirectory(cmd.Context(), args[0], true)
		if err != nil {
			return err
		}

		fmt.Printf("✅ %s\n", result.Directory)
		fmt.Printf("   Images: %d\n", result.ImagesCount)
		fmt.Printf("   Existing labels: %d\n", result.ExistingLabels)
		fmt.Printf("   Generated: %d (empty: %d)\n", result.Generation.Generated, result.Generation.Empty)
		fmt.Printf("   Total labels: %d\n", result.TotalLabels)
		if result.Generation.Errors > 0 {
			fmt.Printf("⚠️  Errors: %d\n", result.Generation.Errors)
		}
		return nil
	},
}
