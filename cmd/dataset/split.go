package main

import (
	"fmt"

	"annotator/internal/service/prep"

	"github.com/spf13/cobra"
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split labeled images into train and val sets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		imagesDir, _ := cmd.Flags().GetString("images")
		labelsDir, _ := cmd.Flags().GetString("labels")
		outputDir, _ := cmd.Flags().GetString("output")
		ratio, _ := cmd.Flags().GetFloat64("ratio")
		seed, _ := cmd.Flags().GetInt64("seed")

		report, err := svc.Split(cmd.Context(), prep.SplitOptions{
			ImagesDir:  imagesDir,
			LabelsDir:  labelsDir,
			OutputDir:  outputDir,
			TrainRatio: ratio,
			Seed:       seed,
			ClassNames: cfg.ClassNames,
		})
		if err != nil {
			return err
		}

		fmt.Printf("✅ Split complete: %d train, %d val\n", report.Train, report.Val)
		fmt.Printf("📄 Dataset config: %s\n", report.DatasetYAML)
		return nil
	},
}

func init() {
	splitCmd.Flags().StringP("images", "i", "images", "Directory with source images")
	splitCmd.Flags().StringP("labels", "l", "labels", "Directory with YOLO label files")
	splitCmd.Flags().StringP("output", "o", "dataset", "Output dataset directory")
	splitCmd.Flags().Float64P("ratio", "r", 0.8, "Share of images placed in the train split")
	splitCmd.Flags().Int64("seed", prep.DefaultSeed, "Random seed")
}
