package main

import (
	"fmt"
	"strings"

	"annotator/internal/service/prep"

	"github.com/spf13/cobra"
)

var augmentCmd = &cobra.Command{
	Use:   "augment",
	Short: "Write augmented copies of every labeled image",
	Long: `Copies every image that has a label file into <output>/images and
<output>/labels and adds augmented variants named <stem>_aug_<op>.
Flips move the boxes; brightness, contrast and noise keep them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		imagesDir, _ := cmd.Flags().GetString("images")
		labelsDir, _ := cmd.Flags().GetString("labels")
		outputDir, _ := cmd.Flags().GetString("output")
		count, _ := cmd.Flags().GetInt("count")
		opNames, _ := cmd.Flags().GetStringSlice("ops")
		seed, _ := cmd.Flags().GetInt64("seed")

		var ops []prep.Op
		for _, name := range opNames {
			op, err := prep.ParseOp(strings.TrimSpace(name))
			if err != nil {
				return err
			}
			ops = append(ops, op)
		}

		report, err := svc.Augment(cmd.Context(), prep.AugmentOptions{
			ImagesDir: imagesDir,
			LabelsDir: labelsDir,
			OutputDir: outputDir,
			Count:     count,
			Ops:       ops,
			Seed:      seed,
		})
		if err != nil {
			return err
		}

		fmt.Printf("✅ Augmentation complete\n")
		fmt.Printf("   Original images: %d\n", report.Pairs)
		fmt.Printf("   Augmented images: %d\n", report.Augmented)
		fmt.Printf("   Total images: %d\n", report.Pairs+report.Augmented)
		if report.Failed > 0 {
			fmt.Printf("⚠️  Failed: %d\n", report.Failed)
		}
		fmt.Printf("📁 Output: %s\n", report.OutputDir)
		return nil
	},
}

func init() {
	augmentCmd.Flags().StringP("images", "i", "images", "Directory with source images")
	augmentCmd.Flags().StringP("labels", "l", "labels", "Directory with YOLO label files")
	augmentCmd.Flags().StringP("output", "o", "augmented", "Output dataset directory")
	augmentCmd.Flags().IntP("count", "n", 3, "Augmentations sampled per image when --ops is not set")
	augmentCmd.Flags().StringSlice("ops", nil, "Fixed operations to apply (hflip,vflip,bright,contrast,noise,dark)")
	augmentCmd.Flags().Int64("seed", prep.DefaultSeed, "Random seed")
}
