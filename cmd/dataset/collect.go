package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var collectCmd = &cobra.Command{
	Use:   "collect <source>...",
	Short: "Merge labeled images from several folders, keeping the newest label",
	Long: `Each source folder holds <stem>.png next to <stem>.txt. When the same
stem appears in more than one source, the pair whose label file was
modified last is kept.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputDir, _ := cmd.Flags().GetString("output")

		report, err := svc.Collect(args, outputDir)
		if err != nil {
			return err
		}

		fmt.Printf("✅ Collected into %s\n", outputDir)
		fmt.Printf("   Total images: %d\n", report.TotalImages)
		fmt.Printf("   Images with labels: %d\n", report.ImagesWithLabels)
		fmt.Printf("   Total annotations: %d\n", report.TotalAnnotations)
		fmt.Printf("   Average per image: %.1f\n", report.AveragePerImage())

		sources := make([]string, 0, len(report.PerSource))
		for source := range report.PerSource {
			sources = append(sources, source)
		}
		sort.Strings(sources)
		for _, source := range sources {
			fmt.Printf("      - %s: %d\n", source, report.PerSource[source])
		}
		return nil
	},
}

func init() {
	collectCmd.Flags().StringP("output", "o", "final_dataset", "Output directory")
}
