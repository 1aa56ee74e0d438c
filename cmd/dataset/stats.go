package main

import (
	"fmt"
	"sort"

	"annotator/internal/model"
	"annotator/internal/service/prep"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <labels-dir>",
	Short: "Count annotations per class",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := prep.CountAnnotations(args[0])
		if err != nil {
			return err
		}

		classes := model.NewClassMap(cfg.ClassNames)
		ids := make([]int, 0, len(stats.Counts))
		for id := range stats.Counts {
			ids = append(ids, id)
		}
		sort.Ints(ids)

		fmt.Printf("📊 %d label files, %d annotations\n", stats.LabelFiles, stats.TotalAnnotations)
		for _, id := range ids {
			fmt.Printf("   %d %-12s %6d (%.1f%%)\n", id, classes.Name(id), stats.Counts[id], stats.Percent(id))
		}
		return nil
	},
}
