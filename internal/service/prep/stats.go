package prep

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"annotator/internal/service/storage"
	"annotator/internal/yolo"
)

// ClassStats counts annotations per class in a labels directory.
type ClassStats struct {
	LabelFiles       int
	TotalAnnotations int
	Counts           map[int]int
}

// Percent returns the share of classID among all annotations.
func (s *ClassStats) Percent(classID int) float64 {
	if s.TotalAnnotations == 0 {
		return 0
	}
	return float64(s.Counts[classID]) / float64(s.TotalAnnotations) * 100
}

// CountAnnotations reads every label file in labelsDir. Malformed lines are
// skipped.
func CountAnnotations(labelsDir string) (*ClassStats, error) {
	entries, err := os.ReadDir(labelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", labelsDir, err)
	}

	stats := &ClassStats{Counts: make(map[int]int)}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), storage.LabelExt) {
			continue
		}
		anns, err := yolo.ReadFile(filepath.Join(labelsDir, e.Name()))
		if err != nil {
			return nil, err
		}
		stats.LabelFiles++
		stats.TotalAnnotations += len(anns)
		for _, a := range anns {
			stats.Counts[a.ClassID]++
		}
	}
	return stats, nil
}
