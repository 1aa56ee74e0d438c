package prep

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"annotator/internal/service/storage"
	"annotator/internal/yolo"
)

// CollectReport summarizes a collection run.
type CollectReport struct {
	TotalImages      int
	ImagesWithLabels int
	TotalAnnotations int
	// PerSource counts how many winning pairs came from each source.
	PerSource map[string]int
}

// AveragePerImage returns annotations per collected image.
func (r *CollectReport) AveragePerImage() float64 {
	if r.TotalImages == 0 {
		return 0
	}
	return float64(r.TotalAnnotations) / float64(r.TotalImages)
}

type candidate struct {
	pair
	source  string
	modTime time.Time
}

// Collect searches sources for images with a sibling <stem>.txt label and
// copies, for every stem, the pair whose label was modified last into
// outputDir. Missing sources are skipped.
func (s *Service) Collect(sources []string, outputDir string) (*CollectReport, error) {
	latest := make(map[string]candidate)

	for _, src := range sources {
		if _, err := os.Stat(src); err != nil {
			s.logger.Warning("Skipping %s: %v", src, err)
			continue
		}
		pairs, err := labeledPairs(src, src)
		if err != nil {
			s.logger.Warning("Skipping %s: %v", src, err)
			continue
		}
		s.logger.Info("Checking %s: %d labeled images", src, len(pairs))

		for _, p := range pairs {
			info, err := os.Stat(p.Label)
			if err != nil {
				continue
			}
			stem := p.stem()
			if cur, ok := latest[stem]; !ok || info.ModTime().After(cur.modTime) {
				latest[stem] = candidate{pair: p, source: src, modTime: info.ModTime()}
			}
		}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", outputDir, err)
	}

	stems := make([]string, 0, len(latest))
	for stem := range latest {
		stems = append(stems, stem)
	}
	sort.Strings(stems)

	report := &CollectReport{PerSource: make(map[string]int)}
	for _, stem := range stems {
		c := latest[stem]
		if err := copyFile(c.Image, filepath.Join(outputDir, filepath.Base(c.Image))); err != nil {
			return nil, fmt.Errorf("failed to copy %s: %w", c.Image, err)
		}
		if err := copyFile(c.Label, filepath.Join(outputDir, stem+storage.LabelExt)); err != nil {
			return nil, fmt.Errorf("failed to copy %s: %w", c.Label, err)
		}

		anns, err := yolo.ReadFile(c.Label)
		if err != nil {
			s.logger.Warning("Could not count labels of %s: %v", c.Label, err)
		}
		report.TotalImages++
		report.TotalAnnotations += len(anns)
		if len(anns) > 0 {
			report.ImagesWithLabels++
		}
		report.PerSource[c.source]++
	}

	s.logger.Info("Collected %d unique labeled images into %s", report.TotalImages, outputDir)
	return report, nil
}
