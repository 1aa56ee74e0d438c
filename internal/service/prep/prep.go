// Package prep turns labeled datasets into training sets: augmentation,
// train/val splitting, collection of the newest labels and class statistics.
package prep

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"annotator/internal/logger"
	"annotator/internal/service/storage"
)

// DefaultSeed keeps augmentation and splits reproducible.
const DefaultSeed = 42

// Service runs dataset preparation jobs.
type Service struct {
	logger *logger.Logger
}

func NewService(logger *logger.Logger) *Service {
	return &Service{logger: logger}
}

// pair is an image with its label file.
type pair struct {
	Image string
	Label string
}

func (p pair) stem() string {
	base := filepath.Base(p.Image)
	return base[:len(base)-len(filepath.Ext(base))]
}

// labeledPairs lists raster images in imagesDir that have a label file in
// labelsDir, sorted by image name.
func labeledPairs(imagesDir, labelsDir string) ([]pair, error) {
	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", imagesDir, err)
	}

	var pairs []pair
	for _, e := range entries {
		if e.IsDir() || !storage.IsRaster(storage.KindOf(e.Name())) {
			continue
		}
		p := pair{Image: filepath.Join(imagesDir, e.Name())}
		p.Label = filepath.Join(labelsDir, p.stem()+storage.LabelExt)
		if _, err := os.Stat(p.Label); err != nil {
			continue
		}
		pairs = append(pairs, p)
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Image < pairs[j].Image })
	return pairs, nil
}

// copyFile copies src to dst and keeps the modification time.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
