package prep

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"annotator/internal/service/storage"

	"gopkg.in/yaml.v3"
)

const (
	TrainSplit = "train"
	ValSplit   = "val"

	DatasetFileName = "dataset.yaml"
)

// DatasetConfig is the dataset.yaml read by YOLO trainers.
type DatasetConfig struct {
	Path  string   `yaml:"path"`
	Train string   `yaml:"train"`
	Val   string   `yaml:"val"`
	NC    int      `yaml:"nc"`
	Names []string `yaml:"names"`
}

// SplitOptions configures Split.
type SplitOptions struct {
	ImagesDir  string
	LabelsDir  string
	OutputDir  string
	TrainRatio float64
	Seed       int64
	ClassNames []string
}

// SplitReport counts the files placed in each split.
type SplitReport struct {
	Train       int
	Val         int
	DatasetYAML string
}

// Split shuffles the labeled images with a fixed seed and copies them into
// images/{train,val} and labels/{train,val}, then writes dataset.yaml.
func (s *Service) Split(ctx context.Context, opts SplitOptions) (*SplitReport, error) {
	if opts.TrainRatio <= 0 || opts.TrainRatio > 1 {
		return nil, fmt.Errorf("train ratio must be in (0,1], got %v", opts.TrainRatio)
	}

	pairs, err := labeledPairs(opts.ImagesDir, opts.LabelsDir)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	rng.Shuffle(len(pairs), func(i, j int) { pairs[i], pairs[j] = pairs[j], pairs[i] })

	cut := int(float64(len(pairs)) * opts.TrainRatio)
	splits := map[string][]pair{
		TrainSplit: pairs[:cut],
		ValSplit:   pairs[cut:],
	}

	for _, name := range []string{TrainSplit, ValSplit} {
		imagesOut := filepath.Join(opts.OutputDir, storage.ImagesDirName, name)
		labelsOut := filepath.Join(opts.OutputDir, storage.LabelsDirName, name)
		for _, dir := range []string{imagesOut, labelsOut} {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create %s: %w", dir, err)
			}
		}

		for _, p := range splits[name] {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := copyFile(p.Image, filepath.Join(imagesOut, filepath.Base(p.Image))); err != nil {
				return nil, fmt.Errorf("failed to copy %s: %w", p.Image, err)
			}
			if err := copyFile(p.Label, filepath.Join(labelsOut, filepath.Base(p.Label))); err != nil {
				return nil, fmt.Errorf("failed to copy %s: %w", p.Label, err)
			}
		}
	}

	yamlPath := filepath.Join(opts.OutputDir, DatasetFileName)
	err = WriteDatasetConfig(yamlPath, DatasetConfig{
		Path:  ".",
		Train: filepath.ToSlash(filepath.Join(storage.ImagesDirName, TrainSplit)),
		Val:   filepath.ToSlash(filepath.Join(storage.ImagesDirName, ValSplit)),
		NC:    len(opts.ClassNames),
		Names: opts.ClassNames,
	})
	if err != nil {
		return nil, err
	}

	report := &SplitReport{Train: cut, Val: len(pairs) - cut, DatasetYAML: yamlPath}
	s.logger.Info("Split %d files: %d train, %d val", len(pairs), report.Train, report.Val)
	return report, nil
}

// WriteDatasetConfig writes cfg as YAML.
func WriteDatasetConfig(path string, cfg DatasetConfig) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to encode dataset config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadDatasetConfig parses a dataset.yaml file.
func ReadDatasetConfig(path string) (*DatasetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg DatasetConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}
