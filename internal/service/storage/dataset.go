// Package storage manages a dataset directory: images/ holds the images and
// labels/ holds one YOLO label file per image stem.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"annotator/internal/yolo"
)

const (
	ImagesDirName = "images"
	LabelsDirName = "labels"
	LabelExt      = ".txt"
)

var (
	ErrDirectoryNotFound = errors.New("directory not found")
	ErrNotDirectory      = errors.New("path is not a directory")
	ErrMissingImagesDir  = errors.New("missing 'images/' subfolder in the selected directory")
	ErrNoImages          = errors.New("no image files (PNG/PDF/JPG) found in images/ subfolder")
	ErrInvalidName       = errors.New("invalid image name")
	ErrImageNotFound     = errors.New("image not found")
)

// ImageFile is a supported file in the images directory.
type ImageFile struct {
	Name string
	Path string
	Kind string
	Size int64
}

// FileCounts groups images by type the way the directory picker reports them.
type FileCounts struct {
	PNG   int `json:"png"`
	PDF   int `json:"pdf"`
	JPG   int `json:"jpg"`
	Other int `json:"other"`
}

// Total returns the number of supported images.
func (c FileCounts) Total() int {
	return c.PNG + c.PDF + c.JPG + c.Other
}

// Summary describes the mix of types, or "" for PNG-only datasets.
func (c FileCounts) Summary() string {
	if c.PDF == 0 && c.JPG == 0 && c.Other == 0 {
		return ""
	}
	s := fmt.Sprintf("PNG:%d PDF:%d JPG:%d", c.PNG, c.PDF, c.JPG)
	if c.Other > 0 {
		s += fmt.Sprintf(" OTHER:%d", c.Other)
	}
	return s
}

// Dataset is an opened and validated dataset directory.
type Dataset struct {
	Root      string
	ImagesDir string
	LabelsDir string
}

// Open validates the dataset layout and creates labels/ when missing.
func Open(root string) (*Dataset, error) {
	info, err := os.Stat(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, root)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	d := &Dataset{
		Root:      abs,
		ImagesDir: filepath.Join(abs, ImagesDirName),
		LabelsDir: filepath.Join(abs, LabelsDirName),
	}

	if info, err := os.Stat(d.ImagesDir); err != nil || !info.IsDir() {
		return nil, ErrMissingImagesDir
	}

	counts, err := d.Counts()
	if err != nil {
		return nil, err
	}
	if counts.Total() == 0 {
		return nil, ErrNoImages
	}

	if err := os.MkdirAll(d.LabelsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create labels directory: %w", err)
	}

	return d, nil
}

// Images lists supported images sorted by name.
func (d *Dataset) Images() ([]ImageFile, error) {
	return listImages(d.ImagesDir)
}

// Counts returns the number of images per type.
func (d *Dataset) Counts() (FileCounts, error) {
	images, err := d.Images()
	if err != nil {
		return FileCounts{}, err
	}
	return countKinds(images), nil
}

// ImagePath resolves an image name inside images/.
func (d *Dataset) ImagePath(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	path := filepath.Join(d.ImagesDir, name)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrImageNotFound, name)
	}
	return path, nil
}

// LabelPath returns the label file for an image name, whether or not it exists.
func (d *Dataset) LabelPath(name string) string {
	return filepath.Join(d.LabelsDir, stem(name)+LabelExt)
}

// HasLabels reports whether a label file exists for the image.
func (d *Dataset) HasLabels(name string) bool {
	_, err := os.Stat(d.LabelPath(name))
	return err == nil
}

// Labels is the parsed content of one label file.
type Labels struct {
	Annotations []yolo.Annotation
	Exists      bool
	yolo.ReadStats
}

// ReadLabels reads the image's label file. A missing file yields no
// annotations and Exists=false. Malformed lines are skipped and slightly
// out-of-range coordinates are clamped; both are counted in ReadStats.
func (d *Dataset) ReadLabels(name string) (Labels, error) {
	anns, stats, err := yolo.ReadFileStats(d.LabelPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return Labels{Annotations: []yolo.Annotation{}}, nil
	}
	if err != nil {
		return Labels{Exists: true}, fmt.Errorf("failed to read labels for %s: %w", name, err)
	}
	return Labels{Annotations: anns, Exists: true, ReadStats: stats}, nil
}

// LoadAnnotations is ReadLabels without the line statistics.
func (d *Dataset) LoadAnnotations(name string) (anns []yolo.Annotation, exists bool, err error) {
	labels, err := d.ReadLabels(name)
	if err != nil {
		return nil, labels.Exists, err
	}
	return labels.Annotations, labels.Exists, nil
}

// SaveAnnotations replaces the image's label file.
func (d *Dataset) SaveAnnotations(name string, anns []yolo.Annotation) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(d.LabelsDir, 0755); err != nil {
		return fmt.Errorf("failed to create labels directory: %w", err)
	}
	return yolo.WriteFile(d.LabelPath(name), anns)
}

// LabelCount returns the number of annotations in the image's label file.
func (d *Dataset) LabelCount(name string) (count int, exists bool) {
	anns, exists, err := d.LoadAnnotations(name)
	if err != nil {
		return 0, exists
	}
	return len(anns), exists
}

// LabelFileCount counts the .txt files in labels/.
func (d *Dataset) LabelFileCount() int {
	entries, err := os.ReadDir(d.LabelsDir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), LabelExt) {
			n++
		}
	}
	return n
}

// Unlabeled lists raster images without a label file.
func (d *Dataset) Unlabeled() ([]ImageFile, error) {
	images, err := d.Images()
	if err != nil {
		return nil, err
	}
	var out []ImageFile
	for _, img := range images {
		if IsRaster(img.Kind) && !d.HasLabels(img.Name) {
			out = append(out, img)
		}
	}
	return out, nil
}

func listImages(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read images directory: %w", err)
	}

	var images []ImageFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		kind := KindOf(e.Name())
		if kind == "" {
			continue
		}
		var size int64
		if info, err := e.Info(); err == nil {
			size = info.Size()
		}
		images = append(images, ImageFile{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Kind: kind,
			Size: size,
		})
	}

	sort.Slice(images, func(i, j int) bool { return images[i].Name < images[j].Name })
	return images, nil
}

func countKinds(images []ImageFile) FileCounts {
	var c FileCounts
	for _, img := range images {
		switch img.Kind {
		case KindPNG:
			c.PNG++
		case KindPDF:
			c.PDF++
		case KindJPG:
			c.JPG++
		default:
			c.Other++
		}
	}
	return c
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, "/\\\x00") || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if KindOf(name) == "" {
		return fmt.Errorf("%w: unsupported file type %q", ErrInvalidName, name)
	}
	return nil
}
