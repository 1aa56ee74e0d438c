// Package ai defines the object detector used to pre-label images and the
// post-processing shared by its backends.
package ai

import (
	"context"
	"errors"
	"image"

	"annotator/internal/config"
	"annotator/internal/yolo"
)

// ErrModelNotFound is returned by backends when the model file is missing.
var ErrModelNotFound = errors.New("model file not found")

// Detection is one object found by the detector, in source image pixels.
type Detection struct {
	ClassID    int
	Confidence float32
	Box        yolo.Box
}

// Result holds the detections for one image together with its size.
type Result struct {
	Width      int
	Height     int
	Detections []Detection
}

// Detector runs a model over an image file.
type Detector interface {
	Detect(ctx context.Context, path string) (*Result, error)
	Close() error
}

// Overlay is a labeled rectangle drawn on a preview.
type Overlay struct {
	Label string
	Rect  image.Rectangle
}

// Renderer draws overlays onto an image and returns it JPEG encoded.
type Renderer interface {
	Render(path string, overlays []Overlay) ([]byte, error)
}

// Options configures a detector backend.
type Options struct {
	ModelPath    string
	InputSize    int
	Confidence   float32
	IOUThreshold float32
	NumClasses   int
}

// OptionsFromConfig builds detector options from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ModelPath:    cfg.ModelPath,
		InputSize:    cfg.ModelInputSize,
		Confidence:   float32(cfg.Confidence),
		IOUThreshold: float32(cfg.IOUThreshold),
		NumClasses:   len(cfg.ClassNames),
	}
}

// Anchors returns the number of predictions a YOLOv8 head emits for a square
// input of the given size (strides 8, 16 and 32).
func Anchors(inputSize int) int {
	n := 0
	for _, stride := range []int{8, 16, 32} {
		side := inputSize / stride
		n += side * side
	}
	return n
}

// ToAnnotations converts detections to normalized annotations. Boxes that
// collapse to nothing after clamping are dropped.
func ToAnnotations(res *Result) []yolo.Annotation {
	anns := []yolo.Annotation{}
	if res == nil {
		return anns
	}
	for _, d := range res.Detections {
		a, err := yolo.FromBox(d.ClassID, d.Box, res.Width, res.Height)
		if err != nil || a.W == 0 || a.H == 0 {
			continue
		}
		anns = append(anns, a)
	}
	return anns
}
