// Package yolo implements the YOLO text label format: one `class cx cy w h`
// line per object, coordinates normalized to the image size.
package yolo

import (
	"errors"
	"fmt"
	"image"
	"math"
)

var (
	ErrInvalidSize  = errors.New("image size must be positive")
	ErrInvalidClass = errors.New("class id must not be negative")
	ErrOutOfRange   = errors.New("normalized coordinate outside [0,1]")
)

// Annotation is one labeled object in normalized center/size form.
type Annotation struct {
	ClassID int     `json:"class_id"`
	CX      float64 `json:"cx"`
	CY      float64 `json:"cy"`
	W       float64 `json:"w"`
	H       float64 `json:"h"`
}

// Box holds pixel corners. X1/Y1 is the top-left corner when canonical.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Validate reports whether the annotation fits the label format invariants.
func (a Annotation) Validate() error {
	if a.ClassID < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidClass, a.ClassID)
	}
	for _, v := range [...]float64{a.CX, a.CY, a.W, a.H} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: %v", ErrOutOfRange, v)
		}
	}
	return nil
}

// ToBox maps the annotation to pixel corners of a width x height image.
func (a Annotation) ToBox(width, height int) Box {
	w, h := float64(width), float64(height)
	return Box{
		X1: (a.CX - a.W/2) * w,
		Y1: (a.CY - a.H/2) * h,
		X2: (a.CX + a.W/2) * w,
		Y2: (a.CY + a.H/2) * h,
	}
}

// FromBox is the inverse of ToBox. Corners are reordered and clamped to the
// image so the result always validates.
func FromBox(classID int, b Box, width, height int) (Annotation, error) {
	if width <= 0 || height <= 0 {
		return Annotation{}, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if classID < 0 {
		return Annotation{}, fmt.Errorf("%w: %d", ErrInvalidClass, classID)
	}
	w, h := float64(width), float64(height)
	b = b.Canon().Clamp(w, h)

	return Annotation{
		ClassID: classID,
		CX:      (b.X1 + b.X2) / (2 * w),
		CY:      (b.Y1 + b.Y2) / (2 * h),
		W:       (b.X2 - b.X1) / w,
		H:       (b.Y2 - b.Y1) / h,
	}, nil
}

// Canon returns the box with X1 <= X2 and Y1 <= Y2.
func (b Box) Canon() Box {
	if b.X1 > b.X2 {
		b.X1, b.X2 = b.X2, b.X1
	}
	if b.Y1 > b.Y2 {
		b.Y1, b.Y2 = b.Y2, b.Y1
	}
	return b
}

// Clamp limits the corners to [0,width] x [0,height].
func (b Box) Clamp(width, height float64) Box {
	return Box{
		X1: clamp(b.X1, 0, width),
		Y1: clamp(b.Y1, 0, height),
		X2: clamp(b.X2, 0, width),
		Y2: clamp(b.Y2, 0, height),
	}
}

// Round snaps the corners to the nearest pixel.
func (b Box) Round() image.Rectangle {
	return image.Rect(
		int(math.Round(b.X1)), int(math.Round(b.Y1)),
		int(math.Round(b.X2)), int(math.Round(b.Y2)),
	)
}

// Width and Height are signed; they are only meaningful on a canonical box.
func (b Box) Width() float64 { return b.X2 - b.X1 }
func (b Box) Height() float64 { return b.Y2 - b.Y1 }

// FlipHorizontal mirrors the annotation around the vertical image axis.
func FlipHorizontal(anns []Annotation) []Annotation {
	out := make([]Annotation, len(anns))
	for i, a := range anns {
		a.CX = 1 - a.CX
		out[i] = a
	}
	return out
}

// FlipVertical mirrors the annotation around the horizontal image axis.
func FlipVertical(anns []Annotation) []Annotation {
	out := make([]Annotation, len(anns))
	for i, a := range anns {
		a.CY = 1 - a.CY
		out[i] = a
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (a Annotation) finite() bool {
	for _, v := range [...]float64{a.CX, a.CY, a.W, a.H} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// clampCoords limits every normalized value to [0,1].
func (a Annotation) clampCoords() Annotation {
	a.CX = clamp(a.CX, 0, 1)
	a.CY = clamp(a.CY, 0, 1)
	a.W = clamp(a.W, 0, 1)
	a.H = clamp(a.H, 0, 1)
	return a
}
