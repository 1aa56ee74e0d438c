package gocvnet

import (
	"fmt"
	"image"
	"image/color"

	"annotator/internal/service/ai"

	"gocv.io/x/gocv"
)

// Renderer draws annotation boxes with OpenCV.
type Renderer struct {
	Color     color.RGBA
	Thickness int
}

// NewRenderer returns a renderer drawing 2px red boxes.
func NewRenderer() *Renderer {
	return &Renderer{Color: color.RGBA{R: 255, G: 0, B: 0, A: 0}, Thickness: 2}
}

// Render draws the overlays on the image at path and returns a JPEG buffer.
func (r *Renderer) Render(path string, overlays []ai.Overlay) ([]byte, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		return nil, fmt.Errorf("failed to read image %s", path)
	}
	defer mat.Close()

	for _, o := range overlays {
		if err := gocv.Rectangle(&mat, o.Rect, r.Color, r.Thickness); err != nil {
			return nil, fmt.Errorf("failed to draw rectangle: %v", err)
		}

		pt := image.Pt(o.Rect.Min.X, o.Rect.Min.Y-5)
		if err := gocv.PutText(&mat, o.Label, pt, gocv.FontHersheySimplex, 0.5, r.Color, 1); err != nil {
			return nil, fmt.Errorf("failed to draw text: %v", err)
		}
	}

	buf, err := gocv.IMEncode(".jpg", mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}
