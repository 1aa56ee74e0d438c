package ai

import (
	"math"
	"sort"

	"annotator/internal/yolo"
)

// DecodeYOLOv8 reads a channel-major [1, 4+numClasses, numAnchors] output.
// Each anchor holds cx, cy, w, h in model input pixels followed by one score
// per class. The best class above conf is kept and its box is scaled back to
// the source image with scaleX and scaleY.
func DecodeYOLOv8(out []float32, numClasses, numAnchors int, scaleX, scaleY float64, conf float32) []Detection {
	if numClasses <= 0 || numAnchors <= 0 || len(out) < (4+numClasses)*numAnchors {
		return nil
	}

	var detections []Detection
	for i := 0; i < numAnchors; i++ {
		classID := -1
		best := conf
		for c := 0; c < numClasses; c++ {
			if score := out[(4+c)*numAnchors+i]; score >= best {
				best = score
				classID = c
			}
		}
		if classID < 0 {
			continue
		}

		cx := float64(out[i])
		cy := float64(out[numAnchors+i])
		w := float64(out[2*numAnchors+i])
		h := float64(out[3*numAnchors+i])

		detections = append(detections, Detection{
			ClassID:    classID,
			Confidence: best,
			Box: yolo.Box{
				X1: (cx - w/2) * scaleX,
				Y1: (cy - h/2) * scaleY,
				X2: (cx + w/2) * scaleX,
				Y2: (cy + h/2) * scaleY,
			},
		})
	}
	return detections
}

// NonMaxSuppression keeps the most confident box of every overlapping group
// of the same class. The result is ordered by confidence.
func NonMaxSuppression(detections []Detection, iouThreshold float32) []Detection {
	sorted := make([]Detection, len(detections))
	copy(sorted, detections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := []Detection{}
	for _, d := range sorted {
		suppressed := false
		for _, k := range kept {
			if k.ClassID == d.ClassID && IoU(k.Box, d.Box) > float64(iouThreshold) {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, d)
		}
	}
	return kept
}

// IoU returns the intersection over union of two boxes.
func IoU(a, b yolo.Box) float64 {
	a, b = a.Canon(), b.Canon()

	iw := math.Min(a.X2, b.X2) - math.Max(a.X1, b.X1)
	ih := math.Min(a.Y2, b.Y2) - math.Max(a.Y1, b.Y1)
	if iw <= 0 || ih <= 0 {
		return 0
	}

	inter := iw * ih
	union := a.Width()*a.Height() + b.Width()*b.Height() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
