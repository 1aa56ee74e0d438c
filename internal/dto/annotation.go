package dto

// AnnotationBox is one bounding box in pixel corners.
type AnnotationBox struct {
	ID        int    `json:"id"`
	ClassID   int    `json:"class_id"`
	ClassName string `json:"class_name"`
	X1        int    `json:"x1"`
	Y1        int    `json:"y1"`
	X2        int    `json:"x2"`
	Y2        int    `json:"y2"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// AnnotationsData lists the boxes of one image. SkippedLines counts label
// lines that could not be parsed.
type AnnotationsData struct {
	Filename     string          `json:"filename"`
	Width        int             `json:"width"`
	Height       int             `json:"height"`
	Annotations  []AnnotationBox `json:"annotations"`
	SkippedLines int             `json:"skipped_lines,omitempty"`
}

// BoxRequest is a box drawn in the UI. Corners may come in any order.
type BoxRequest struct {
	ClassID int     `json:"class_id"`
	X1      float64 `json:"x1"`
	Y1      float64 `json:"y1"`
	X2      float64 `json:"x2"`
	Y2      float64 `json:"y2"`
}

type SaveAnnotationsRequest struct {
	Annotations []BoxRequest `json:"annotations"`
}

type SaveAnnotationsData struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	AnnotationCount int    `json:"annotation_count"`
}
