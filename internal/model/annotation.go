package model

import "annotator/internal/yolo"

// Annotation is an indexed label line belonging to an image.
type Annotation struct {
	ID      int64 `json:"id"`
	ImageID int64 `json:"image_id"`
	yolo.Annotation
}
