package repository

import (
	"annotator/internal/model"
	"annotator/internal/yolo"
)

// ImageRepository defines the interface for image index operations.
type ImageRepository interface {
	// Create operations
	Insert(img *model.Image) (int64, error)
	BulkInsert(images []model.Image) error

	// Read operations
	GetByFilename(filename string) (*model.Image, error)
	GetAll(filter *model.ImageFilter) ([]model.Image, error)
	GetTotalCount(filter *model.ImageFilter) (int, error)
	GetStats() (*model.ImageStats, error)

	// Update operations
	UpdateLabelState(id int64, hasLabels bool, labelCount int) error

	// Delete operations
	DeleteAll() error
}

// AnnotationRepository defines the interface for indexed label lines.
type AnnotationRepository interface {
	// Write operations
	ReplaceForImage(imageID int64, anns []yolo.Annotation) error

	// Read operations
	GetByImageID(imageID int64) ([]model.Annotation, error)
	ClassCounts() (map[int]int, error)

	// Delete operations
	DeleteByImageID(imageID int64) error
}
