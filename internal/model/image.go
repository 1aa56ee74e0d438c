package model

import "time"

// Image is an indexed image of the active dataset.
type Image struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	Kind       string    `json:"kind"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	FilePath   string    `json:"filepath"`
	FileSize   int64     `json:"filesize"`
	HasLabels  bool      `json:"has_labels"`
	LabelCount int       `json:"label_count"`
	IndexedAt  time.Time `json:"indexed_at"`
}

// ImageFilter contains filtering options for querying images.
// Nil pointers and empty strings leave the criterion unset.
type ImageFilter struct {
	Labeled *bool
	ClassID *int
	Kind    string
	Limit   int
	Offset  int
}

// ImageStats contains statistics about the indexed dataset.
type ImageStats struct {
	TotalImages      int            `json:"total_images"`
	LabeledImages    int            `json:"labeled_images"`
	TotalAnnotations int            `json:"total_annotations"`
	TotalSizeBytes   int64          `json:"total_size_bytes"`
	PerKind          map[string]int `json:"per_kind"`
	ClassCounts      map[int]int    `json:"class_counts"`
}
