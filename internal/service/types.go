package service

import (
	"image"

	"annotator/internal/service/storage"
	"annotator/internal/yolo"
)

// BoxInput is a box submitted by the annotation UI, in pixels.
type BoxInput struct {
	ClassID int
	Box     yolo.Box
}

// AnnotationBox is a stored annotation mapped to pixel corners.
type AnnotationBox struct {
	ID        int
	ClassID   int
	ClassName string
	Rect      image.Rectangle
}

// ImageAnnotations holds the annotations of one image. SkippedLines counts
// label lines that could not be parsed and will be lost on the next save.
type ImageAnnotations struct {
	Filename     string
	Width        int
	Height       int
	Boxes        []AnnotationBox
	SkippedLines int
}

// DirectoryResult describes a newly selected dataset.
type DirectoryResult struct {
	Directory      string
	ImagesDir      string
	LabelsDir      string
	ImagesCount    int
	ExistingLabels int
	TotalLabels    int
	FileTypes      storage.FileCounts
	Generation     GenerationResult
}

// GenerationResult counts the outcome of a label generation run.
// Generated counts images that received at least one box; Empty counts
// images written with an empty label file.
type GenerationResult struct {
	Total     int `json:"total"`
	Generated int `json:"generated"`
	Empty     int `json:"empty"`
	Errors    int `json:"errors"`
}

// ClassCount is the number of annotations of one class.
type ClassCount struct {
	ClassID   int    `json:"class_id"`
	ClassName string `json:"class_name"`
	Count     int    `json:"count"`
}

// Stats summarizes the active dataset.
type Stats struct {
	TotalImages       int
	LabeledImages     int
	UnlabeledImages   int
	TotalAnnotations  int
	TotalSizeBytes    int64
	PerKind           map[string]int
	ClassDistribution []ClassCount
	CompletionRate    float64
}

// Health describes the server state.
type Health struct {
	Status        string
	DatasetDir    string
	ImagesDir     string
	LabelsDir     string
	DirectorySet  bool
	DetectorReady bool
	Clients       int
}

// BrowseResult lists dataset candidates.
type BrowseResult struct {
	Directories []storage.Candidate
	Home        string
}
