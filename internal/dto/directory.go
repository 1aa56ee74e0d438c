package dto

import "annotator/internal/service/storage"

// SetDirectoryRequest selects a dataset. AutoGenerate defaults to true when
// omitted.
type SetDirectoryRequest struct {
	Directory    string `json:"directory"`
	AutoGenerate *bool  `json:"auto_generate"`
}

// SetDirectoryData is returned after a dataset was selected.
type SetDirectoryData struct {
	Success          bool               `json:"success"`
	Directory        string             `json:"directory"`
	ImagesDir        string             `json:"images_dir"`
	LabelsDir        string             `json:"labels_dir"`
	ImagesCount      int                `json:"images_count"`
	ExistingLabels   int                `json:"existing_labels"`
	GeneratedLabels  int                `json:"generated_labels"`
	EmptyLabels      int                `json:"empty_labels"`
	GenerationErrors int                `json:"generation_errors"`
	TotalLabels      int                `json:"total_labels"`
	FileTypes        storage.FileCounts `json:"file_types"`
}

type BrowseData struct {
	Directories []storage.Candidate `json:"directories"`
	Home        string              `json:"home"`
}
