package dto

// HealthData reports the server state. Directory fields are null until a
// dataset is selected.
type HealthData struct {
	Status        string  `json:"status"`
	DataDir       *string `json:"data_dir"`
	ImagesDir     *string `json:"images_dir"`
	LabelsDir     *string `json:"labels_dir"`
	DirectorySet  bool    `json:"directory_set"`
	DetectorReady bool    `json:"detector_ready"`
	Clients       int     `json:"clients"`
}
