package dto

// ClassCount is the number of annotations of one class.
type ClassCount struct {
	ClassID   int    `json:"class_id"`
	ClassName string `json:"class_name"`
	Count     int    `json:"count"`
}

// StatsData summarizes annotation progress. NeedsDirectory is set, with all
// counters zero, when no dataset is selected.
type StatsData struct {
	TotalImages       int            `json:"total_images"`
	LabeledImages     int            `json:"labeled_images"`
	UnlabeledImages   int            `json:"unlabeled_images"`
	TotalAnnotations  int            `json:"total_annotations"`
	TotalSizeBytes    int64          `json:"total_size_bytes"`
	PerKind           map[string]int `json:"per_kind,omitempty"`
	ClassDistribution []ClassCount   `json:"class_distribution"`
	CompletionRate    float64        `json:"completion_rate"`
	NeedsDirectory    bool           `json:"needs_directory,omitempty"`
}

// ClassItem is one entry of the ordered class list.
type ClassItem struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type ClassesData struct {
	Classes   map[int]string `json:"classes"`
	ClassList []ClassItem    `json:"class_list"`
}
