// ImagesData is the response payload of the image list.
package dto

type ImagesData struct {
	Images  []ImageInfo    `json:"images"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	Limit   int            `json:"limit"`
	Classes map[int]string `json:"classes"`
}

// ImageInfo describes one image of the active dataset.
type ImageInfo struct {
	Filename   string `json:"filename"`
	Path       string `json:"path"`
	Kind       string `json:"kind"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	HasLabels  bool   `json:"has_labels"`
	LabelCount int    `json:"label_count"`
}
