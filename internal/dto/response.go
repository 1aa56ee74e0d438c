package dto

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error          string `json:"error"`
	NeedsDirectory bool   `json:"needs_directory,omitempty"`
}

// GenerationData reports a label generation run.
type GenerationData struct {
	Success   bool `json:"success"`
	Total     int  `json:"total"`
	Generated int  `json:"generated"`
	Empty     int  `json:"empty"`
	Errors    int  `json:"errors"`
}

type ReindexData struct {
	Success bool `json:"success"`
	Indexed int  `json:"indexed"`
}
