package storage

import (
	"os"
	"path/filepath"
	"sort"
)

// Candidate is a directory that looks like a dataset.
type Candidate struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	Parent      string `json:"parent"`
	ImagesCount int    `json:"images_count"`
	LabelsCount int    `json:"labels_count"`
	HasLabels   bool   `json:"has_labels"`
	FileTypes   string `json:"file_types,omitempty"`
}

// DefaultBases returns the common places datasets live under home.
func DefaultBases(home string) []string {
	return []string{
		filepath.Join(home, "Desktop"),
		filepath.Join(home, "Documents"),
		filepath.Join(home, "Documents", "Work"),
		filepath.Join(home, "Documents", "Work", "data"),
		filepath.Join(home, "Documents", "Work", "train_yolo"),
	}
}

// Browse scans the direct children of each base for dataset directories.
// Missing or unreadable bases are skipped.
func Browse(bases []string) []Candidate {
	seen := make(map[string]bool)
	candidates := []Candidate{}

	for _, base := range bases {
		entries, err := os.ReadDir(base)
		if err != nil {
			continue
		}

		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			path := filepath.Join(base, e.Name())
			if seen[path] {
				continue
			}

			c, ok := inspect(path)
			if !ok {
				continue
			}
			c.Parent = base
			seen[path] = true
			candidates = append(candidates, c)
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Path < candidates[j].Path })
	return candidates
}

func inspect(path string) (Candidate, bool) {
	d := &Dataset{
		Root:      path,
		ImagesDir: filepath.Join(path, ImagesDirName),
		LabelsDir: filepath.Join(path, LabelsDirName),
	}

	counts, err := d.Counts()
	if err != nil || counts.Total() == 0 {
		return Candidate{}, false
	}

	labels := d.LabelFileCount()
	return Candidate{
		Path:        path,
		Name:        filepath.Base(path),
		ImagesCount: counts.Total(),
		LabelsCount: labels,
		HasLabels:   labels > 0,
		FileTypes:   counts.Summary(),
	}, true
}
