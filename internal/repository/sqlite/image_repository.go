package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"annotator/internal/model"
)

const imageColumns = `i.id, i.filename, i.kind, i.width, i.height, i.filepath, i.filesize, i.has_labels, i.label_count, i.indexed_at`

// ImageRepository implements repository.ImageRepository for SQLite.
type ImageRepository struct {
	db *DB
}

// NewImageRepository creates a new SQLite image repository.
func NewImageRepository(db *DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Insert adds a new image record to the index.
func (r *ImageRepository) Insert(img *model.Image) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO images (filename, kind, width, height, filepath, filesize, has_labels, label_count, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, img.Filename, img.Kind, img.Width, img.Height, img.FilePath, img.FileSize, img.HasLabels, img.LabelCount, indexedAt(img))
	if err != nil {
		return 0, fmt.Errorf("failed to insert image: %w", err)
	}

	return result.LastInsertId()
}

// BulkInsert adds many images in one transaction and fills in their IDs.
func (r *ImageRepository) BulkInsert(images []model.Image) error {
	return r.db.withTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO images (filename, kind, width, height, filepath, filesize, has_labels, label_count, indexed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i := range images {
			img := &images[i]
			result, err := stmt.Exec(img.Filename, img.Kind, img.Width, img.Height, img.FilePath, img.FileSize, img.HasLabels, img.LabelCount, indexedAt(img))
			if err != nil {
				return fmt.Errorf("failed to insert image %s: %w", img.Filename, err)
			}
			if img.ID, err = result.LastInsertId(); err != nil {
				return fmt.Errorf("failed to read image id: %w", err)
			}
		}
		return nil
	})
}

// GetByFilename retrieves an image by its filename, or nil when absent.
func (r *ImageRepository) GetByFilename(filename string) (*model.Image, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`SELECT `+imageColumns+` FROM images i WHERE i.filename = ?`, filename)
	img, err := scanImage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return img, nil
}

// GetAll retrieves images based on filter criteria, ordered by filename.
func (r *ImageRepository) GetAll(filter *model.ImageFilter) ([]model.Image, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildImageWhere(filter)
	query := `SELECT ` + imageColumns + ` FROM images i` + where + ` ORDER BY i.filename`

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	images := []model.Image{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, *img)
	}

	return images, rows.Err()
}

// GetTotalCount returns the number of images matching the filter, ignoring
// Limit and Offset.
func (r *ImageRepository) GetTotalCount(filter *model.ImageFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildImageWhere(filter)

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM images i`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}

	return count, nil
}

// GetStats returns statistics about indexed images and annotations.
func (r *ImageRepository) GetStats() (*model.ImageStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &model.ImageStats{
		PerKind:     make(map[string]int),
		ClassCounts: make(map[int]int),
	}

	err := r.db.Conn().QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(has_labels), 0), COALESCE(SUM(filesize), 0) FROM images
	`).Scan(&stats.TotalImages, &stats.LabeledImages, &stats.TotalSizeBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to count images: %w", err)
	}

	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM annotations`).Scan(&stats.TotalAnnotations); err != nil {
		return nil, fmt.Errorf("failed to count annotations: %w", err)
	}

	rows, err := r.db.Conn().Query(`SELECT kind, COUNT(*) FROM images GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to group images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		stats.PerKind[kind] = count
	}

	classRows, err := r.db.Conn().Query(`SELECT class_id, COUNT(*) FROM annotations GROUP BY class_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to group annotations: %w", err)
	}
	defer classRows.Close()

	for classRows.Next() {
		var classID, count int
		if err := classRows.Scan(&classID, &count); err != nil {
			return nil, err
		}
		stats.ClassCounts[classID] = count
	}

	return stats, nil
}

// UpdateLabelState records whether the image has a label file and how many
// annotations it holds.
func (r *ImageRepository) UpdateLabelState(id int64, hasLabels bool, labelCount int) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`UPDATE images SET has_labels = ?, label_count = ?, indexed_at = ? WHERE id = ?`,
		hasLabels, labelCount, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update label state: %w", err)
	}
	return nil
}

// DeleteAll removes all images and their annotations.
func (r *ImageRepository) DeleteAll() error {
	return r.db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM annotations`); err != nil {
			return fmt.Errorf("failed to delete annotations: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM images`); err != nil {
			return fmt.Errorf("failed to delete images: %w", err)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImage(row rowScanner) (*model.Image, error) {
	var img model.Image
	err := row.Scan(&img.ID, &img.Filename, &img.Kind, &img.Width, &img.Height,
		&img.FilePath, &img.FileSize, &img.HasLabels, &img.LabelCount, &img.IndexedAt)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func buildImageWhere(filter *model.ImageFilter) (string, []interface{}) {
	if filter == nil {
		return "", nil
	}

	var conds []string
	var args []interface{}

	if filter.Labeled != nil {
		conds = append(conds, "i.has_labels = ?")
		args = append(args, *filter.Labeled)
	}

	if filter.ClassID != nil {
		conds = append(conds, "EXISTS (SELECT 1 FROM annotations a WHERE a.image_id = i.id AND a.class_id = ?)")
		args = append(args, *filter.ClassID)
	}

	if filter.Kind != "" {
		conds = append(conds, "i.kind = ?")
		args = append(args, filter.Kind)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func indexedAt(img *model.Image) time.Time {
	if img.IndexedAt.IsZero() {
		return time.Now()
	}
	return img.IndexedAt
}
