package sqlite

import (
	"database/sql"
	"fmt"

	"annotator/internal/model"
	"annotator/internal/yolo"
)

// AnnotationRepository implements repository.AnnotationRepository for SQLite.
type AnnotationRepository struct {
	db *DB
}

// NewAnnotationRepository creates a new SQLite annotation repository.
func NewAnnotationRepository(db *DB) *AnnotationRepository {
	return &AnnotationRepository{db: db}
}

// ReplaceForImage swaps the image's annotations for anns in one transaction.
func (r *AnnotationRepository) ReplaceForImage(imageID int64, anns []yolo.Annotation) error {
	return r.db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM annotations WHERE image_id = ?`, imageID); err != nil {
			return fmt.Errorf("failed to delete annotations: %w", err)
		}
		if len(anns) == 0 {
			return nil
		}

		stmt, err := tx.Prepare(`
			INSERT INTO annotations (image_id, class_id, cx, cy, w, h)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, a := range anns {
			if _, err := stmt.Exec(imageID, a.ClassID, a.CX, a.CY, a.W, a.H); err != nil {
				return fmt.Errorf("failed to insert annotation: %w", err)
			}
		}
		return nil
	})
}

// GetByImageID retrieves all annotations for an image in insertion order.
func (r *AnnotationRepository) GetByImageID(imageID int64) ([]model.Annotation, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, image_id, class_id, cx, cy, w, h
		FROM annotations WHERE image_id = ? ORDER BY id
	`, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer rows.Close()

	var anns []model.Annotation
	for rows.Next() {
		var a model.Annotation
		if err := rows.Scan(&a.ID, &a.ImageID, &a.ClassID, &a.CX, &a.CY, &a.W, &a.H); err != nil {
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		anns = append(anns, a)
	}

	return anns, rows.Err()
}

// ClassCounts returns the number of annotations per class id.
func (r *AnnotationRepository) ClassCounts() (map[int]int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT class_id, COUNT(*) FROM annotations GROUP BY class_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query class counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var classID, count int
		if err := rows.Scan(&classID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan class count: %w", err)
		}
		counts[classID] = count
	}

	return counts, rows.Err()
}

// DeleteByImageID removes all annotations for a specific image.
func (r *AnnotationRepository) DeleteByImageID(imageID int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM annotations WHERE image_id = ?`, imageID); err != nil {
		return fmt.Errorf("failed to delete annotations: %w", err)
	}
	return nil
}
