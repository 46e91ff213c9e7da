package repository

import "faceoverlay/internal/models"

// RunRepository stores the operational record of detection loop runs.
type RunRepository interface {
	// Create operations
	Insert(run *models.Run) error

	// Update operations
	Update(run *models.Run) error

	// Read operations
	GetByID(id string) (*models.Run, error)
	GetRecent(limit int) ([]models.Run, error)

	// Delete operations
	DeleteAll() error
}
