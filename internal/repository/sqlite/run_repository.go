package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"faceoverlay/internal/models"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// RunRepository implements repository.RunRepository for SQLite.
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new SQLite run repository.
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// Insert adds a new run record.
func (r *RunRepository) Insert(run *models.Run) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO runs (id, camera, started_at, stopped_at, cycles, idle, inferences, failures, discarded, model_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Camera, run.StartedAt.UTC(), nullTime(run.StoppedAt),
		run.Cycles, run.Idle, run.Inferences, run.Failures, run.Discarded, run.ModelError)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Update stores the counters and stop time of an existing run.
func (r *RunRepository) Update(run *models.Run) error {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		UPDATE runs SET stopped_at = ?, cycles = ?, idle = ?, inferences = ?, failures = ?, discarded = ?, model_error = ?
		WHERE id = ?
	`, nullTime(run.StoppedAt), run.Cycles, run.Idle, run.Inferences, run.Failures, run.Discarded, run.ModelError, run.ID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, run.ID)
	}
	return nil
}

// GetByID retrieves a run by its id.
func (r *RunRepository) GetByID(id string) (*models.Run, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`
		SELECT id, camera, started_at, stopped_at, cycles, idle, inferences, failures, discarded, model_error
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// GetRecent returns up to limit runs, newest first.
func (r *RunRepository) GetRecent(limit int) ([]models.Run, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Conn().Query(`
		SELECT id, camera, started_at, stopped_at, cycles, idle, inferences, failures, discarded, model_error
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []models.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// DeleteAll removes every run.
func (r *RunRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec("DELETE FROM runs"); err != nil {
		return fmt.Errorf("failed to delete runs: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*models.Run, error) {
	var (
		run     models.Run
		stopped sql.NullTime
	)
	err := s.Scan(&run.ID, &run.Camera, &run.StartedAt, &stopped,
		&run.Cycles, &run.Idle, &run.Inferences, &run.Failures, &run.Discarded, &run.ModelError)
	if err != nil {
		return nil, err
	}
	if stopped.Valid {
		t := stopped.Time
		run.StoppedAt = &t
	}
	return &run, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
