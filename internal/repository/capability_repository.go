package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutoring-api/internal/models"
)

// CapabilityRepository handles persistence for subject capabilities.
type CapabilityRepository struct {
	db *sqlx.DB
}

// NewCapabilityRepository creates a new repository instance.
func NewCapabilityRepository(db *sqlx.DB) *CapabilityRepository {
	return &CapabilityRepository{db: db}
}

// GetByUser returns a tutor's capability record.
func (r *CapabilityRepository) GetByUser(ctx context.Context, userID string) (*models.SubjectCapability, error) {
	const query = `SELECT id, user_id, subjects, created_at, updated_at FROM subject_capabilities WHERE user_id = $1`
	var cap models.SubjectCapability
	if err := r.db.GetContext(ctx, &cap, query, userID); err != nil {
		return nil, err
	}
	return &cap, nil
}

// Replace deletes any prior capability record for the user and inserts
// the new one, mirroring the whole-form edit semantics.
func (r *CapabilityRepository) Replace(ctx context.Context, cap *models.SubjectCapability) error {
	if cap.ID == "" {
		cap.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if cap.CreatedAt.IsZero() {
		cap.CreatedAt = now
	}
	cap.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace capability: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM subject_capabilities WHERE user_id = $1`, cap.UserID); err != nil {
		return fmt.Errorf("delete prior capability: %w", err)
	}

	const insert = `INSERT INTO subject_capabilities (id, user_id, subjects, created_at, updated_at)
		VALUES (:id, :user_id, :subjects, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, cap); err != nil {
		return fmt.Errorf("insert capability: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace capability: %w", err)
	}
	return nil
}
