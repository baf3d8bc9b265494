package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutoring-api/internal/models"
)

// AvailabilityRepository handles persistence for availability records,
// keyed by (user, kind).
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates a new repository instance.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// GetByUserAndKind returns the record of the given kind for a user.
func (r *AvailabilityRepository) GetByUserAndKind(ctx context.Context, userID string, kind models.AvailabilityKind) (*models.AvailabilityRecord, error) {
	const query = `SELECT id, user_id, kind, slots, created_at, updated_at FROM availability_records WHERE user_id = $1 AND kind = $2`
	var rec models.AvailabilityRecord
	if err := r.db.GetContext(ctx, &rec, query, userID, kind); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create persists a new availability record.
func (r *AvailabilityRepository) Create(ctx context.Context, rec *models.AvailabilityRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	const query = `INSERT INTO availability_records (id, user_id, kind, slots, created_at, updated_at)
		VALUES (:id, :user_id, :kind, :slots, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("create availability record: %w", err)
	}
	return nil
}

// UpdateSlots stores the record's slot payload.
func (r *AvailabilityRepository) UpdateSlots(ctx context.Context, rec *models.AvailabilityRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	const query = `UPDATE availability_records SET slots = :slots, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("update availability record: %w", err)
	}
	return nil
}

// Replace removes any prior record of the same (user, kind) and inserts
// the new one. Schedule edits supersede rather than patch.
func (r *AvailabilityRepository) Replace(ctx context.Context, rec *models.AvailabilityRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace availability: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM availability_records WHERE user_id = $1 AND kind = $2`, rec.UserID, rec.Kind); err != nil {
		return fmt.Errorf("delete prior availability record: %w", err)
	}

	const insert = `INSERT INTO availability_records (id, user_id, kind, slots, created_at, updated_at)
		VALUES (:id, :user_id, :kind, :slots, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, rec); err != nil {
		return fmt.Errorf("insert availability record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace availability: %w", err)
	}
	return nil
}

// ListByKind returns every record of the given kind. Used by the daily
// sweep over commitment records.
func (r *AvailabilityRepository) ListByKind(ctx context.Context, kind models.AvailabilityKind) ([]models.AvailabilityRecord, error) {
	const query = `SELECT id, user_id, kind, slots, created_at, updated_at FROM availability_records WHERE kind = $1 ORDER BY user_id`
	var recs []models.AvailabilityRecord
	if err := r.db.SelectContext(ctx, &recs, query, kind); err != nil {
		return nil, fmt.Errorf("list availability records: %w", err)
	}
	return recs, nil
}
