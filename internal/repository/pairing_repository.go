package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutoring-api/internal/models"
)

// PairingRepository persists the append-only pairing log.
type PairingRepository struct {
	db *sqlx.DB
}

// NewPairingRepository creates a new repository instance.
func NewPairingRepository(db *sqlx.DB) *PairingRepository {
	return &PairingRepository{db: db}
}

// Create appends a pairing to the log.
func (r *PairingRepository) Create(ctx context.Context, pairing *models.Pairing) error {
	if pairing.ID == "" {
		pairing.ID = uuid.NewString()
	}
	if pairing.CreatedAt.IsZero() {
		pairing.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO pairings (id, student, tutor, subject, date, day, period, active, created_at)
		VALUES (:id, :student, :tutor, :subject, :date, :day, :period, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pairing); err != nil {
		return fmt.Errorf("create pairing: %w", err)
	}
	return nil
}

// FindByID returns one pairing.
func (r *PairingRepository) FindByID(ctx context.Context, id string) (*models.Pairing, error) {
	const query = `SELECT id, student, tutor, subject, date, day, period, active, created_at FROM pairings WHERE id = $1`
	var pairing models.Pairing
	if err := r.db.GetContext(ctx, &pairing, query, id); err != nil {
		return nil, err
	}
	return &pairing, nil
}

// List returns every pairing, newest first.
func (r *PairingRepository) List(ctx context.Context) ([]models.Pairing, error) {
	const query = `SELECT id, student, tutor, subject, date, day, period, active, created_at FROM pairings ORDER BY date DESC, created_at DESC`
	var pairings []models.Pairing
	if err := r.db.SelectContext(ctx, &pairings, query); err != nil {
		return nil, fmt.Errorf("list pairings: %w", err)
	}
	return pairings, nil
}

// SetActive flips the active flag. Pairings are never deleted.
func (r *PairingRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE pairings SET active = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, active, id); err != nil {
		return fmt.Errorf("update pairing active flag: %w", err)
	}
	return nil
}
