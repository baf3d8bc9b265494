package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutoring-api/internal/models"
	"github.com/noah-isme/tutoring-api/internal/timetable"
)

func TestAvailabilityRepositoryGetByUserAndKind(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "kind", "slots", "created_at", "updated_at"}).
		AddRow("rec-1", "user-1", 1, `{"M1":{"free":true}}`, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, kind, slots, created_at, updated_at FROM availability_records WHERE user_id = $1 AND kind = $2")).
		WithArgs("user-1", models.KindCommitment).
		WillReturnRows(rows)

	rec, err := repo.GetByUserAndKind(context.Background(), "user-1", models.KindCommitment)
	require.NoError(t, err)
	assert.Equal(t, "rec-1", rec.ID)

	states, err := rec.DecodeSlots()
	require.NoError(t, err)
	assert.True(t, states[timetable.Slot("M1")].Free)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryReplaceSupersedes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM availability_records WHERE user_id = ").
		WithArgs("user-1", models.KindFreeTime).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO availability_records").
		WithArgs(sqlmock.AnyArg(), "user-1", models.KindFreeTime, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rec, err := models.NewFreeTimeRecord("user-1", []timetable.Slot{"M1", "M2"})
	require.NoError(t, err)
	require.NoError(t, repo.Replace(context.Background(), rec))
	assert.NotEmpty(t, rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryListByKind(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "kind", "slots", "created_at", "updated_at"}).
		AddRow("rec-1", "user-1", 1, `{}`, now, now).
		AddRow("rec-2", "user-2", 1, `{}`, now, now)
	mock.ExpectQuery("SELECT .* FROM availability_records WHERE kind = ").
		WithArgs(models.KindCommitment).
		WillReturnRows(rows)

	recs, err := repo.ListByKind(context.Background(), models.KindCommitment)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
