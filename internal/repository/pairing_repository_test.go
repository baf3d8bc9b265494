package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutoring-api/internal/models"
)

func TestPairingRepositoryCreateAndList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPairingRepository(db)

	date := time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO pairings").
		WithArgs(sqlmock.AnyArg(), "alice", "bob", "Calculus", date, "Monday", 3, true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	pairing := &models.Pairing{
		Student: "alice",
		Tutor:   "bob",
		Subject: "Calculus",
		Date:    date,
		Day:     "Monday",
		Period:  3,
		Active:  true,
	}
	require.NoError(t, repo.Create(context.Background(), pairing))
	assert.NotEmpty(t, pairing.ID)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student", "tutor", "subject", "date", "day", "period", "active", "created_at"}).
		AddRow(pairing.ID, "alice", "bob", "Calculus", date, "Monday", 3, true, now)
	mock.ExpectQuery("SELECT .* FROM pairings ORDER BY date DESC").
		WillReturnRows(rows)

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "bob", list[0].Tutor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPairingRepositorySetActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPairingRepository(db)

	mock.ExpectExec("UPDATE pairings SET active = ").
		WithArgs(false, "pair-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetActive(context.Background(), "pair-1", false))
	assert.NoError(t, mock.ExpectationsWereMet())
}
