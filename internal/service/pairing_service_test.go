package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/tutoring-api/internal/dto"
	"github.com/noah-isme/tutoring-api/internal/models"
	"github.com/noah-isme/tutoring-api/pkg/config"
	appErrors "github.com/noah-isme/tutoring-api/pkg/errors"
	"github.com/noah-isme/tutoring-api/pkg/mail"
)

type pairingFixture struct {
	availability *mockAvailabilityRepo
	pairings     *mockPairingRepo
	proposals    *mockProposalStore
	mailer       *mail.ConsoleMailer
	svc          *PairingService
}

func newPairingFixture(t *testing.T, now time.Time) *pairingFixture {
	t.Helper()
	grid := mondayGrid(t)
	f := &pairingFixture{
		availability: newMockAvailabilityRepo(),
		pairings:     newMockPairingRepo(),
		proposals:    newMockProposalStore(),
		mailer:       mail.NewConsoleMailer(config.MailConfig{ServiceName: "Tutoring"}, zap.NewNop()),
	}
	users := newMockUserRepo(
		&models.User{ID: "student-1", Username: "sam", Email: "sam@school.test", Role: models.RoleStudent},
		&models.User{ID: "tutor-1", Username: "tess", Email: "tess@school.test", Role: models.RoleTutor},
	)
	expirations := newExpirationService(t, f.availability, grid, now)
	f.svc = NewPairingService(
		f.pairings, users, f.proposals, expirations, grid,
		config.MatchingConfig{TutoringHeadEmails: []string{"head@school.test"}},
		f.mailer, nil, nil, nil,
	)
	f.svc.now = func() time.Time { return now }
	return f
}

func heldProposal() dto.MatchProposal {
	return dto.MatchProposal{
		Slot:         "M1",
		DisplayLabel: "tess, Monday 1st",
		TutorID:      "tutor-1",
		TutorName:    "tess",
		Subject:      "Algebra",
	}
}

func TestSelectCommitsBothPartiesAndLogsPairing(t *testing.T) {
	// A Wednesday; the matched Monday slot lands on Jan 8.
	now := time.Date(2024, time.January, 3, 10, 0, 0, 0, time.UTC)
	f := newPairingFixture(t, now)
	f.proposals.held["student-1"] = []dto.MatchProposal{heldProposal()}

	pairing, err := f.svc.Select(context.Background(), "student-1", dto.SelectRequest{Slot: "M1"})
	require.NoError(t, err)

	assert.Equal(t, "student-1", pairing.Student)
	assert.Equal(t, "tutor-1", pairing.Tutor)
	assert.Equal(t, "Algebra", pairing.Subject)
	assert.Equal(t, "Monday", pairing.Day)
	assert.Equal(t, 1, pairing.Period)
	assert.True(t, pairing.Active)
	assert.Equal(t, time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC), pairing.Date)

	for _, userID := range []string{"student-1", "tutor-1"} {
		states := f.availability.states(t, userID, models.KindCommitment)
		assert.False(t, states["M1"].Free, "%s must be committed at M1", userID)
		assert.Equal(t, "2024-01-15", states["M1"].ExpiresOn)
	}

	assert.Contains(t, f.proposals.cleared, "student-1")

	sent := f.mailer.Sent()
	require.Len(t, sent, 3)
	recipients := []string{}
	for _, msg := range sent {
		recipients = append(recipients, strings.Join(msg.To, ","))
	}
	assert.Contains(t, recipients, "tess@school.test")
	assert.Contains(t, recipients, "sam@school.test")
	assert.Contains(t, recipients, "head@school.test")
}

func TestSelectWithoutHeldProposals(t *testing.T) {
	f := newPairingFixture(t, time.Date(2024, time.January, 3, 10, 0, 0, 0, time.UTC))

	_, err := f.svc.Select(context.Background(), "student-1", dto.SelectRequest{Slot: "M1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrProposalExpired.Code, appErrors.FromError(err).Code)
}

func TestSelectUnknownSlotInHeldSet(t *testing.T) {
	f := newPairingFixture(t, time.Date(2024, time.January, 3, 10, 0, 0, 0, time.UTC))
	f.proposals.held["student-1"] = []dto.MatchProposal{heldProposal()}

	_, err := f.svc.Select(context.Background(), "student-1", dto.SelectRequest{Slot: "M2"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDeactivateOnlyUpcomingPairings(t *testing.T) {
	now := time.Date(2024, time.January, 10, 10, 0, 0, 0, time.UTC)
	f := newPairingFixture(t, now)

	upcoming := &models.Pairing{Student: "student-1", Tutor: "tutor-1",
		Date: now.AddDate(0, 0, 5), Active: true}
	past := &models.Pairing{Student: "student-1", Tutor: "tutor-1",
		Date: now.AddDate(0, 0, -5), Active: true}
	require.NoError(t, f.pairings.Create(context.Background(), upcoming))
	require.NoError(t, f.pairings.Create(context.Background(), past))

	require.NoError(t, f.svc.Deactivate(context.Background(), upcoming.ID))
	assert.False(t, f.pairings.pairings[upcoming.ID].Active)

	err := f.svc.Deactivate(context.Background(), past.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.True(t, f.pairings.pairings[past.ID].Active)
}

func TestExportCSVListsPairings(t *testing.T) {
	now := time.Date(2024, time.January, 10, 10, 0, 0, 0, time.UTC)
	f := newPairingFixture(t, now)
	require.NoError(t, f.pairings.Create(context.Background(), &models.Pairing{
		Student: "sam", Tutor: "tess", Subject: "Algebra",
		Date: time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC),
		Day:  "Monday", Period: 1, Active: true,
	}))

	out, err := f.svc.ExportCSV(context.Background())
	require.NoError(t, err)

	body := string(out)
	assert.Contains(t, body, "Student,Tutor,Subject,Date,Day,Period,Active")
	assert.Contains(t, body, "sam,tess,Algebra,2024-01-08,Monday,1,yes")
}
