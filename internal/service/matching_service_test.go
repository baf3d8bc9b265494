package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutoring-api/internal/dto"
	"github.com/noah-isme/tutoring-api/internal/models"
	"github.com/noah-isme/tutoring-api/internal/timetable"
	"github.com/noah-isme/tutoring-api/pkg/config"
	appErrors "github.com/noah-isme/tutoring-api/pkg/errors"
)

var mathTaxonomy = config.SubjectsConfig{
	Categories: []config.SubjectCategory{
		{Name: "math", Subjects: []string{"Algebra", "Calculus"}},
	},
}

type matchFixture struct {
	availability *mockAvailabilityRepo
	users        *mockUserRepo
	capabilities *mockCapabilityRepo
	proposals    *mockProposalStore
	svc          *MatchingService
}

func newMatchFixture(t *testing.T, grid *timetable.Grid, now time.Time, users ...*models.User) *matchFixture {
	t.Helper()
	f := &matchFixture{
		availability: newMockAvailabilityRepo(),
		users:        newMockUserRepo(users...),
		capabilities: newMockCapabilityRepo(),
		proposals:    newMockProposalStore(),
	}
	availability := NewAvailabilityService(f.availability, grid, nil, nil)
	f.svc = NewMatchingService(
		f.users, f.capabilities, f.proposals, availability, grid,
		mathTaxonomy,
		config.MatchingConfig{DisplayTutorName: true, ProposalTTL: time.Minute},
		nil, nil, nil,
	)
	f.svc.now = func() time.Time { return now }
	return f
}

func (f *matchFixture) makeFree(t *testing.T, userID string, slots ...timetable.Slot) {
	t.Helper()
	states := map[timetable.Slot]models.SlotState{}
	for _, s := range slots {
		states[s] = models.SlotState{Free: true}
	}
	f.availability.seed(t, userID, models.KindFreeTime, states)
}

func TestMatchProposesSharedSlot(t *testing.T) {
	grid := mondayGrid(t)
	// A Wednesday, so Monday slots are fair game.
	now := time.Date(2024, time.January, 3, 10, 0, 0, 0, time.UTC)
	f := newMatchFixture(t, grid, now,
		&models.User{ID: "student-1", Username: "sam", Role: models.RoleStudent},
		&models.User{ID: "tutor-1", Username: "tess", Role: models.RoleTutor},
	)
	f.makeFree(t, "student-1", "M1")
	f.makeFree(t, "tutor-1", "M1")
	f.capabilities.seed(t, "tutor-1", map[string]bool{"Algebra": true})

	resp, err := f.svc.Match(context.Background(), "student-1", dto.MatchRequest{Subject: "Algebra"})
	require.NoError(t, err)
	require.Len(t, resp.Proposals, 1)

	p := resp.Proposals[0]
	assert.Equal(t, timetable.Slot("M1"), p.Slot)
	assert.Equal(t, "tutor-1", p.TutorID)
	assert.Equal(t, "tess", p.TutorName)
	assert.Equal(t, "tess, Monday 1st", p.DisplayLabel)
	assert.Equal(t, "Algebra", p.Subject)

	held, ok := f.proposals.held["student-1"]
	require.True(t, ok, "proposals must be held for selection")
	assert.Equal(t, resp.Proposals, held)
}

func TestMatchExcludesTodaysWeekday(t *testing.T) {
	grid := mondayGrid(t)
	// Matching on a Monday: Monday slots are off the table.
	now := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)
	f := newMatchFixture(t, grid, now,
		&models.User{ID: "student-1", Username: "sam", Role: models.RoleStudent},
		&models.User{ID: "tutor-1", Username: "tess", Role: models.RoleTutor},
	)
	f.makeFree(t, "student-1", "M1")
	f.makeFree(t, "tutor-1", "M1")
	f.capabilities.seed(t, "tutor-1", map[string]bool{"Algebra": true})

	resp, err := f.svc.Match(context.Background(), "student-1", dto.MatchRequest{Subject: "Algebra"})
	require.NoError(t, err)
	assert.Empty(t, resp.Proposals)
	assert.NotEmpty(t, resp.Message)
}

func TestMatchPrefersLowerBusinessRatio(t *testing.T) {
	grid := fullWeekGrid(t)
	now := time.Date(2024, time.January, 3, 10, 0, 0, 0, time.UTC)
	f := newMatchFixture(t, grid, now,
		&models.User{ID: "student-1", Username: "sam", Role: models.RoleStudent},
		&models.User{ID: "tutor-light", Username: "lena", Role: models.RoleTutor},
		&models.User{ID: "tutor-loaded", Username: "lou", Role: models.RoleTutor},
	)
	f.makeFree(t, "student-1", "M1")
	f.makeFree(t, "tutor-light", "M1", "M2")
	f.makeFree(t, "tutor-loaded", "M1", "M2")
	f.capabilities.seed(t, "tutor-light", map[string]bool{"Algebra": true})
	f.capabilities.seed(t, "tutor-loaded", map[string]bool{"Algebra": true})

	// Load up one tutor elsewhere so the ratios differ.
	f.availability.seed(t, "tutor-loaded", models.KindCommitment, map[timetable.Slot]models.SlotState{
		"T1": {Free: false, ExpiresOn: "2030-01-07"},
		"T2": {Free: false, ExpiresOn: "2030-01-07"},
	})

	for i := 0; i < 20; i++ {
		resp, err := f.svc.Match(context.Background(), "student-1", dto.MatchRequest{Subject: "Algebra"})
		require.NoError(t, err)
		require.Len(t, resp.Proposals, 1)
		assert.Equal(t, "tutor-light", resp.Proposals[0].TutorID, "lower ratio must always win")
	}
}

func TestMatchOneTutorPerSlot(t *testing.T) {
	grid := mondayGrid(t)
	now := time.Date(2024, time.January, 3, 10, 0, 0, 0, time.UTC)
	f := newMatchFixture(t, grid, now,
		&models.User{ID: "student-1", Username: "sam", Role: models.RoleStudent},
		&models.User{ID: "tutor-1", Username: "tess", Role: models.RoleTutor},
		&models.User{ID: "tutor-2", Username: "theo", Role: models.RoleTutor},
	)
	f.makeFree(t, "student-1", "M1", "M2")
	f.makeFree(t, "tutor-1", "M1", "M2")
	f.makeFree(t, "tutor-2", "M1", "M2")
	f.capabilities.seed(t, "tutor-1", map[string]bool{"Algebra": true})
	f.capabilities.seed(t, "tutor-2", map[string]bool{"Algebra": true})

	resp, err := f.svc.Match(context.Background(), "student-1", dto.MatchRequest{Subject: "Algebra"})
	require.NoError(t, err)

	seen := map[timetable.Slot]int{}
	for _, p := range resp.Proposals {
		seen[p.Slot]++
	}
	for slot, n := range seen {
		assert.Equal(t, 1, n, "slot %s must have exactly one proposal", slot)
	}
	assert.Len(t, resp.Proposals, 2)
}

func TestMatchExcludesRequesterAndNonTeachers(t *testing.T) {
	grid := mondayGrid(t)
	now := time.Date(2024, time.January, 3, 10, 0, 0, 0, time.UTC)
	f := newMatchFixture(t, grid, now,
		&models.User{ID: "student-1", Username: "sam", Role: models.RoleTutor},
		&models.User{ID: "tutor-1", Username: "tess", Role: models.RoleTutor},
	)
	// The requester is a tutor themselves and would otherwise qualify.
	f.makeFree(t, "student-1", "M1")
	f.capabilities.seed(t, "student-1", map[string]bool{"Algebra": true})
	// The other tutor teaches a different subject.
	f.makeFree(t, "tutor-1", "M1")
	f.capabilities.seed(t, "tutor-1", map[string]bool{"Calculus": true})

	resp, err := f.svc.Match(context.Background(), "student-1", dto.MatchRequest{Subject: "Algebra"})
	require.NoError(t, err)
	assert.Empty(t, resp.Proposals)
}

func TestMatchRequiresSubmittedSchedule(t *testing.T) {
	grid := mondayGrid(t)
	f := newMatchFixture(t, grid, time.Now(),
		&models.User{ID: "student-1", Username: "sam", Role: models.RoleStudent},
	)

	_, err := f.svc.Match(context.Background(), "student-1", dto.MatchRequest{Subject: "Algebra"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScheduleNotSet.Code, appErrors.FromError(err).Code)
}

func TestMatchRejectsUnknownSubject(t *testing.T) {
	grid := mondayGrid(t)
	f := newMatchFixture(t, grid, time.Now(),
		&models.User{ID: "student-1", Username: "sam", Role: models.RoleStudent},
	)

	_, err := f.svc.Match(context.Background(), "student-1", dto.MatchRequest{Subject: "Alchemy"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnknownSubject.Code, appErrors.FromError(err).Code)
}

func TestBusinessRatioSeedsDenominator(t *testing.T) {
	grid := mondayGrid(t)
	f := newMatchFixture(t, grid, time.Now(),
		&models.User{ID: "tutor-1", Username: "tess", Role: models.RoleTutor},
	)
	f.makeFree(t, "tutor-1", "M1", "M2")
	f.availability.seed(t, "tutor-1", models.KindCommitment, map[timetable.Slot]models.SlotState{
		"M1": {Free: false, ExpiresOn: "2030-01-07"},
	})

	ratio, err := f.svc.BusinessRatio(context.Background(), "tutor-1")
	require.NoError(t, err)
	// One busy slot over two free slots plus the seed.
	assert.InDelta(t, 1.0/3.0, ratio, 1e-9)
}
