package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutoring-api/internal/dto"
	"github.com/noah-isme/tutoring-api/internal/models"
	"github.com/noah-isme/tutoring-api/internal/timetable"
	appErrors "github.com/noah-isme/tutoring-api/pkg/errors"
)

func TestEnsureCommitmentsProvisionsAllAvailable(t *testing.T) {
	repo := newMockAvailabilityRepo()
	svc := NewAvailabilityService(repo, mondayGrid(t), nil, nil)

	rec, err := svc.EnsureCommitments(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)

	states, err := rec.DecodeSlots()
	require.NoError(t, err)
	require.Len(t, states, 4)
	for slot, state := range states {
		assert.True(t, state.Free, "slot %s should start free", slot)
		assert.Empty(t, state.ExpiresOn)
	}

	again, err := svc.EnsureCommitments(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, again.ID)
}

func TestEffectiveTruthTable(t *testing.T) {
	grid := mondayGrid(t)

	cases := []struct {
		name string
		free bool
		busy bool
		want bool
	}{
		{"free and not busy", true, false, true},
		{"free but busy", true, true, false},
		{"not free and not busy", false, false, false},
		{"not free and busy", false, true, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMockAvailabilityRepo()
			repo.seed(t, "user-1", models.KindFreeTime, map[timetable.Slot]models.SlotState{
				"M1": {Free: tc.free},
			})
			busyState := models.SlotState{Free: true}
			if tc.busy {
				busyState = models.SlotState{Free: false, ExpiresOn: "2030-01-07"}
			}
			repo.seed(t, "user-1", models.KindCommitment, map[timetable.Slot]models.SlotState{
				"M1": busyState,
			})

			svc := NewAvailabilityService(repo, grid, nil, nil)
			effective, err := svc.Effective(context.Background(), "user-1")
			require.NoError(t, err)
			assert.Equal(t, tc.want, effective["M1"])
		})
	}
}

func TestEffectiveWithoutScheduleIsUnmatchable(t *testing.T) {
	repo := newMockAvailabilityRepo()
	svc := NewAvailabilityService(repo, mondayGrid(t), nil, nil)

	effective, err := svc.Effective(context.Background(), "ghost")
	require.NoError(t, err)
	require.Len(t, effective, 4)
	for slot, ok := range effective {
		assert.False(t, ok, "slot %s must not be matchable", slot)
	}
}

func TestSubmitScheduleProvisionsCommitments(t *testing.T) {
	repo := newMockAvailabilityRepo()
	svc := NewAvailabilityService(repo, mondayGrid(t), nil, nil)

	err := svc.SubmitSchedule(context.Background(), "user-1", dto.ScheduleRequest{
		Free: map[timetable.Slot]bool{"M1": true, "MA": true},
	})
	require.NoError(t, err)

	free := repo.states(t, "user-1", models.KindFreeTime)
	assert.True(t, free["M1"].Free)
	assert.True(t, free["MA"].Free)
	assert.False(t, free["MB"].Free)
	assert.False(t, free["M2"].Free)

	busy := repo.states(t, "user-1", models.KindCommitment)
	require.Len(t, busy, 4)
	for _, state := range busy {
		assert.True(t, state.Free)
	}
}

func TestSubmitScheduleRejectsUnknownSlot(t *testing.T) {
	repo := newMockAvailabilityRepo()
	svc := NewAvailabilityService(repo, mondayGrid(t), nil, nil)

	err := svc.SubmitSchedule(context.Background(), "user-1", dto.ScheduleRequest{
		Free: map[timetable.Slot]bool{"Z9": true},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnknownSlot.Code, appErrors.FromError(err).Code)
}

func TestSubmitScheduleSupersedesPriorRecord(t *testing.T) {
	repo := newMockAvailabilityRepo()
	svc := NewAvailabilityService(repo, mondayGrid(t), nil, nil)

	require.NoError(t, svc.SubmitSchedule(context.Background(), "user-1", dto.ScheduleRequest{
		Free: map[timetable.Slot]bool{"M1": true},
	}))
	require.NoError(t, svc.SubmitSchedule(context.Background(), "user-1", dto.ScheduleRequest{
		Free: map[timetable.Slot]bool{"M2": true},
	}))

	free := repo.states(t, "user-1", models.KindFreeTime)
	assert.False(t, free["M1"].Free, "old grid must not leak through")
	assert.True(t, free["M2"].Free)
}

func TestScheduleViewOrder(t *testing.T) {
	repo := newMockAvailabilityRepo()
	svc := NewAvailabilityService(repo, mondayGrid(t), nil, nil)

	require.NoError(t, svc.SubmitSchedule(context.Background(), "user-1", dto.ScheduleRequest{
		Free: map[timetable.Slot]bool{"M1": true},
	}))

	view, err := svc.Schedule(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, view.Set)
	require.Len(t, view.Slots, 4)
	assert.Equal(t, timetable.Slot("MB"), view.Slots[0].Slot)
	assert.Equal(t, "Monday Before", view.Slots[0].Label)
	assert.Equal(t, timetable.Slot("M1"), view.Slots[1].Slot)
	assert.True(t, view.Slots[1].Free)
	assert.Equal(t, timetable.Slot("MA"), view.Slots[3].Slot)
}
