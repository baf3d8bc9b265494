package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutoring-api/internal/dto"
	"github.com/noah-isme/tutoring-api/internal/models"
	"github.com/noah-isme/tutoring-api/internal/timetable"
	"github.com/noah-isme/tutoring-api/pkg/config"
)

// mondayGrid is a single school day with two periods: slots MB, M1,
// M2, MA.
func mondayGrid(t *testing.T) *timetable.Grid {
	t.Helper()
	grid, err := timetable.New(config.ScheduleConfig{
		DayPeriods:  [7]int{2, 0, 0, 0, 0, 0, 0},
		PeriodNames: []string{"1st", "2nd"},
	})
	require.NoError(t, err)
	return grid
}

func fullWeekGrid(t *testing.T) *timetable.Grid {
	t.Helper()
	grid, err := timetable.New(config.ScheduleConfig{
		DayPeriods:  [7]int{2, 2, 0, 0, 0, 0, 0},
		PeriodNames: []string{"1st", "2nd"},
	})
	require.NoError(t, err)
	return grid
}

type recordKey struct {
	userID string
	kind   models.AvailabilityKind
}

type mockAvailabilityRepo struct {
	records map[recordKey]*models.AvailabilityRecord
	nextID  int
}

func newMockAvailabilityRepo() *mockAvailabilityRepo {
	return &mockAvailabilityRepo{records: make(map[recordKey]*models.AvailabilityRecord)}
}

func (m *mockAvailabilityRepo) GetByUserAndKind(_ context.Context, userID string, kind models.AvailabilityKind) (*models.AvailabilityRecord, error) {
	if rec, ok := m.records[recordKey{userID, kind}]; ok {
		clone := *rec
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAvailabilityRepo) Create(_ context.Context, rec *models.AvailabilityRecord) error {
	m.nextID++
	rec.ID = fmt.Sprintf("rec-%d", m.nextID)
	clone := *rec
	m.records[recordKey{rec.UserID, rec.Kind}] = &clone
	return nil
}

func (m *mockAvailabilityRepo) UpdateSlots(_ context.Context, rec *models.AvailabilityRecord) error {
	clone := *rec
	m.records[recordKey{rec.UserID, rec.Kind}] = &clone
	return nil
}

func (m *mockAvailabilityRepo) Replace(_ context.Context, rec *models.AvailabilityRecord) error {
	return m.Create(context.Background(), rec)
}

func (m *mockAvailabilityRepo) ListByKind(_ context.Context, kind models.AvailabilityKind) ([]models.AvailabilityRecord, error) {
	var out []models.AvailabilityRecord
	for key, rec := range m.records {
		if key.kind == kind {
			out = append(out, *rec)
		}
	}
	return out, nil
}

// seed writes a record with the given slot states directly.
func (m *mockAvailabilityRepo) seed(t *testing.T, userID string, kind models.AvailabilityKind, states map[timetable.Slot]models.SlotState) {
	t.Helper()
	rec := &models.AvailabilityRecord{UserID: userID, Kind: kind}
	require.NoError(t, rec.EncodeSlots(states))
	require.NoError(t, m.Create(context.Background(), rec))
}

func (m *mockAvailabilityRepo) states(t *testing.T, userID string, kind models.AvailabilityKind) map[timetable.Slot]models.SlotState {
	t.Helper()
	rec, ok := m.records[recordKey{userID, kind}]
	require.True(t, ok, "no record for %s kind %d", userID, kind)
	states, err := rec.DecodeSlots()
	require.NoError(t, err)
	return states
}

type mockUserRepo struct {
	users     map[string]*models.User
	roles     map[string]models.Role
	passwords map[string]string
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	m := &mockUserRepo{
		users:     make(map[string]*models.User),
		roles:     make(map[string]models.Role),
		passwords: make(map[string]string),
	}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) Create(_ context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "user-" + user.Username
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == models.NormalizeUsername(username) {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) ListWithMinRole(_ context.Context, min models.Role) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if u.Role.AtLeast(min) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) UpdateRole(_ context.Context, id string, role models.Role) error {
	m.roles[id] = role
	if u, ok := m.users[id]; ok {
		u.Role = role
	}
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	m.passwords[id] = passwordHash
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

type mockCapabilityRepo struct {
	records map[string]*models.SubjectCapability
}

func newMockCapabilityRepo() *mockCapabilityRepo {
	return &mockCapabilityRepo{records: make(map[string]*models.SubjectCapability)}
}

func (m *mockCapabilityRepo) GetByUser(_ context.Context, userID string) (*models.SubjectCapability, error) {
	if rec, ok := m.records[userID]; ok {
		return rec, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCapabilityRepo) Replace(_ context.Context, cap *models.SubjectCapability) error {
	m.records[cap.UserID] = cap
	return nil
}

func (m *mockCapabilityRepo) seed(t *testing.T, userID string, flags map[string]bool) {
	t.Helper()
	rec := &models.SubjectCapability{UserID: userID}
	require.NoError(t, rec.EncodeSubjects(flags))
	m.records[userID] = rec
}

type mockProposalStore struct {
	held    map[string][]dto.MatchProposal
	cleared []string
}

func newMockProposalStore() *mockProposalStore {
	return &mockProposalStore{held: make(map[string][]dto.MatchProposal)}
}

func (m *mockProposalStore) Save(_ context.Context, userID string, proposals []dto.MatchProposal, _ time.Duration) error {
	m.held[userID] = proposals
	return nil
}

func (m *mockProposalStore) Load(_ context.Context, userID string) ([]dto.MatchProposal, bool, error) {
	proposals, ok := m.held[userID]
	return proposals, ok, nil
}

func (m *mockProposalStore) Clear(_ context.Context, userID string) error {
	delete(m.held, userID)
	m.cleared = append(m.cleared, userID)
	return nil
}

type mockPairingRepo struct {
	pairings map[string]*models.Pairing
	nextID   int
}

func newMockPairingRepo() *mockPairingRepo {
	return &mockPairingRepo{pairings: make(map[string]*models.Pairing)}
}

func (m *mockPairingRepo) Create(_ context.Context, pairing *models.Pairing) error {
	m.nextID++
	pairing.ID = fmt.Sprintf("pair-%d", m.nextID)
	m.pairings[pairing.ID] = pairing
	return nil
}

func (m *mockPairingRepo) FindByID(_ context.Context, id string) (*models.Pairing, error) {
	if p, ok := m.pairings[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPairingRepo) List(_ context.Context) ([]models.Pairing, error) {
	var out []models.Pairing
	for _, p := range m.pairings {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockPairingRepo) SetActive(_ context.Context, id string, active bool) error {
	if p, ok := m.pairings[id]; ok {
		p.Active = active
		return nil
	}
	return sql.ErrNoRows
}

type mockResetStore struct {
	codes map[string]string
}

func newMockResetStore() *mockResetStore {
	return &mockResetStore{codes: make(map[string]string)}
}

func (m *mockResetStore) Save(_ context.Context, userID, code string, _ time.Duration) error {
	m.codes[userID] = code
	return nil
}

func (m *mockResetStore) Load(_ context.Context, userID string) (string, bool, error) {
	code, ok := m.codes[userID]
	return code, ok, nil
}

func (m *mockResetStore) Consume(_ context.Context, userID string) error {
	delete(m.codes, userID)
	return nil
}
