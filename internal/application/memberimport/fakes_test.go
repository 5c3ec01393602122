package memberimport_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mohammadpnp/member-import/internal/application/ingest"
	domain "github.com/mohammadpnp/member-import/internal/domain/member"
)

const (
	testClubID      = "0b0f6c1e-4d43-4a8f-9b4e-8e2f0f3f6a11"
	testInitiatorID = "7d2b1a9e-5c41-4f0a-8a64-2f4a3c9d1e77"
	otherClubID     = "5f8a3c2d-1b4e-4a6f-9c7d-0e2b4d6f8a1c"
)

// memStore stands in for every repository the import use cases talk to.
type memStore struct {
	mu sync.Mutex

	logs        map[string]*domain.ImportLog
	staged      map[string][]domain.StagedRow
	members     map[string]domain.Member
	welcome     []domain.WelcomeNotification
	clubMembers map[string]map[string]struct{}

	createErr    error
	findErr      error
	stageErr     error
	listValidErr error
	completeErr  error
	memberErrs   map[string]error

	aborted []string
}

func newMemStore() *memStore {
	return &memStore{
		logs:        map[string]*domain.ImportLog{},
		staged:      map[string][]domain.StagedRow{},
		members:     map[string]domain.Member{},
		clubMembers: map[string]map[string]struct{}{},
		memberErrs:  map[string]error{},
	}
}

func (s *memStore) seedLog(status domain.ImportStatus) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.logs[id] = &domain.ImportLog{ID: id, ClubID: testClubID, InitiatorID: testInitiatorID, FileName: "members.csv", Status: status}
	return id
}

func (s *memStore) seedMember(clubID, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clubMembers[clubID] == nil {
		s.clubMembers[clubID] = map[string]struct{}{}
	}
	s.clubMembers[clubID][domain.EmailKey(email)] = struct{}{}
}

func (s *memStore) status(id string) domain.ImportStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logs[id].Status
}

func (s *memStore) Create(ctx context.Context, log domain.ImportLog) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return "", s.createErr
	}
	if log.IdempotencyKey != "" {
		for _, existing := range s.logs {
			if existing.ClubID == log.ClubID && existing.IdempotencyKey == log.IdempotencyKey {
				return "", domain.ErrDuplicateIdempotencyKey
			}
		}
	}
	log.ID = uuid.NewString()
	s.logs[log.ID] = &log
	return log.ID, nil
}

func (s *memStore) FindByIdempotencyKey(ctx context.Context, clubID, key string) (*domain.ImportLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.logs {
		if existing.ClubID == clubID && existing.IdempotencyKey == key {
			copied := *existing
			return &copied, nil
		}
	}
	return nil, domain.ErrImportLogNotFound
}

func (s *memStore) FindByID(ctx context.Context, importLogID string) (*domain.ImportLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	existing, ok := s.logs[importLogID]
	if !ok {
		return nil, domain.ErrImportLogNotFound
	}
	copied := *existing
	return &copied, nil
}

func (s *memStore) ExistingMemberEmails(ctx context.Context, clubID string, emails []string) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]struct{}{}
	for _, email := range emails {
		if _, ok := s.clubMembers[clubID][email]; ok {
			out[email] = struct{}{}
		}
	}
	return out, nil
}

func (s *memStore) ReplaceStagedRows(ctx context.Context, importLogID string, rows []domain.StagedRow, summary domain.ValidationSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stageErr != nil {
		return s.stageErr
	}
	log := s.logs[importLogID]
	if !log.Stageable() {
		return domain.ErrStatusConflict
	}
	s.staged[importLogID] = append([]domain.StagedRow(nil), rows...)
	log.Status = domain.ImportStaged
	log.TotalRows = summary.TotalRows
	log.ValidRows = summary.ValidRows
	log.InvalidRows = summary.InvalidRows
	return nil
}

func (s *memStore) ListStagedRows(ctx context.Context, importLogID string, limit int) ([]domain.StagedRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := append([]domain.StagedRow(nil), s.staged[importLogID]...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].RowNumber < rows[j].RowNumber })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *memStore) ListValidRows(ctx context.Context, importLogID string) ([]domain.StagedRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listValidErr != nil {
		return nil, s.listValidErr
	}
	var rows []domain.StagedRow
	for _, row := range s.staged[importLogID] {
		if row.IsValid {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (s *memStore) BeginCommit(ctx context.Context, importLogID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.logs[importLogID]
	if log.Status != domain.ImportStaged {
		return domain.ErrStatusConflict
	}
	log.Status = domain.ImportCommitting
	return nil
}

func (s *memStore) CompleteCommit(ctx context.Context, importLogID string, result domain.FinalImportResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completeErr != nil {
		return s.completeErr
	}
	log := s.logs[importLogID]
	if log.Status != domain.ImportCommitting {
		return domain.ErrStatusConflict
	}
	log.Status = domain.ImportCompleted
	if result.SuccessCount == 0 && result.FailureCount > 0 {
		log.Status = domain.ImportFailed
	}
	log.SuccessCount = result.SuccessCount
	log.FailureCount = result.FailureCount
	log.RowFailures = append([]domain.RowFailure(nil), result.Errors...)
	return nil
}

func (s *memStore) AbortCommit(ctx context.Context, importLogID string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[importLogID].Status = domain.ImportStaged
	s.logs[importLogID].ErrorMessage = reason
	s.aborted = append(s.aborted, importLogID)
	return nil
}

func (s *memStore) CreateWithWelcome(ctx context.Context, m domain.Member, maxAttempts int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := domain.EmailKey(m.Email)
	if err := s.memberErrs[key]; err != nil {
		return "", err
	}
	if _, ok := s.clubMembers[m.ClubID][key]; ok {
		return "", domain.ErrMemberExists
	}
	if s.clubMembers[m.ClubID] == nil {
		s.clubMembers[m.ClubID] = map[string]struct{}{}
	}
	s.clubMembers[m.ClubID][key] = struct{}{}

	m.ID = uuid.NewString()
	s.members[m.ID] = m
	s.welcome = append(s.welcome, domain.WelcomeNotification{
		ID:          uuid.NewString(),
		MemberID:    m.ID,
		ClubID:      m.ClubID,
		Email:       m.Email,
		Name:        m.Name,
		MaxAttempts: maxAttempts,
	})
	return m.ID, nil
}

// fakeIdempotencyStore mimics SETNX semantics.
type fakeIdempotencyStore struct {
	mu      sync.Mutex
	keys    map[string]string
	lookErr error
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{keys: map[string]string{}}
}

func (f *fakeIdempotencyStore) Lookup(ctx context.Context, clubID, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookErr != nil {
		return "", false, f.lookErr
	}
	id, ok := f.keys[clubID+":"+key]
	return id, ok, nil
}

func (f *fakeIdempotencyStore) Remember(ctx context.Context, clubID, key, importLogID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.keys[clubID+":"+key]; ok {
		return id, nil
	}
	f.keys[clubID+":"+key] = importLogID
	return importLogID, nil
}

var errDBDown = errors.New("db down")

func csvRows(lines ...string) []ingest.RawRow {
	header := strings.Split(lines[0], ",")
	rows := make([]ingest.RawRow, 0, len(lines)-1)
	for _, line := range lines[1:] {
		cells := strings.Split(line, ",")
		row := ingest.RawRow{}
		for i, key := range header {
			if i < len(cells) {
				row[key] = cells[i]
			}
		}
		rows = append(rows, row)
	}
	return rows
}
