package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammadpnp/member-import/internal/application/ingest"
	"github.com/mohammadpnp/member-import/internal/application/memberimport"
	"github.com/mohammadpnp/member-import/internal/application/wizard"
	domain "github.com/mohammadpnp/member-import/internal/domain/member"
)

type fakeFiles map[string]string

func (f fakeFiles) Read(ctx context.Context, path string) (string, []byte, error) {
	content, ok := f[path]
	if !ok {
		return "", nil, fmt.Errorf("open file %s: not found", path)
	}
	return path, []byte(content), nil
}

// fakeBackend stages rows in memory with the server's classification rules.
type fakeBackend struct {
	mu         sync.Mutex
	staged     map[string][]domain.StagedRow
	commits    int
	lookups    int
	commitErrs []error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{staged: map[string][]domain.StagedRow{}}
}

func (f *fakeBackend) CreateImportLog(ctx context.Context, in memberimport.CreateImportLogInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fmt.Sprintf("log-%d", len(f.staged)+1), nil
}

func (f *fakeBackend) StageAndValidate(ctx context.Context, importLogID, clubID string, rows []ingest.RawRow) (domain.ValidationSummary, error) {
	fields := make([]domain.StagedFields, 0, len(rows))
	for _, row := range rows {
		fields = append(fields, ingest.ToStagedFields(row))
	}
	staged := memberimport.ClassifyRows(fields, nil)

	f.mu.Lock()
	f.staged[importLogID] = staged
	f.mu.Unlock()
	return domain.Summarize(staged), nil
}

func (f *fakeBackend) FetchStagedPreview(ctx context.Context, importLogID, clubID string, limit int) ([]domain.StagedRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.staged[importLogID]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (f *fakeBackend) CommitImport(ctx context.Context, importLogID, clubID string) (domain.FinalImportResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits++
	if len(f.commitErrs) > 0 {
		err := f.commitErrs[0]
		f.commitErrs = f.commitErrs[1:]
		if err != nil {
			return domain.FinalImportResult{}, err
		}
	}

	return f.outcome(importLogID), nil
}

func (f *fakeBackend) FetchImportResult(ctx context.Context, importLogID, clubID string) (domain.FinalImportResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	return f.outcome(importLogID), nil
}

func (f *fakeBackend) outcome(importLogID string) domain.FinalImportResult {
	result := domain.FinalImportResult{Errors: []domain.RowFailure{}}
	for _, row := range f.staged[importLogID] {
		if row.IsValid {
			result.SuccessCount++
		}
	}
	return result
}

const (
	twoMembers = "name,email,club_role\nAlice,alice@example.com,vice_president\nBob,bob@example.com,\n"
	duplicate  = "name,email\nAlice,alice@example.com\nAlice,alice@example.com\n"
)

func run(t *testing.T, backend *fakeBackend, files fakeFiles, opts *importOptions, input string) (string, error) {
	t.Helper()

	session := wizard.NewSession(backend, "club-1", "user-1", wizard.Config{})
	var out bytes.Buffer
	err := runImport(context.Background(), session, files, opts, strings.NewReader(input), &out)
	return out.String(), err
}

func TestRunImportWithYes(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	out, err := run(t, backend, fakeFiles{"members.csv": twoMembers}, &importOptions{file: "members.csv", yes: true}, "")
	require.NoError(t, err)

	assert.Contains(t, out, "members.csv: 2 rows, 2 valid, 0 invalid")
	assert.Contains(t, out, "Vice President")
	assert.Contains(t, out, "Imported: 2")
	assert.Contains(t, out, "Success rate: 100.0%")
	assert.Equal(t, 1, backend.commits)
}

func TestRunImportDeclinedNeverCommits(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	out, err := run(t, backend, fakeFiles{"dup.csv": duplicate}, &importOptions{file: "dup.csv"}, "n\n")
	require.NoError(t, err)

	assert.Contains(t, out, "Row 2 email: "+domain.DuplicateEmailMessage)
	assert.Contains(t, out, "Import cancelled.")
	assert.Zero(t, backend.commits)
}

func TestRunImportRetriesCommitWhenAsked(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	backend.commitErrs = []error{fmt.Errorf("%w: db down", domain.ErrCommit), nil}

	out, err := run(t, backend, fakeFiles{"members.csv": twoMembers}, &importOptions{file: "members.csv"}, "y\ny\nn\n")
	require.NoError(t, err)

	assert.Contains(t, out, "The import could not be committed. Retry the commit.")
	assert.Contains(t, out, "Imported: 2")
	assert.Equal(t, 2, backend.commits)
}

func TestRunImportRecoversFromCommitTimeout(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	backend.commitErrs = []error{
		fmt.Errorf("%w: commit: context deadline exceeded", wizard.ErrTimeout),
		domain.ErrCommitInProgress,
		domain.ErrAlreadyCommitted,
	}

	out, err := run(t, backend, fakeFiles{"members.csv": twoMembers}, &importOptions{file: "members.csv"}, "y\ny\ny\nn\n")
	require.NoError(t, err)

	assert.Contains(t, out, "did not respond in time")
	assert.Contains(t, out, "already being processed")
	assert.Contains(t, out, "Imported: 2")
	assert.Equal(t, 3, backend.commits)
	assert.Equal(t, 1, backend.lookups)
}

func TestRunImportRestartsWithNextFile(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	files := fakeFiles{"first.csv": twoMembers, "second.csv": duplicate}

	out, err := run(t, backend, files, &importOptions{file: "first.csv"}, "y\ny\nsecond.csv\ny\nn\n")
	require.NoError(t, err)

	assert.Contains(t, out, "first.csv: 2 rows")
	assert.Contains(t, out, "second.csv: 2 rows, 1 valid, 1 invalid")
	assert.Equal(t, 2, strings.Count(out, "Imported: "))
	assert.Equal(t, 2, backend.commits)
}

func TestRunImportMissingColumns(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	out, err := run(t, backend, fakeFiles{"bad.csv": "name,phone\nAlice,555\n"}, &importOptions{file: "bad.csv", yes: true}, "")

	var missing *ingest.MissingColumnsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"email"}, missing.Columns)
	assert.Contains(t, out, "missing required columns: email")
	assert.Empty(t, backend.staged)
}

func TestRunImportNoValidRows(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	_, err := run(t, backend, fakeFiles{"bad.csv": "name,email\n,not-an-email\n"}, &importOptions{file: "bad.csv", yes: true}, "")
	require.ErrorIs(t, err, wizard.ErrNoValidRows)
	assert.Zero(t, backend.commits)
}
