package memberimport_test

import (
	"context"
	"errors"
	"testing"

	app "github.com/mohammadpnp/member-import/internal/application/memberimport"
	domain "github.com/mohammadpnp/member-import/internal/domain/member"
)

func TestFetchImportResultReturnsStoredOutcome(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	logID, _ := stagedLog(t, store, "name,email", "Alice,alice@example.com", "Bob,bob@example.com")
	store.seedMember(testClubID, "bob@example.com")

	committed, err := app.NewCommitImport(store, store, store, 5).Execute(context.Background(), app.CommitImportInput{ImportLogID: logID, ClubID: testClubID})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := app.NewFetchImportResult(store).Execute(context.Background(), app.FetchImportResultInput{ClubID: testClubID, ImportLogID: logID})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.SuccessCount != committed.SuccessCount || got.FailureCount != committed.FailureCount {
		t.Fatalf("stored result %+v differs from commit result %+v", got, committed)
	}
	if len(got.Errors) != 1 || got.Errors[0].Row != 2 || got.Errors[0].Email != "bob@example.com" {
		t.Fatalf("unexpected stored failures: %+v", got.Errors)
	}
}

func TestFetchImportResultErrors(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	staged := store.seedLog(domain.ImportStaged)
	committing := store.seedLog(domain.ImportCommitting)
	completed := store.seedLog(domain.ImportCompleted)

	cases := []struct {
		name   string
		clubID string
		id     string
		want   error
	}{
		{"invalid club", "nope", completed, app.ErrInvalidImportInput},
		{"unknown log", testClubID, "4955eb4d-c7f2-42f6-80ca-33838ce37c31", domain.ErrImportNotFound},
		{"other club", otherClubID, completed, domain.ErrImportNotFound},
		{"still committing", testClubID, committing, domain.ErrCommitInProgress},
		{"not committed", testClubID, staged, app.ErrInvalidImportInput},
	}

	uc := app.NewFetchImportResult(store)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), app.FetchImportResultInput{ClubID: tc.clubID, ImportLogID: tc.id})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	got, err := uc.Execute(context.Background(), app.FetchImportResultInput{ClubID: testClubID, ImportLogID: completed})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Errors == nil {
		t.Fatal("expected an empty failure list, got nil")
	}
}
