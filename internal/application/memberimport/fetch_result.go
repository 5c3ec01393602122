package memberimport

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/mohammadpnp/member-import/internal/domain/member"
)

type FetchImportResultInput struct {
	ClubID      string
	ImportLogID string
}

// FetchImportResult returns the stored outcome of a finished commit. It lets
// a client whose commit request was cut off pick up the result later.
type FetchImportResult interface {
	Execute(ctx context.Context, in FetchImportResultInput) (domain.FinalImportResult, error)
}

type fetchImportResult struct {
	logs importLogFinder
}

func NewFetchImportResult(logs importLogFinder) FetchImportResult {
	return &fetchImportResult{logs: logs}
}

func (uc *fetchImportResult) Execute(ctx context.Context, in FetchImportResultInput) (domain.FinalImportResult, error) {
	if err := validClubImport(in.ClubID, in.ImportLogID); err != nil {
		return domain.FinalImportResult{}, err
	}

	importLog, err := findClubImportLog(ctx, uc.logs, in.ClubID, in.ImportLogID)
	if errors.Is(err, domain.ErrImportLogNotFound) {
		return domain.FinalImportResult{}, domain.ErrImportNotFound
	}
	if err != nil {
		return domain.FinalImportResult{}, fmt.Errorf("%w: %v", domain.ErrCommit, err)
	}

	switch {
	case importLog.Committed():
		return importLog.Result(), nil
	case importLog.Status == domain.ImportCommitting:
		return domain.FinalImportResult{}, domain.ErrCommitInProgress
	default:
		return domain.FinalImportResult{}, fmt.Errorf("%w: import has not been committed", ErrInvalidImportInput)
	}
}
