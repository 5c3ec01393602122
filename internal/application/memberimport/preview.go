package memberimport

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/mohammadpnp/member-import/internal/domain/member"
)

// PreviewLimit is both the default and the largest preview page.
const PreviewLimit = 10

type FetchPreviewInput struct {
	ClubID      string
	ImportLogID string
	Limit       int
}

type FetchPreview interface {
	Execute(ctx context.Context, in FetchPreviewInput) ([]domain.StagedRow, error)
}

type stagedRowLister interface {
	ListStagedRows(ctx context.Context, importLogID string, limit int) ([]domain.StagedRow, error)
}

type fetchPreview struct {
	logs importLogFinder
	rows stagedRowLister
}

func NewFetchPreview(logs importLogFinder, rows stagedRowLister) FetchPreview {
	return &fetchPreview{logs: logs, rows: rows}
}

func (uc *fetchPreview) Execute(ctx context.Context, in FetchPreviewInput) ([]domain.StagedRow, error) {
	if err := validClubImport(in.ClubID, in.ImportLogID); err != nil {
		return nil, err
	}

	if _, err := findClubImportLog(ctx, uc.logs, in.ClubID, in.ImportLogID); err != nil {
		if errors.Is(err, domain.ErrImportLogNotFound) {
			return nil, domain.ErrImportNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchPreview, err)
	}

	rows, err := uc.rows.ListStagedRows(ctx, in.ImportLogID, ClampPreviewLimit(in.Limit))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchPreview, err)
	}
	if rows == nil {
		rows = []domain.StagedRow{}
	}
	return rows, nil
}

func ClampPreviewLimit(limit int) int {
	if limit <= 0 || limit > PreviewLimit {
		return PreviewLimit
	}
	return limit
}
