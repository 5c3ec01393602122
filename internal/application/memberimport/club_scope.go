package memberimport

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	domain "github.com/mohammadpnp/member-import/internal/domain/member"
)

func validClubImport(clubID, importLogID string) error {
	if _, err := uuid.Parse(clubID); err != nil {
		return fmt.Errorf("%w: club id must be a uuid", ErrInvalidImportInput)
	}
	return validImportLogID(importLogID)
}

// findClubImportLog loads a log and hides logs of other clubs behind
// ErrImportLogNotFound.
func findClubImportLog(ctx context.Context, logs importLogFinder, clubID, importLogID string) (*domain.ImportLog, error) {
	importLog, err := logs.FindByID(ctx, importLogID)
	if err != nil {
		return nil, err
	}
	if importLog.ClubID != clubID {
		return nil, domain.ErrImportLogNotFound
	}
	return importLog, nil
}
