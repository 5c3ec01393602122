package memberimport

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mohammadpnp/member-import/internal/application/ingest"
	domain "github.com/mohammadpnp/member-import/internal/domain/member"
	"github.com/mohammadpnp/member-import/internal/logging"
)

const maxStagedRows = 10000

type StageImportInput struct {
	ClubID      string
	ImportLogID string
	Rows        []ingest.RawRow
}

type StageImport interface {
	Execute(ctx context.Context, in StageImportInput) (domain.ValidationSummary, error)
}

type importLogFinder interface {
	FindByID(ctx context.Context, importLogID string) (*domain.ImportLog, error)
}

type stagingWriter interface {
	ExistingMemberEmails(ctx context.Context, clubID string, emails []string) (map[string]struct{}, error)
	// ReplaceStagedRows swaps the staged rows of a log and records the
	// summary on it atomically. It fails with ErrStatusConflict once the log
	// has left the stageable states.
	ReplaceStagedRows(ctx context.Context, importLogID string, rows []domain.StagedRow, summary domain.ValidationSummary) error
}

type stageImport struct {
	logs    importLogFinder
	staging stagingWriter
}

func NewStageImport(logs importLogFinder, staging stagingWriter) StageImport {
	return &stageImport{logs: logs, staging: staging}
}

func (uc *stageImport) Execute(ctx context.Context, in StageImportInput) (domain.ValidationSummary, error) {
	if err := validClubImport(in.ClubID, in.ImportLogID); err != nil {
		return domain.ValidationSummary{}, err
	}
	if len(in.Rows) == 0 {
		return domain.ValidationSummary{}, fmt.Errorf("%w: no rows to stage", ErrInvalidImportInput)
	}
	if len(in.Rows) > maxStagedRows {
		return domain.ValidationSummary{}, fmt.Errorf("%w: at most %d rows per import", ErrInvalidImportInput, maxStagedRows)
	}

	importLog, err := findClubImportLog(ctx, uc.logs, in.ClubID, in.ImportLogID)
	if errors.Is(err, domain.ErrImportLogNotFound) {
		return domain.ValidationSummary{}, domain.ErrImportNotFound
	}
	if err != nil {
		return domain.ValidationSummary{}, fmt.Errorf("%w: %v", domain.ErrProcessing, err)
	}
	if !importLog.Stageable() {
		return domain.ValidationSummary{}, ErrImportNotStageable
	}

	fields := make([]domain.StagedFields, 0, len(in.Rows))
	emails := make([]string, 0, len(in.Rows))
	for _, raw := range in.Rows {
		f := ingest.ToStagedFields(raw)
		fields = append(fields, f)
		if key := domain.EmailKey(f.Email); key != "" {
			emails = append(emails, key)
		}
	}

	existing, err := uc.staging.ExistingMemberEmails(ctx, importLog.ClubID, emails)
	if err != nil {
		return domain.ValidationSummary{}, fmt.Errorf("%w: %v", domain.ErrProcessing, err)
	}

	rows := ClassifyRows(fields, existing)
	summary := domain.Summarize(rows)

	if err := uc.staging.ReplaceStagedRows(ctx, importLog.ID, rows, summary); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			return domain.ValidationSummary{}, ErrImportNotStageable
		}
		return domain.ValidationSummary{}, fmt.Errorf("%w: %v", domain.ErrProcessing, err)
	}

	recordStagedRows(rows)
	logging.FromContext(ctx).WithFields(logrus.Fields{
		"import_log_id": importLog.ID,
		"club_id":       importLog.ClubID,
		"total_rows":    summary.TotalRows,
		"valid_rows":    summary.ValidRows,
	}).Info("import rows staged")

	return summary, nil
}
