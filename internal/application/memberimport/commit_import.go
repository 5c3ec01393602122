package memberimport

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	domain "github.com/mohammadpnp/member-import/internal/domain/member"
	"github.com/mohammadpnp/member-import/internal/logging"
)

const rowFailureCreate = "failed to create member"

type CommitImportInput struct {
	ImportLogID string
	ClubID      string
}

type CommitImport interface {
	Execute(ctx context.Context, in CommitImportInput) (domain.FinalImportResult, error)
}

type commitLogRepo interface {
	FindByID(ctx context.Context, importLogID string) (*domain.ImportLog, error)
	// BeginCommit moves a staged log to committing and fails with
	// ErrStatusConflict when the log is in any other state.
	BeginCommit(ctx context.Context, importLogID string) error
	CompleteCommit(ctx context.Context, importLogID string, result domain.FinalImportResult) error
	AbortCommit(ctx context.Context, importLogID string, reason string) error
}

type validRowLister interface {
	ListValidRows(ctx context.Context, importLogID string) ([]domain.StagedRow, error)
}

type memberWriter interface {
	// CreateWithWelcome stores the member and queues its welcome
	// notification in one transaction. A member whose email already exists
	// in the club fails with ErrMemberExists.
	CreateWithWelcome(ctx context.Context, m domain.Member, maxAttempts int) (string, error)
}

type commitImport struct {
	logs              commitLogRepo
	rows              validRowLister
	members           memberWriter
	notifyMaxAttempts int
}

func NewCommitImport(logs commitLogRepo, rows validRowLister, members memberWriter, notifyMaxAttempts int) CommitImport {
	if notifyMaxAttempts <= 0 {
		notifyMaxAttempts = 5
	}
	return &commitImport{
		logs:              logs,
		rows:              rows,
		members:           members,
		notifyMaxAttempts: notifyMaxAttempts,
	}
}

func (uc *commitImport) Execute(ctx context.Context, in CommitImportInput) (domain.FinalImportResult, error) {
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
	if err := commitStatusError(importLog.Status); err != nil {
		return domain.FinalImportResult{}, err
	}

	if err := uc.logs.BeginCommit(ctx, importLog.ID); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			return domain.FinalImportResult{}, uc.conflictError(ctx, importLog.ID)
		}
		return domain.FinalImportResult{}, fmt.Errorf("%w: %v", domain.ErrCommit, err)
	}

	log := logging.FromContext(ctx).WithFields(logrus.Fields{
		"import_log_id": importLog.ID,
		"club_id":       importLog.ClubID,
	})
	// Once the log is committing the batch runs to the end, even when the
	// caller goes away. The outcome stays readable through FetchImportResult.
	runCtx := context.WithoutCancel(ctx)

	rows, err := uc.rows.ListValidRows(runCtx, importLog.ID)
	if err != nil {
		uc.abort(runCtx, log, importLog.ID, err)
		recordCommit("error", domain.FinalImportResult{})
		return domain.FinalImportResult{}, fmt.Errorf("%w: %v", domain.ErrCommit, err)
	}

	result := domain.FinalImportResult{Errors: []domain.RowFailure{}}
	for _, row := range rows {
		if failure, ok := uc.commitRow(runCtx, log, importLog, row); !ok {
			result.FailureCount++
			result.Errors = append(result.Errors, failure)
			continue
		}
		result.SuccessCount++
	}

	if err := uc.logs.CompleteCommit(runCtx, importLog.ID, result); err != nil {
		uc.abort(runCtx, log, importLog.ID, err)
		recordCommit("error", result)
		return domain.FinalImportResult{}, fmt.Errorf("%w: %v", domain.ErrCommit, err)
	}

	recordCommit("completed", result)
	log.WithFields(logrus.Fields{
		"success_count": result.SuccessCount,
		"failure_count": result.FailureCount,
	}).Info("import committed")

	return result, nil
}

func (uc *commitImport) commitRow(ctx context.Context, log *logrus.Entry, importLog *domain.ImportLog, row domain.StagedRow) (domain.RowFailure, bool) {
	failure := domain.RowFailure{Row: row.RowNumber, Email: row.Fields.Email}

	m, err := domain.NewMember(importLog.ClubID, importLog.ID, row.Fields)
	if err != nil {
		failure.Error = err.Error()
		return failure, false
	}

	if _, err := uc.members.CreateWithWelcome(ctx, m, uc.notifyMaxAttempts); err != nil {
		if errors.Is(err, domain.ErrMemberExists) {
			failure.Error = domain.ErrMemberExists.Error()
			return failure, false
		}
		log.WithError(err).WithField("row", row.RowNumber).Error("create member failed")
		failure.Error = rowFailureCreate
		return failure, false
	}

	return domain.RowFailure{}, true
}

func (uc *commitImport) abort(ctx context.Context, log *logrus.Entry, importLogID string, cause error) {
	if err := uc.logs.AbortCommit(ctx, importLogID, truncateReason(cause.Error())); err != nil {
		log.WithError(err).Error("abort commit failed")
	}
}

func (uc *commitImport) conflictError(ctx context.Context, importLogID string) error {
	current, err := uc.logs.FindByID(ctx, importLogID)
	if err != nil {
		return domain.ErrCommitInProgress
	}
	if statusErr := commitStatusError(current.Status); statusErr != nil {
		return statusErr
	}
	return domain.ErrCommitInProgress
}

func commitStatusError(status domain.ImportStatus) error {
	switch status {
	case domain.ImportStaged:
		return nil
	case domain.ImportCommitting:
		return domain.ErrCommitInProgress
	case domain.ImportCompleted, domain.ImportFailed:
		return domain.ErrAlreadyCommitted
	default:
		return fmt.Errorf("%w: import has not been staged", ErrInvalidImportInput)
	}
}
