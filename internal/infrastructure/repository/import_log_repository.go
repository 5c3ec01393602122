package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/mohammadpnp/member-import/internal/domain/member"
	"github.com/mohammadpnp/member-import/internal/infrastructure/db/models"
)

type ImportLogRepository struct {
	db *gorm.DB
}

func NewImportLogRepository(db *gorm.DB) *ImportLogRepository {
	return &ImportLogRepository{db: db}
}

func (r *ImportLogRepository) Create(ctx context.Context, log domain.ImportLog) (string, error) {
	row := models.ImportLog{
		ClubID:         log.ClubID,
		InitiatorID:    log.InitiatorID,
		FileName:       log.FileName,
		FileSizeBytes:  log.FileSizeBytes,
		IdempotencyKey: nullableText(log.IdempotencyKey),
		Status:         string(domain.ImportPending),
		RowFailures:    []byte("[]"),
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return "", domain.ErrDuplicateIdempotencyKey
		}
		return "", fmt.Errorf("create import log: %w", err)
	}

	return row.ID, nil
}

func (r *ImportLogRepository) FindByID(ctx context.Context, importLogID string) (*domain.ImportLog, error) {
	var row models.ImportLog
	err := r.db.WithContext(ctx).First(&row, "id = ?", importLogID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrImportLogNotFound
		}
		return nil, fmt.Errorf("find import log: %w", err)
	}
	return toDomainImportLog(row)
}

func (r *ImportLogRepository) FindByIdempotencyKey(ctx context.Context, clubID, key string) (*domain.ImportLog, error) {
	var row models.ImportLog
	err := r.db.WithContext(ctx).
		Where("club_id = ? AND idempotency_key = ?", clubID, key).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrImportLogNotFound
		}
		return nil, fmt.Errorf("find import log by idempotency key: %w", err)
	}
	return toDomainImportLog(row)
}

func (r *ImportLogRepository) BeginCommit(ctx context.Context, importLogID string) error {
	return r.transition(ctx, importLogID, domain.ImportStaged, map[string]any{
		"status":        string(domain.ImportCommitting),
		"error_message": nil,
		"updated_at":    gorm.Expr("NOW()"),
	})
}

// CompleteCommit stores the outcome with its row failures and marks the log
// failed when no row made it in.
func (r *ImportLogRepository) CompleteCommit(ctx context.Context, importLogID string, result domain.FinalImportResult) error {
	status := domain.ImportCompleted
	if result.SuccessCount == 0 && result.FailureCount > 0 {
		status = domain.ImportFailed
	}

	failures := result.Errors
	if failures == nil {
		failures = []domain.RowFailure{}
	}
	encoded, err := json.Marshal(failures)
	if err != nil {
		return fmt.Errorf("encode row failures: %w", err)
	}

	return r.transition(ctx, importLogID, domain.ImportCommitting, map[string]any{
		"status":        string(status),
		"success_count": result.SuccessCount,
		"failure_count": result.FailureCount,
		"row_failures":  encoded,
		"committed_at":  gorm.Expr("NOW()"),
		"updated_at":    gorm.Expr("NOW()"),
	})
}

func (r *ImportLogRepository) AbortCommit(ctx context.Context, importLogID string, reason string) error {
	return r.transition(ctx, importLogID, domain.ImportCommitting, map[string]any{
		"status":        string(domain.ImportStaged),
		"error_message": nullableText(reason),
		"updated_at":    gorm.Expr("NOW()"),
	})
}

func (r *ImportLogRepository) transition(ctx context.Context, importLogID string, from domain.ImportStatus, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.ImportLog{}).
		Where("id = ? AND status = ?", importLogID, string(from)).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update import log status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrStatusConflict
	}
	return nil
}

func toDomainImportLog(row models.ImportLog) (*domain.ImportLog, error) {
	var failures []domain.RowFailure
	if len(row.RowFailures) > 0 {
		if err := json.Unmarshal(row.RowFailures, &failures); err != nil {
			return nil, fmt.Errorf("decode row failures of import log %s: %w", row.ID, err)
		}
	}

	return &domain.ImportLog{
		ID:             row.ID,
		ClubID:         row.ClubID,
		InitiatorID:    row.InitiatorID,
		FileName:       row.FileName,
		FileSizeBytes:  row.FileSizeBytes,
		IdempotencyKey: textValue(row.IdempotencyKey),
		Status:         domain.ImportStatus(row.Status),
		TotalRows:      row.TotalRows,
		ValidRows:      row.ValidRows,
		InvalidRows:    row.InvalidRows,
		SuccessCount:   row.SuccessCount,
		FailureCount:   row.FailureCount,
		ErrorMessage:   textValue(row.ErrorMessage),
		RowFailures:    failures,
		CreatedAt:      row.CreatedAt,
		CommittedAt:    row.CommittedAt,
	}, nil
}
