package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	domain "github.com/mohammadpnp/member-import/internal/domain/member"
	"github.com/mohammadpnp/member-import/internal/infrastructure/db/models"
)

type StagedRowQueryRepository struct {
	db *gorm.DB
}

func NewStagedRowQueryRepository(db *gorm.DB) *StagedRowQueryRepository {
	return &StagedRowQueryRepository{db: db}
}

func (r *StagedRowQueryRepository) ListStagedRows(ctx context.Context, importLogID string, limit int) ([]domain.StagedRow, error) {
	var rows []models.StagedMemberRow
	err := r.db.WithContext(ctx).
		Where("import_log_id = ?", importLogID).
		Order("row_number ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list staged rows: %w", err)
	}
	return toDomainStagedRows(rows), nil
}

func (r *StagedRowQueryRepository) ListValidRows(ctx context.Context, importLogID string) ([]domain.StagedRow, error) {
	var rows []models.StagedMemberRow
	err := r.db.WithContext(ctx).
		Where("import_log_id = ? AND is_valid", importLogID).
		Order("row_number ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list valid staged rows: %w", err)
	}
	return toDomainStagedRows(rows), nil
}

func toDomainStagedRows(rows []models.StagedMemberRow) []domain.StagedRow {
	out := make([]domain.StagedRow, 0, len(rows))
	for _, row := range rows {
		fieldErrors := make([]domain.FieldError, 0, len(row.ValidationErrors))
		for _, fieldErr := range row.ValidationErrors {
			fieldErrors = append(fieldErrors, domain.FieldError{Field: fieldErr.Field, Message: fieldErr.Message})
		}

		out = append(out, domain.StagedRow{
			RowNumber: row.RowNumber,
			Fields: domain.StagedFields{
				Name:                row.Name,
				Email:               row.Email,
				Phone:               row.Phone,
				HomeState:           row.HomeState,
				City:                row.City,
				ClubRole:            row.ClubRole,
				SignatureTechniques: splitTechniques(row.SignatureTechniques),
				EmergencyContact:    row.EmergencyContact,
				BoatRegistration:    row.BoatRegistration,
			},
			IsValid:          row.IsValid,
			IsDuplicate:      row.IsDuplicate,
			ValidationErrors: fieldErrors,
		})
	}
	return out
}

func splitTechniques(stored string) []string {
	if strings.TrimSpace(stored) == "" {
		return nil
	}
	parts := strings.Split(stored, ",")
	techniques := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			techniques = append(techniques, part)
		}
	}
	return techniques
}
