package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/mohammadpnp/member-import/internal/domain/member"
	"github.com/mohammadpnp/member-import/internal/infrastructure/db/models"
)

type MemberQueryRepository struct {
	db *gorm.DB
}

func NewMemberQueryRepository(db *gorm.DB) *MemberQueryRepository {
	return &MemberQueryRepository{db: db}
}

func (r *MemberQueryRepository) GetByID(ctx context.Context, clubID, memberID string) (*domain.Member, error) {
	var row models.Member

	err := r.db.WithContext(ctx).
		First(&row, "id = ? AND club_id = ?", memberID, clubID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member by id: %w", err)
	}

	return &domain.Member{
		ID:                  row.ID,
		ClubID:              row.ClubID,
		ImportLogID:         textValue(row.ImportLogID),
		Name:                row.Name,
		Email:               row.Email,
		Phone:               row.Phone,
		HomeState:           row.HomeState,
		City:                row.City,
		Role:                domain.Role(row.Role),
		SignatureTechniques: splitTechniques(row.SignatureTechniques),
		EmergencyContact:    row.EmergencyContact,
		BoatRegistration:    row.BoatRegistration,
	}, nil
}
