package member

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	domain "github.com/mohammadpnp/member-import/internal/domain/member"
)

type GetMemberByIDInput struct {
	ClubID string
	ID     string
}

type GetMemberByIDOutput struct {
	ID                  string   `json:"id"`
	ClubID              string   `json:"club_id"`
	Name                string   `json:"name"`
	Email               string   `json:"email"`
	Phone               string   `json:"phone"`
	HomeState           string   `json:"home_state"`
	City                string   `json:"city"`
	Role                string   `json:"club_role"`
	SignatureTechniques []string `json:"signature_techniques"`
	EmergencyContact    string   `json:"emergency_contact"`
	BoatRegistration    string   `json:"boat_registration"`
	ImportLogID         string   `json:"import_log_id,omitempty"`
}

type GetMemberByID interface {
	Execute(ctx context.Context, in GetMemberByIDInput) (GetMemberByIDOutput, error)
}

type getMemberByID struct {
	repo domain.QueryRepository
}

func NewGetMemberByID(repo domain.QueryRepository) GetMemberByID {
	return &getMemberByID{repo: repo}
}

func (uc *getMemberByID) Execute(ctx context.Context, in GetMemberByIDInput) (GetMemberByIDOutput, error) {
	if _, err := uuid.Parse(in.ID); err != nil {
		return GetMemberByIDOutput{}, ErrInvalidMemberID
	}
	if _, err := uuid.Parse(in.ClubID); err != nil {
		return GetMemberByIDOutput{}, ErrInvalidMemberID
	}

	m, err := uc.repo.GetByID(ctx, in.ClubID, in.ID)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return GetMemberByIDOutput{}, ErrMemberNotFound
		}
		return GetMemberByIDOutput{}, fmt.Errorf("%w: %v", ErrGetMemberByID, err)
	}

	techniques := m.SignatureTechniques
	if techniques == nil {
		techniques = []string{}
	}

	return GetMemberByIDOutput{
		ID:                  m.ID,
		ClubID:              m.ClubID,
		Name:                m.Name,
		Email:               m.Email,
		Phone:               m.Phone,
		HomeState:           m.HomeState,
		City:                m.City,
		Role:                string(m.Role),
		SignatureTechniques: techniques,
		EmergencyContact:    m.EmergencyContact,
		BoatRegistration:    m.BoatRegistration,
		ImportLogID:         m.ImportLogID,
	}, nil
}
