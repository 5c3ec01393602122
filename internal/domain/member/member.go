package member

import (
	"net/mail"
	"strings"
)

type Role string

const (
	RoleMember               Role = "member"
	RolePresident            Role = "president"
	RoleVicePresident        Role = "vice_president"
	RoleSecretary            Role = "secretary"
	RoleTreasurer            Role = "treasurer"
	RoleTournamentDirector   Role = "tournament_director"
	RoleConservationDirector Role = "conservation_director"
	RoleYouthDirector        Role = "youth_director"
)

var knownRoles = map[Role]struct{}{
	RoleMember:               {},
	RolePresident:            {},
	RoleVicePresident:        {},
	RoleSecretary:            {},
	RoleTreasurer:            {},
	RoleTournamentDirector:   {},
	RoleConservationDirector: {},
	RoleYouthDirector:        {},
}

// NormalizeRole folds a raw role cell ("Vice President", "vice_president")
// into its token form. An empty cell means a regular member.
func NormalizeRole(raw string) Role {
	token := strings.ToLower(strings.TrimSpace(raw))
	if token == "" {
		return RoleMember
	}
	return Role(strings.Join(strings.Fields(token), "_"))
}

func (r Role) Valid() bool {
	_, ok := knownRoles[r]
	return ok
}

type Member struct {
	ID                  string
	ClubID              string
	ImportLogID         string
	Name                string
	Email               string
	Phone               string
	HomeState           string
	City                string
	Role                Role
	SignatureTechniques []string
	EmergencyContact    string
	BoatRegistration    string
}

func NewMember(clubID, importLogID string, fields StagedFields) (Member, error) {
	email := strings.TrimSpace(fields.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return Member{}, ErrInvalidEmail
	}

	name := strings.TrimSpace(fields.Name)
	if name == "" {
		return Member{}, ErrInvalidName
	}

	role := NormalizeRole(fields.ClubRole)
	if !role.Valid() {
		return Member{}, ErrInvalidRole
	}

	return Member{
		ClubID:              clubID,
		ImportLogID:         importLogID,
		Name:                name,
		Email:               strings.ToLower(email),
		Phone:               strings.TrimSpace(fields.Phone),
		HomeState:           strings.TrimSpace(fields.HomeState),
		City:                strings.TrimSpace(fields.City),
		Role:                role,
		SignatureTechniques: fields.SignatureTechniques,
		EmergencyContact:    strings.TrimSpace(fields.EmergencyContact),
		BoatRegistration:    strings.TrimSpace(fields.BoatRegistration),
	}, nil
}

// EmailKey is the form used for duplicate detection.
func EmailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
