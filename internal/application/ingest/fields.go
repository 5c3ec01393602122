package ingest

import (
	"strings"

	domain "github.com/mohammadpnp/member-import/internal/domain/member"
)

func ToStagedFields(row RawRow) domain.StagedFields {
	return domain.StagedFields{
		Name:                strings.TrimSpace(row["name"]),
		Email:               strings.TrimSpace(row["email"]),
		Phone:               strings.TrimSpace(row["phone"]),
		HomeState:           firstValue(row, "home_state", "state"),
		City:                strings.TrimSpace(row["city"]),
		ClubRole:            firstValue(row, "club_role", "role"),
		SignatureTechniques: SplitTechniques(row["signature_techniques"]),
		EmergencyContact:    strings.TrimSpace(row["emergency_contact"]),
		BoatRegistration:    strings.TrimSpace(row["boat_registration"]),
	}
}

// SplitTechniques reads the comma-joined techniques cell.
func SplitTechniques(cell string) []string {
	parts := strings.Split(cell, ",")
	techniques := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			techniques = append(techniques, part)
		}
	}
	if len(techniques) == 0 {
		return nil
	}
	return techniques
}

func firstValue(row RawRow, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(row[key]); value != "" {
			return value
		}
	}
	return ""
}
