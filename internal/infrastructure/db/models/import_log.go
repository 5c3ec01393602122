package models

import "time"

type ImportLog struct {
	ID             string  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ClubID         string  `gorm:"type:uuid;not null;index"`
	InitiatorID    string  `gorm:"type:uuid;not null"`
	FileName       string  `gorm:"size:255;not null"`
	FileSizeBytes  int64   `gorm:"not null;default:0"`
	IdempotencyKey *string `gorm:"size:255"`
	Status         string  `gorm:"type:text;not null"`
	TotalRows      int     `gorm:"not null;default:0"`
	ValidRows      int     `gorm:"not null;default:0"`
	InvalidRows    int     `gorm:"not null;default:0"`
	SuccessCount   int     `gorm:"not null;default:0"`
	FailureCount   int     `gorm:"not null;default:0"`
	ErrorMessage   *string `gorm:"type:text"`
	RowFailures    []byte  `gorm:"type:jsonb;not null"`
	CommittedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (ImportLog) TableName() string {
	return "import_logs"
}

type StagedFieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// StagedMemberRow lives in an unlogged table and is rewritten on every
// staging call for its import log.
type StagedMemberRow struct {
	ImportLogID         string             `gorm:"type:uuid;primaryKey"`
	RowNumber           int                `gorm:"primaryKey"`
	Name                string             `gorm:"type:text;not null"`
	Email               string             `gorm:"type:text;not null"`
	Phone               string             `gorm:"type:text;not null"`
	HomeState           string             `gorm:"type:text;not null"`
	City                string             `gorm:"type:text;not null"`
	ClubRole            string             `gorm:"type:text;not null"`
	SignatureTechniques string             `gorm:"type:text;not null"`
	EmergencyContact    string             `gorm:"type:text;not null"`
	BoatRegistration    string             `gorm:"type:text;not null"`
	IsValid             bool               `gorm:"not null"`
	IsDuplicate         bool               `gorm:"not null"`
	ValidationErrors    []StagedFieldError `gorm:"type:jsonb;serializer:json;not null"`
}

func (StagedMemberRow) TableName() string {
	return "stg_member_rows"
}
