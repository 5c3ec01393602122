package models

import "time"

type Member struct {
	ID                  string  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ClubID              string  `gorm:"type:uuid;not null"`
	ImportLogID         *string `gorm:"type:uuid"`
	Name                string  `gorm:"size:255;not null"`
	Email               string  `gorm:"size:320;not null"`
	Phone               string  `gorm:"size:32;not null"`
	HomeState           string  `gorm:"size:64;not null"`
	City                string  `gorm:"size:120;not null"`
	Role                string  `gorm:"size:32;not null"`
	SignatureTechniques string  `gorm:"type:text;not null"`
	EmergencyContact    string  `gorm:"size:255;not null"`
	BoatRegistration    string  `gorm:"size:64;not null"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (Member) TableName() string {
	return "members"
}

type WelcomeNotification struct {
	ID             string  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	MemberID       string  `gorm:"type:uuid;not null;index"`
	ClubID         string  `gorm:"type:uuid;not null"`
	Email          string  `gorm:"size:320;not null"`
	Name           string  `gorm:"size:255;not null"`
	Status         string  `gorm:"type:text;not null"`
	Attempts       int     `gorm:"not null;default:0"`
	MaxAttempts    int     `gorm:"not null;default:5"`
	LastError      *string `gorm:"type:text"`
	AvailableAt    time.Time
	LeaseExpiresAt *time.Time
	SentAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (WelcomeNotification) TableName() string {
	return "welcome_notifications"
}
