package member

import "time"

type ImportStatus string

const (
	ImportPending    ImportStatus = "pending"
	ImportStaged     ImportStatus = "staged"
	ImportCommitting ImportStatus = "committing"
	ImportCompleted  ImportStatus = "completed"
	ImportFailed     ImportStatus = "failed"
)

type ImportLog struct {
	ID             string
	ClubID         string
	InitiatorID    string
	FileName       string
	FileSizeBytes  int64
	IdempotencyKey string
	Status         ImportStatus
	TotalRows      int
	ValidRows      int
	InvalidRows    int
	SuccessCount   int
	FailureCount   int
	ErrorMessage   string
	RowFailures    []RowFailure
	CreatedAt      time.Time
	CommittedAt    *time.Time
}

func (l ImportLog) Stageable() bool {
	return l.Status == ImportPending || l.Status == ImportStaged
}

// Committed reports whether commit finished and the stored counts are final.
func (l ImportLog) Committed() bool {
	return l.Status == ImportCompleted || l.Status == ImportFailed
}

func (l ImportLog) Result() FinalImportResult {
	failures := l.RowFailures
	if failures == nil {
		failures = []RowFailure{}
	}
	return FinalImportResult{
		SuccessCount: l.SuccessCount,
		FailureCount: l.FailureCount,
		Errors:       failures,
	}
}

type WelcomeNotification struct {
	ID          string
	MemberID    string
	ClubID      string
	Email       string
	Name        string
	Attempts    int
	MaxAttempts int
}

type WelcomeMessage struct {
	NotificationID string `json:"notification_id"`
	MemberID       string `json:"member_id"`
	ClubID         string `json:"club_id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
}
