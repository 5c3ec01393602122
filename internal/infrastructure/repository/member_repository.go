package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/mohammadpnp/member-import/internal/domain/member"
)

type MemberRepository struct {
	pool *pgxpool.Pool
}

func NewMemberRepository(pool *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{pool: pool}
}

// CreateWithWelcome inserts the member and its queued welcome notification
// in one transaction.
func (r *MemberRepository) CreateWithWelcome(ctx context.Context, m domain.Member, maxAttempts int) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var memberID string
	err = tx.QueryRow(ctx, `
INSERT INTO members (
  club_id, import_log_id, name, email, phone, home_state, city, role,
  signature_techniques, emergency_contact, boat_registration, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
RETURNING id
`,
		m.ClubID,
		nullableText(m.ImportLogID),
		m.Name,
		m.Email,
		m.Phone,
		m.HomeState,
		m.City,
		string(m.Role),
		strings.Join(m.SignatureTechniques, ","),
		m.EmergencyContact,
		m.BoatRegistration,
	).Scan(&memberID)
	if err != nil {
		if isUniqueViolation(err) {
			return "", domain.ErrMemberExists
		}
		return "", fmt.Errorf("insert member: %w", err)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO welcome_notifications (member_id, club_id, email, name, status, max_attempts)
VALUES ($1, $2, $3, $4, 'queued', $5)
`, memberID, m.ClubID, m.Email, m.Name, maxAttempts); err != nil {
		return "", fmt.Errorf("queue welcome notification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit member: %w", err)
	}
	return memberID, nil
}
