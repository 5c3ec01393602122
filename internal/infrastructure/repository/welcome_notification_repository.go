package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	domain "github.com/mohammadpnp/member-import/internal/domain/member"
	"github.com/mohammadpnp/member-import/internal/infrastructure/db/models"
)

type WelcomeNotificationRepository struct {
	db *gorm.DB
}

func NewWelcomeNotificationRepository(db *gorm.DB) *WelcomeNotificationRepository {
	return &WelcomeNotificationRepository{db: db}
}

// ClaimNext leases the oldest due notification, including running ones
// whose lease expired. It returns nil when nothing is due.
func (r *WelcomeNotificationRepository) ClaimNext(ctx context.Context, leaseDuration time.Duration) (*domain.WelcomeNotification, error) {
	var row models.WelcomeNotification
	err := r.db.WithContext(ctx).Raw(`
UPDATE welcome_notifications
SET status = 'running',
    attempts = attempts + 1,
    lease_expires_at = NOW() + make_interval(secs => ?),
    updated_at = NOW()
WHERE id = (
  SELECT id
  FROM welcome_notifications
  WHERE (status = 'queued' AND available_at <= NOW())
     OR (status = 'running' AND lease_expires_at < NOW() AND attempts < max_attempts)
  ORDER BY created_at
  LIMIT 1
  FOR UPDATE SKIP LOCKED
)
RETURNING id, member_id, club_id, email, name, status, attempts, max_attempts
`, leaseDuration.Seconds()).Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("claim welcome notification: %w", err)
	}
	if row.ID == "" {
		return nil, nil
	}

	return &domain.WelcomeNotification{
		ID:          row.ID,
		MemberID:    row.MemberID,
		ClubID:      row.ClubID,
		Email:       row.Email,
		Name:        row.Name,
		Attempts:    row.Attempts,
		MaxAttempts: row.MaxAttempts,
	}, nil
}

func (r *WelcomeNotificationRepository) MarkSent(ctx context.Context, notificationID string) error {
	return r.update(ctx, notificationID, map[string]any{
		"status":           "sent",
		"sent_at":          gorm.Expr("NOW()"),
		"lease_expires_at": nil,
		"last_error":       nil,
		"updated_at":       gorm.Expr("NOW()"),
	})
}

// Requeue backs off linearly with the attempt count.
func (r *WelcomeNotificationRepository) Requeue(ctx context.Context, notificationID string, reason string) error {
	return r.update(ctx, notificationID, map[string]any{
		"status":           "queued",
		"last_error":       nullableText(reason),
		"lease_expires_at": nil,
		"available_at":     gorm.Expr("NOW() + attempts * INTERVAL '5 seconds'"),
		"updated_at":       gorm.Expr("NOW()"),
	})
}

func (r *WelcomeNotificationRepository) Fail(ctx context.Context, notificationID string, reason string) error {
	return r.update(ctx, notificationID, map[string]any{
		"status":           "failed",
		"last_error":       nullableText(reason),
		"lease_expires_at": nil,
		"updated_at":       gorm.Expr("NOW()"),
	})
}

// FailExpiredLeases settles running notifications whose lease ran out after
// the last allowed attempt. ClaimNext never picks those up again.
func (r *WelcomeNotificationRepository) FailExpiredLeases(ctx context.Context, reason string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.WelcomeNotification{}).
		Where("status = 'running' AND lease_expires_at < NOW() AND attempts >= max_attempts").
		Updates(map[string]any{
			"status":           "failed",
			"last_error":       nullableText(reason),
			"lease_expires_at": nil,
			"updated_at":       gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("fail expired welcome notifications: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *WelcomeNotificationRepository) update(ctx context.Context, notificationID string, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.WelcomeNotification{}).
		Where("id = ? AND status = 'running'", notificationID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update welcome notification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update welcome notification %s: %w", notificationID, domain.ErrStatusConflict)
	}
	return nil
}
