package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/mohammadpnp/member-import/internal/domain/member"
)

var stagedRowColumns = []string{
	"import_log_id",
	"row_number",
	"name",
	"email",
	"phone",
	"home_state",
	"city",
	"club_role",
	"signature_techniques",
	"emergency_contact",
	"boat_registration",
	"is_valid",
	"is_duplicate",
	"validation_errors",
}

type StagingRepository struct {
	pool *pgxpool.Pool
}

func NewStagingRepository(pool *pgxpool.Pool) *StagingRepository {
	return &StagingRepository{pool: pool}
}

// ExistingMemberEmails returns which of the given lowercase emails already
// belong to a member of the club.
func (r *StagingRepository) ExistingMemberEmails(ctx context.Context, clubID string, emails []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(emails) == 0 {
		return existing, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT lower(email)
FROM members
WHERE club_id = $1 AND lower(email) = ANY($2)
`, clubID, emails)
	if err != nil {
		return nil, fmt.Errorf("query existing member emails: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan existing member email: %w", err)
		}
		existing[email] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate existing member emails: %w", err)
	}

	return existing, nil
}

func (r *StagingRepository) ReplaceStagedRows(ctx context.Context, importLogID string, rows []domain.StagedRow, summary domain.ValidationSummary) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Locks the log row so a concurrent commit waits for the new rows.
	tag, err := tx.Exec(ctx, `
UPDATE import_logs
SET status = 'staged',
    total_rows = $2,
    valid_rows = $3,
    invalid_rows = $4,
    error_message = NULL,
    updated_at = NOW()
WHERE id = $1 AND status IN ('pending', 'staged')
`, importLogID, summary.TotalRows, summary.ValidRows, summary.InvalidRows)
	if err != nil {
		return fmt.Errorf("mark import log staged: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStatusConflict
	}

	if _, err := tx.Exec(ctx, "DELETE FROM stg_member_rows WHERE import_log_id = $1", importLogID); err != nil {
		return fmt.Errorf("cleanup stg_member_rows: %w", err)
	}

	copyRows := make([][]any, 0, len(rows))
	for _, row := range rows {
		validationErrors, err := json.Marshal(row.ValidationErrors)
		if err != nil {
			return fmt.Errorf("encode validation errors for row %d: %w", row.RowNumber, err)
		}
		copyRows = append(copyRows, []any{
			importLogID,
			int32(row.RowNumber),
			row.Fields.Name,
			row.Fields.Email,
			row.Fields.Phone,
			row.Fields.HomeState,
			row.Fields.City,
			row.Fields.ClubRole,
			strings.Join(row.Fields.SignatureTechniques, ","),
			row.Fields.EmergencyContact,
			row.Fields.BoatRegistration,
			row.IsValid,
			row.IsDuplicate,
			validationErrors,
		})
	}

	if _, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"stg_member_rows"},
		stagedRowColumns,
		pgx.CopyFromRows(copyRows),
	); err != nil {
		return fmt.Errorf("copy member staging: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit staging: %w", err)
	}
	return nil
}
