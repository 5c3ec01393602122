package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	domain "github.com/mohammadpnp/member-import/internal/domain/member"
	"github.com/mohammadpnp/member-import/internal/infrastructure/repository"
)

const (
	logID  = "4955eb4d-c7f2-42f6-80ca-33838ce37c31"
	clubID = "0b0f6c1e-4d43-4a8f-9b4e-8e2f0f3f6a11"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func TestImportLogRepositoryCreateDuplicateKey(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "import_logs"`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repository.NewImportLogRepository(db).Create(context.Background(), domain.ImportLog{
		ClubID:         clubID,
		InitiatorID:    clubID,
		FileName:       "members.csv",
		IdempotencyKey: "attempt-1",
	})
	require.ErrorIs(t, err, domain.ErrDuplicateIdempotencyKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportLogRepositoryFindByIDNotFound(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "import_logs"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repository.NewImportLogRepository(db).FindByID(context.Background(), logID)
	require.ErrorIs(t, err, domain.ErrImportLogNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportLogRepositoryFindByIDMapsRow(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "import_logs"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "club_id", "file_name", "status", "total_rows", "valid_rows", "invalid_rows", "idempotency_key"}).
			AddRow(logID, clubID, "members.csv", "staged", 3, 2, 1, "attempt-1"))

	got, err := repository.NewImportLogRepository(db).FindByID(context.Background(), logID)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportStaged, got.Status)
	assert.Equal(t, 2, got.ValidRows)
	assert.Equal(t, "attempt-1", got.IdempotencyKey)
}

func TestImportLogRepositoryBeginCommitGuardsStatus(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := repository.NewImportLogRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "import_logs" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.BeginCommit(context.Background(), logID))

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "import_logs" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.BeginCommit(context.Background(), logID), domain.ErrStatusConflict)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "import_logs" SET`)).
		WillReturnError(errors.New("connection reset"))
	err := repo.AbortCommit(context.Background(), logID, "boom")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrStatusConflict))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStagedRowQueryRepositoryDecodesRows(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "stg_member_rows"`)).
		WillReturnRows(sqlmock.NewRows([]string{
			"import_log_id", "row_number", "name", "email", "signature_techniques", "is_valid", "is_duplicate", "validation_errors",
		}).
			AddRow(logID, 1, "Alice", "alice@example.com", "jigging,trolling", true, false, []byte(`[]`)).
			AddRow(logID, 2, "", "bob@example.com", "", false, false, []byte(`[{"field":"name","message":"is required"}]`)))

	rows, err := repository.NewStagedRowQueryRepository(db).ListStagedRows(context.Background(), logID, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"jigging", "trolling"}, rows[0].Fields.SignatureTechniques)
	assert.True(t, rows[0].IsValid)
	assert.Equal(t, []domain.FieldError{{Field: "name", Message: "is required"}}, rows[1].ValidationErrors)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberQueryRepositoryGetByID(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := repository.NewMemberQueryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "members"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "club_id", "name", "email", "role", "signature_techniques"}).
			AddRow("a3f91a91-7fdd-43bf-bfd2-00bc02f6c53e", clubID, "Alice", "alice@example.com", "treasurer", "fly fishing"))

	m, err := repo.GetByID(context.Background(), clubID, "a3f91a91-7fdd-43bf-bfd2-00bc02f6c53e")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTreasurer, m.Role)
	assert.Equal(t, []string{"fly fishing"}, m.SignatureTechniques)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "members"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = repo.GetByID(context.Background(), clubID, "a3f91a91-7fdd-43bf-bfd2-00bc02f6c53e")
	require.ErrorIs(t, err, domain.ErrMemberNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWelcomeNotificationRepositoryClaimNext(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := repository.NewWelcomeNotificationRepository(db)
	columns := []string{"id", "member_id", "club_id", "email", "name", "status", "attempts", "max_attempts"}

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE welcome_notifications`)).
		WillReturnRows(sqlmock.NewRows(columns))
	claimed, err := repo.ClaimNext(context.Background(), 30*time.Second)
	require.NoError(t, err)
	assert.Nil(t, claimed)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE welcome_notifications`)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("9c1f0e2a-3b4d-4c5e-8f6a-7b8c9d0e1f2a", "a3f91a91-7fdd-43bf-bfd2-00bc02f6c53e", clubID, "alice@example.com", "Alice", "running", 1, 5))
	claimed, err = repo.ClaimNext(context.Background(), 30*time.Second)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, 1, claimed.Attempts)
	assert.Equal(t, 5, claimed.MaxAttempts)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "welcome_notifications" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.MarkSent(context.Background(), claimed.ID), domain.ErrStatusConflict)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportLogRepositoryCompleteCommitStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result domain.FinalImportResult
		status string
	}{
		{
			name:   "some rows created",
			result: domain.FinalImportResult{SuccessCount: 2, FailureCount: 1, Errors: []domain.RowFailure{{Row: 3, Email: "carol@example.com", Error: "failed to create member"}}},
			status: "completed",
		},
		{
			name:   "every row failed",
			result: domain.FinalImportResult{SuccessCount: 0, FailureCount: 1, Errors: []domain.RowFailure{{Row: 1, Email: "alice@example.com", Error: "failed to create member"}}},
			status: "failed",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, mock := newMockDB(t)
			// failure_count, row_failures, status, success_count, then the WHERE guard.
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "import_logs" SET`)).
				WithArgs(tt.result.FailureCount, sqlmock.AnyArg(), tt.status, tt.result.SuccessCount, logID, "committing").
				WillReturnResult(sqlmock.NewResult(0, 1))

			require.NoError(t, repository.NewImportLogRepository(db).CompleteCommit(context.Background(), logID, tt.result))
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestImportLogRepositoryFindByIDDecodesRowFailures(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "import_logs"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "club_id", "status", "success_count", "failure_count", "row_failures"}).
			AddRow(logID, clubID, "failed", 0, 1, []byte(`[{"row":1,"email":"alice@example.com","error":"failed to create member"}]`)))

	got, err := repository.NewImportLogRepository(db).FindByID(context.Background(), logID)
	require.NoError(t, err)
	assert.True(t, got.Committed())
	result := got.Result()
	assert.Equal(t, 1, result.FailureCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "alice@example.com", result.Errors[0].Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWelcomeNotificationRepositoryFailExpiredLeases(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := repository.NewWelcomeNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "welcome_notifications" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	n, err := repo.FailExpiredLeases(context.Background(), "lease expired on final attempt")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "welcome_notifications" SET`)).
		WillReturnError(errors.New("connection reset"))
	_, err = repo.FailExpiredLeases(context.Background(), "lease expired on final attempt")
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}
