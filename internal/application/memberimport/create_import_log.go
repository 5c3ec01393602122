package memberimport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	domain "github.com/mohammadpnp/member-import/internal/domain/member"
	"github.com/mohammadpnp/member-import/internal/logging"
)

type CreateImportLogInput struct {
	ClubID         string `json:"club_id"`
	InitiatorID    string `json:"initiator_id"`
	FileName       string `json:"file_name"`
	FileSizeBytes  int64  `json:"file_size_bytes"`
	IdempotencyKey string `json:"-"`
}

type CreateImportLogOutput struct {
	ImportLogID string `json:"import_log_id"`
	Reused      bool   `json:"reused"`
}

type CreateImportLog interface {
	Execute(ctx context.Context, in CreateImportLogInput) (CreateImportLogOutput, error)
}

// IdempotencyStore remembers which import log an idempotency key produced.
// Remember returns the id that owns the key, which differs from the one
// passed in when another request got there first.
type IdempotencyStore interface {
	Lookup(ctx context.Context, clubID, key string) (string, bool, error)
	Remember(ctx context.Context, clubID, key, importLogID string) (string, error)
}

type importLogCreator interface {
	Create(ctx context.Context, log domain.ImportLog) (string, error)
	FindByIdempotencyKey(ctx context.Context, clubID, key string) (*domain.ImportLog, error)
}

type createImportLog struct {
	logs  importLogCreator
	store IdempotencyStore
}

// NewCreateImportLog accepts a nil store; the unique index on import logs
// still enforces idempotency.
func NewCreateImportLog(logs importLogCreator, store IdempotencyStore) CreateImportLog {
	return &createImportLog{logs: logs, store: store}
}

func (uc *createImportLog) Execute(ctx context.Context, in CreateImportLogInput) (CreateImportLogOutput, error) {
	in.FileName = strings.TrimSpace(in.FileName)
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)

	if err := validateCreateInput(in); err != nil {
		return CreateImportLogOutput{}, err
	}

	if in.IdempotencyKey != "" {
		existingID, found, err := uc.lookup(ctx, in)
		if err != nil {
			return CreateImportLogOutput{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
		if found {
			recordImportLog(true)
			return CreateImportLogOutput{ImportLogID: existingID, Reused: true}, nil
		}
	}

	importLogID, err := uc.logs.Create(ctx, domain.ImportLog{
		ClubID:         in.ClubID,
		InitiatorID:    in.InitiatorID,
		FileName:       in.FileName,
		FileSizeBytes:  in.FileSizeBytes,
		IdempotencyKey: in.IdempotencyKey,
		Status:         domain.ImportPending,
	})
	if errors.Is(err, domain.ErrDuplicateIdempotencyKey) {
		existing, findErr := uc.logs.FindByIdempotencyKey(ctx, in.ClubID, in.IdempotencyKey)
		if findErr != nil {
			return CreateImportLogOutput{}, fmt.Errorf("%w: %v", domain.ErrPersistence, findErr)
		}
		recordImportLog(true)
		return CreateImportLogOutput{ImportLogID: existing.ID, Reused: true}, nil
	}
	if err != nil {
		return CreateImportLogOutput{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	if in.IdempotencyKey != "" && uc.store != nil {
		owner, rememberErr := uc.store.Remember(ctx, in.ClubID, in.IdempotencyKey, importLogID)
		if rememberErr != nil {
			logging.FromContext(ctx).WithError(rememberErr).WithFields(logrus.Fields{
				"club_id":       in.ClubID,
				"import_log_id": importLogID,
			}).Warn("remember idempotency key failed")
		} else if owner != "" && owner != importLogID {
			importLogID = owner
		}
	}

	recordImportLog(false)
	return CreateImportLogOutput{ImportLogID: importLogID}, nil
}

func (uc *createImportLog) lookup(ctx context.Context, in CreateImportLogInput) (string, bool, error) {
	if uc.store != nil {
		importLogID, found, err := uc.store.Lookup(ctx, in.ClubID, in.IdempotencyKey)
		if err != nil {
			logging.FromContext(ctx).WithError(err).WithField("club_id", in.ClubID).Warn("idempotency store lookup failed")
		} else if found {
			return importLogID, true, nil
		}
	}

	existing, err := uc.logs.FindByIdempotencyKey(ctx, in.ClubID, in.IdempotencyKey)
	if errors.Is(err, domain.ErrImportLogNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return existing.ID, true, nil
}

func validateCreateInput(in CreateImportLogInput) error {
	if _, err := uuid.Parse(in.ClubID); err != nil {
		return fmt.Errorf("%w: club id must be a uuid", ErrInvalidImportInput)
	}
	if _, err := uuid.Parse(in.InitiatorID); err != nil {
		return fmt.Errorf("%w: initiator id must be a uuid", ErrInvalidImportInput)
	}
	if in.FileName == "" {
		return fmt.Errorf("%w: file name is required", ErrInvalidImportInput)
	}
	if in.FileSizeBytes < 0 {
		return fmt.Errorf("%w: file size must not be negative", ErrInvalidImportInput)
	}
	if len(in.IdempotencyKey) > 255 {
		return fmt.Errorf("%w: idempotency key is too long", ErrInvalidImportInput)
	}
	return nil
}

func validImportLogID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: import log id must be a uuid", ErrInvalidImportInput)
	}
	return nil
}
