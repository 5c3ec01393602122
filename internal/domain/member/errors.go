package member

import "errors"

var (
	ErrInvalidEmail = errors.New("invalid email")
	ErrInvalidName  = errors.New("invalid name")
	ErrInvalidRole  = errors.New("invalid club role")

	ErrMemberNotFound          = errors.New("member not found")
	ErrMemberExists            = errors.New("member with this email already exists")
	ErrImportLogNotFound       = errors.New("import log not found")
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")
	ErrStatusConflict          = errors.New("import log status changed concurrently")
)

// Errors shared by the import backend and its clients.
var (
	ErrPersistence      = errors.New("failed to create import log")
	ErrProcessing       = errors.New("failed to process import rows")
	ErrFetchPreview     = errors.New("failed to fetch import preview")
	ErrCommit           = errors.New("failed to commit import")
	ErrImportNotFound   = errors.New("import not found")
	ErrCommitInProgress = errors.New("import commit already in progress")
	ErrAlreadyCommitted = errors.New("import already committed")
)
