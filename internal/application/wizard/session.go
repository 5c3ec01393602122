// Package wizard drives a member import through upload, preview, confirm
// and results against an import backend.
package wizard

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/mohammadpnp/member-import/internal/application/ingest"
	"github.com/mohammadpnp/member-import/internal/application/memberimport"
	domain "github.com/mohammadpnp/member-import/internal/domain/member"
)

type Stage string

const (
	StageUpload  Stage = "upload"
	StagePreview Stage = "preview"
	StageConfirm Stage = "confirm"
	StageResults Stage = "results"
)

type Backend interface {
	CreateImportLog(ctx context.Context, in memberimport.CreateImportLogInput) (string, error)
	StageAndValidate(ctx context.Context, importLogID, clubID string, rows []ingest.RawRow) (domain.ValidationSummary, error)
	FetchStagedPreview(ctx context.Context, importLogID, clubID string, limit int) ([]domain.StagedRow, error)
	CommitImport(ctx context.Context, importLogID, clubID string) (domain.FinalImportResult, error)
	FetchImportResult(ctx context.Context, importLogID, clubID string) (domain.FinalImportResult, error)
}

// Session is one wizard run. It is safe for concurrent use, but a request
// started while another one is in flight fails with ErrBusy.
type Session struct {
	backend     Backend
	cfg         Config
	clubID      string
	initiatorID string
	newKey      func() string

	mu       sync.Mutex
	inFlight bool
	stage    Stage
	id       string
	fileName string
	fileSize int64
	summary  *domain.ValidationSummary
	result   *domain.FinalImportResult
}

type Option func(*Session)

// WithIdempotencyKeys replaces the per-upload key generator.
func WithIdempotencyKeys(next func() string) Option {
	return func(s *Session) {
		s.newKey = next
	}
}

func NewSession(backend Backend, clubID, initiatorID string, cfg Config, opts ...Option) *Session {
	s := &Session{
		backend:     backend,
		cfg:         cfg.withDefaults(),
		clubID:      clubID,
		initiatorID: initiatorID,
		newKey:      uuid.NewString,
		stage:       StageUpload,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload parses the file and stages it server side. Nothing changes unless
// every step succeeds.
func (s *Session) Upload(ctx context.Context, fileName string, content []byte) (domain.ValidationSummary, error) {
	if err := s.begin("upload", StageUpload); err != nil {
		return domain.ValidationSummary{}, err
	}
	defer s.end()

	rows, err := ingest.Parse(fileName, content)
	if err != nil {
		return domain.ValidationSummary{}, err
	}

	in := memberimport.CreateImportLogInput{
		ClubID:         s.clubID,
		InitiatorID:    s.initiatorID,
		FileName:       fileName,
		FileSizeBytes:  int64(len(content)),
		IdempotencyKey: s.newKey(),
	}

	var importLogID string
	if err := s.cfg.callWithRetry(ctx, "create import log", func(ctx context.Context) error {
		id, err := s.backend.CreateImportLog(ctx, in)
		importLogID = id
		return err
	}); err != nil {
		return domain.ValidationSummary{}, err
	}

	var summary domain.ValidationSummary
	if err := s.cfg.callWithRetry(ctx, "stage rows", func(ctx context.Context) error {
		got, err := s.backend.StageAndValidate(ctx, importLogID, s.clubID, rows)
		summary = got
		return err
	}); err != nil {
		return domain.ValidationSummary{}, err
	}

	s.mu.Lock()
	s.id = importLogID
	s.fileName = fileName
	s.fileSize = in.FileSizeBytes
	s.summary = &summary
	s.result = nil
	s.stage = StagePreview
	s.mu.Unlock()

	return summary, nil
}

// Preview fetches the first staged rows. It never changes the stage.
func (s *Session) Preview(ctx context.Context) (PreviewPage, error) {
	s.mu.Lock()
	stage, id := s.stage, s.id
	s.mu.Unlock()

	if stage != StagePreview && stage != StageConfirm {
		return PreviewPage{}, &TransitionError{Op: "preview", From: stage}
	}

	var rows []domain.StagedRow
	if err := s.cfg.callWithRetry(ctx, "fetch preview", func(ctx context.Context) error {
		got, err := s.backend.FetchStagedPreview(ctx, id, s.clubID, memberimport.PreviewLimit)
		rows = got
		return err
	}); err != nil {
		return PreviewPage{}, err
	}

	return PartitionPreview(rows), nil
}

func (s *Session) CanConfirm() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage == StagePreview && s.summary != nil && s.summary.ValidRows > 0
}

func (s *Session) Confirm() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		return ErrBusy
	}
	if s.stage != StagePreview {
		return &TransitionError{Op: "confirm", From: s.stage}
	}
	if s.summary == nil || s.summary.ValidRows == 0 {
		return ErrNoValidRows
	}
	s.stage = StageConfirm
	return nil
}

// Back steps from confirm to preview, keeping the summary, or from preview
// to upload. The server side import is left as is.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		return ErrBusy
	}
	switch s.stage {
	case StageConfirm:
		s.stage = StagePreview
	case StagePreview:
		s.reset()
	default:
		return &TransitionError{Op: "go back", From: s.stage}
	}
	return nil
}

// Commit is never retried automatically; a repeated commit is rejected by
// the backend. When the backend reports the import as already committed,
// for example after an earlier attempt timed out on the client, the stored
// outcome is fetched and the session moves on to results.
func (s *Session) Commit(ctx context.Context) (domain.FinalImportResult, error) {
	if err := s.begin("commit", StageConfirm); err != nil {
		return domain.FinalImportResult{}, err
	}
	defer s.end()

	s.mu.Lock()
	id := s.id
	s.mu.Unlock()

	var result domain.FinalImportResult
	err := s.cfg.callOnce(ctx, "commit", func(ctx context.Context) error {
		got, err := s.backend.CommitImport(ctx, id, s.clubID)
		result = got
		return err
	})
	if errors.Is(err, domain.ErrAlreadyCommitted) {
		err = s.cfg.callWithRetry(ctx, "fetch import result", func(ctx context.Context) error {
			got, err := s.backend.FetchImportResult(ctx, id, s.clubID)
			result = got
			return err
		})
	}
	if err != nil {
		return domain.FinalImportResult{}, err
	}

	s.mu.Lock()
	s.result = &result
	s.stage = StageResults
	s.mu.Unlock()

	return result, nil
}

func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		return ErrBusy
	}
	s.reset()
	return nil
}

// Finish applies the action chosen on the results screen.
func (s *Session) Finish(action Action) (Action, error) {
	s.mu.Lock()
	stage := s.stage
	s.mu.Unlock()

	if stage != StageResults {
		return "", &TransitionError{Op: "finish", From: stage}
	}
	if action == ActionRestart {
		if err := s.Restart(); err != nil {
			return "", err
		}
	}
	return action, nil
}

func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

func (s *Session) ImportLogID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) SourceFile() (string, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileName, s.fileSize
}

func (s *Session) Summary() (domain.ValidationSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return domain.ValidationSummary{}, false
	}
	return *s.summary, true
}

func (s *Session) Result() (domain.FinalImportResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return domain.FinalImportResult{}, false
	}
	return *s.result, true
}

func (s *Session) begin(op string, want Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		return ErrBusy
	}
	if s.stage != want {
		return &TransitionError{Op: op, From: s.stage}
	}
	s.inFlight = true
	return nil
}

func (s *Session) end() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

func (s *Session) reset() {
	s.stage = StageUpload
	s.id = ""
	s.fileName = ""
	s.fileSize = 0
	s.summary = nil
	s.result = nil
}
