package memberimport

import (
	"context"

	"github.com/mohammadpnp/member-import/internal/application/ingest"
	domain "github.com/mohammadpnp/member-import/internal/domain/member"
)

type UploadImportInput struct {
	ClubID         string
	InitiatorID    string
	FileName       string
	Content        []byte
	IdempotencyKey string
}

type UploadImportOutput struct {
	ImportLogID string                   `json:"import_log_id"`
	Summary     domain.ValidationSummary `json:"summary"`
}

// UploadImport runs parsing, log creation and staging on the server for
// clients that post the raw file instead of parsed rows.
type UploadImport interface {
	Execute(ctx context.Context, in UploadImportInput) (UploadImportOutput, error)
}

type uploadImport struct {
	create CreateImportLog
	stage  StageImport
}

func NewUploadImport(create CreateImportLog, stage StageImport) UploadImport {
	return &uploadImport{create: create, stage: stage}
}

func (uc *uploadImport) Execute(ctx context.Context, in UploadImportInput) (UploadImportOutput, error) {
	rows, err := ingest.Parse(in.FileName, in.Content)
	if err != nil {
		return UploadImportOutput{}, err
	}

	created, err := uc.create.Execute(ctx, CreateImportLogInput{
		ClubID:         in.ClubID,
		InitiatorID:    in.InitiatorID,
		FileName:       in.FileName,
		FileSizeBytes:  int64(len(in.Content)),
		IdempotencyKey: in.IdempotencyKey,
	})
	if err != nil {
		return UploadImportOutput{}, err
	}

	summary, err := uc.stage.Execute(ctx, StageImportInput{
		ClubID:      in.ClubID,
		ImportLogID: created.ImportLogID,
		Rows:        rows,
	})
	if err != nil {
		return UploadImportOutput{}, err
	}

	return UploadImportOutput{ImportLogID: created.ImportLogID, Summary: summary}, nil
}
