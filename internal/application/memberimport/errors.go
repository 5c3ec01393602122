package memberimport

import "errors"

var (
	ErrInvalidImportInput = errors.New("invalid import input")
	ErrImportNotStageable = errors.New("import can no longer be staged")
)
