package echo

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mohammadpnp/member-import/internal/application/ingest"
	"github.com/mohammadpnp/member-import/internal/application/memberimport"
	domain "github.com/mohammadpnp/member-import/internal/domain/member"
	"github.com/mohammadpnp/member-import/internal/logging"
)

// Error codes returned in the envelope. Clients switch on these, not on
// messages.
const (
	CodeBadRequest        = "bad_request"
	CodeUnsupportedFormat = "unsupported_format"
	CodeEmptyFile         = "empty_file"
	CodeMissingColumns    = "missing_columns"
	CodeInvalidImport     = "invalid_import"
	CodeNotFound          = "not_found"
	CodeCommitInProgress  = "commit_in_progress"
	CodeAlreadyCommitted  = "already_committed"
	CodeRateLimited       = "rate_limited"
	CodeInternalError     = "internal_error"
)

type errorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Columns []string `json:"columns,omitempty"`
}

type apiResponse struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

func respondError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, apiResponse{Error: &errorBody{Code: code, Message: message}})
}

// respondImportError maps import errors to a status and code. Anything not
// recognised is logged and reported with fallback as its message.
func respondImportError(c echo.Context, err error, fallback string) error {
	var missing *ingest.MissingColumnsError
	switch {
	case errors.As(err, &missing):
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    CodeMissingColumns,
			Message: "missing required columns: " + strings.Join(missing.Columns, ", "),
			Columns: missing.Columns,
		}})
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return respondError(c, http.StatusBadRequest, CodeUnsupportedFormat, "only .csv and .xlsx files are supported")
	case errors.Is(err, ingest.ErrEmptyFile):
		return respondError(c, http.StatusBadRequest, CodeEmptyFile, ingest.ErrEmptyFile.Error())
	case errors.Is(err, memberimport.ErrInvalidImportInput):
		return respondError(c, http.StatusBadRequest, CodeInvalidImport, err.Error())
	case errors.Is(err, memberimport.ErrImportNotStageable):
		return respondError(c, http.StatusConflict, CodeInvalidImport, memberimport.ErrImportNotStageable.Error())
	case errors.Is(err, domain.ErrImportNotFound):
		return respondError(c, http.StatusNotFound, CodeNotFound, "import not found")
	case errors.Is(err, domain.ErrCommitInProgress):
		return respondError(c, http.StatusConflict, CodeCommitInProgress, domain.ErrCommitInProgress.Error())
	case errors.Is(err, domain.ErrAlreadyCommitted):
		return respondError(c, http.StatusConflict, CodeAlreadyCommitted, domain.ErrAlreadyCommitted.Error())
	}

	logging.FromContext(c.Request().Context()).WithError(err).Error(fallback)
	return respondError(c, http.StatusInternalServerError, CodeInternalError, fallback)
}
