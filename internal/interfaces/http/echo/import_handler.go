package echo

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mohammadpnp/member-import/internal/application/ingest"
	"github.com/mohammadpnp/member-import/internal/application/memberimport"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type ImportHandler struct {
	create  memberimport.CreateImportLog
	upload  memberimport.UploadImport
	stage   memberimport.StageImport
	preview memberimport.FetchPreview
	commit  memberimport.CommitImport
	result  memberimport.FetchImportResult
}

type createImportLogRequest struct {
	InitiatorID   string `json:"initiator_id"`
	FileName      string `json:"file_name"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}

type stageRowsRequest struct {
	Rows []ingest.RawRow `json:"rows"`
}

type importLogResponse struct {
	ImportLogID string `json:"import_log_id"`
}

type previewResponse struct {
	Rows any `json:"rows"`
}

func NewImportHandler(
	create memberimport.CreateImportLog,
	upload memberimport.UploadImport,
	stage memberimport.StageImport,
	preview memberimport.FetchPreview,
	commit memberimport.CommitImport,
	result memberimport.FetchImportResult,
) *ImportHandler {
	return &ImportHandler{
		create:  create,
		upload:  upload,
		stage:   stage,
		preview: preview,
		commit:  commit,
		result:  result,
	}
}

func (h *ImportHandler) CreateImportLog(c echo.Context) error {
	var req createImportLogRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, CodeBadRequest, "invalid request body")
	}

	out, err := h.create.Execute(c.Request().Context(), memberimport.CreateImportLogInput{
		ClubID:         c.Param("clubID"),
		InitiatorID:    req.InitiatorID,
		FileName:       req.FileName,
		FileSizeBytes:  req.FileSizeBytes,
		IdempotencyKey: c.Request().Header.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		return respondImportError(c, err, "failed to create import log")
	}

	return c.JSON(http.StatusAccepted, apiResponse{Data: importLogResponse{ImportLogID: out.ImportLogID}})
}

// UploadImport takes the raw spreadsheet as multipart field "file" and runs
// parsing and staging server side.
func (h *ImportHandler) UploadImport(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return respondError(c, http.StatusBadRequest, CodeBadRequest, "multipart field \"file\" is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return respondError(c, http.StatusBadRequest, CodeBadRequest, "uploaded file could not be read")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return respondError(c, http.StatusBadRequest, CodeBadRequest, "uploaded file could not be read")
	}

	out, err := h.upload.Execute(c.Request().Context(), memberimport.UploadImportInput{
		ClubID:         c.Param("clubID"),
		InitiatorID:    c.FormValue("initiator_id"),
		FileName:       fileHeader.Filename,
		Content:        content,
		IdempotencyKey: c.Request().Header.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		return respondImportError(c, err, "failed to import file")
	}

	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *ImportHandler) StageRows(c echo.Context) error {
	var req stageRowsRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, CodeBadRequest, "invalid request body")
	}

	summary, err := h.stage.Execute(c.Request().Context(), memberimport.StageImportInput{
		ClubID:      c.Param("clubID"),
		ImportLogID: c.Param("importID"),
		Rows:        req.Rows,
	})
	if err != nil {
		return respondImportError(c, err, "failed to process import rows")
	}

	return c.JSON(http.StatusOK, apiResponse{Data: summary})
}

func (h *ImportHandler) FetchPreview(c echo.Context) error {
	limit := memberimport.PreviewLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return respondError(c, http.StatusBadRequest, CodeBadRequest, "limit must be an integer")
		}
		limit = parsed
	}

	rows, err := h.preview.Execute(c.Request().Context(), memberimport.FetchPreviewInput{
		ClubID:      c.Param("clubID"),
		ImportLogID: c.Param("importID"),
		Limit:       limit,
	})
	if err != nil {
		return respondImportError(c, err, "failed to fetch import preview")
	}

	return c.JSON(http.StatusOK, apiResponse{Data: previewResponse{Rows: rows}})
}

func (h *ImportHandler) CommitImport(c echo.Context) error {
	result, err := h.commit.Execute(c.Request().Context(), memberimport.CommitImportInput{
		ImportLogID: c.Param("importID"),
		ClubID:      c.Param("clubID"),
	})
	if err != nil {
		return respondImportError(c, err, "failed to commit import")
	}

	return c.JSON(http.StatusOK, apiResponse{Data: result})
}

// FetchImportResult serves the stored outcome of a finished commit.
func (h *ImportHandler) FetchImportResult(c echo.Context) error {
	result, err := h.result.Execute(c.Request().Context(), memberimport.FetchImportResultInput{
		ClubID:      c.Param("clubID"),
		ImportLogID: c.Param("importID"),
	})
	if err != nil {
		return respondImportError(c, err, "failed to fetch import result")
	}

	return c.JSON(http.StatusOK, apiResponse{Data: result})
}

func (h *ImportHandler) DownloadTemplate(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", ingest.TemplateFileName))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", ingest.GenerateTemplate())
}
