// Package client talks to the member import HTTP API on behalf of the
// import wizard.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mohammadpnp/member-import/internal/application/ingest"
	"github.com/mohammadpnp/member-import/internal/application/memberimport"
	"github.com/mohammadpnp/member-import/internal/application/wizard"
	domain "github.com/mohammadpnp/member-import/internal/domain/member"
)

type apiError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Columns []string `json:"columns,omitempty"`
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

type Backend struct {
	baseURL    *url.URL
	httpClient *http.Client
}

var _ wizard.Backend = (*Backend)(nil)

// NewBackend leaves deadlines to the caller's context; the wizard sets one
// per call.
func NewBackend(baseURL string, httpClient *http.Client) (*Backend, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid import api url: %q", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Backend{baseURL: u, httpClient: httpClient}, nil
}

func (b *Backend) CreateImportLog(ctx context.Context, in memberimport.CreateImportLogInput) (string, error) {
	header := http.Header{}
	if in.IdempotencyKey != "" {
		header.Set("Idempotency-Key", in.IdempotencyKey)
	}

	var out struct {
		ImportLogID string `json:"import_log_id"`
	}
	path := "/api/v1/clubs/" + url.PathEscape(in.ClubID) + "/imports"
	if err := b.doJSON(ctx, http.MethodPost, path, nil, header, in, &out, domain.ErrPersistence); err != nil {
		return "", err
	}
	return out.ImportLogID, nil
}

func (b *Backend) StageAndValidate(ctx context.Context, importLogID, clubID string, rows []ingest.RawRow) (domain.ValidationSummary, error) {
	body := struct {
		Rows []ingest.RawRow `json:"rows"`
	}{Rows: rows}

	var summary domain.ValidationSummary
	path := importPath(clubID, importLogID) + "/rows"
	if err := b.doJSON(ctx, http.MethodPost, path, nil, nil, body, &summary, domain.ErrProcessing); err != nil {
		return domain.ValidationSummary{}, err
	}
	return summary, nil
}

func (b *Backend) FetchStagedPreview(ctx context.Context, importLogID, clubID string, limit int) ([]domain.StagedRow, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	var out struct {
		Rows []domain.StagedRow `json:"rows"`
	}
	path := importPath(clubID, importLogID) + "/preview"
	if err := b.doJSON(ctx, http.MethodGet, path, query, nil, nil, &out, domain.ErrFetchPreview); err != nil {
		return nil, err
	}
	return out.Rows, nil
}

func (b *Backend) CommitImport(ctx context.Context, importLogID, clubID string) (domain.FinalImportResult, error) {
	var result domain.FinalImportResult
	path := importPath(clubID, importLogID) + "/commit"
	if err := b.doJSON(ctx, http.MethodPost, path, nil, nil, nil, &result, domain.ErrCommit); err != nil {
		return domain.FinalImportResult{}, err
	}
	return result, nil
}

func (b *Backend) FetchImportResult(ctx context.Context, importLogID, clubID string) (domain.FinalImportResult, error) {
	var result domain.FinalImportResult
	if err := b.doJSON(ctx, http.MethodGet, importPath(clubID, importLogID), nil, nil, nil, &result, domain.ErrCommit); err != nil {
		return domain.FinalImportResult{}, err
	}
	return result, nil
}

func importPath(clubID, importLogID string) string {
	return "/api/v1/clubs/" + url.PathEscape(clubID) + "/imports/" + url.PathEscape(importLogID)
}

// doJSON sends reqBody as JSON and decodes the envelope's data into out.
// opErr is the sentinel reported when the server fails for its own reasons.
func (b *Backend) doJSON(ctx context.Context, method, path string, query url.Values, header http.Header, reqBody, out any, opErr error) error {
	u := *b.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("json marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("http do: %w", ctx.Err())
		}
		return fmt.Errorf("%w: %v", wizard.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("http read: %w", ctx.Err())
		}
		return fmt.Errorf("%w: read response: %v", wizard.ErrUnavailable, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(respBody, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && env.Error != nil && env.Error.Code != "" {
			return mapAPIError(resp.StatusCode, env.Error, opErr)
		}
		return statusError(resp.StatusCode, opErr)
	}

	if decodeErr != nil {
		return fmt.Errorf("%w: decode response: %v", opErr, decodeErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode response data: %v", opErr, err)
	}
	return nil
}

func mapAPIError(status int, apiErr *apiError, opErr error) error {
	switch apiErr.Code {
	case "missing_columns":
		return &ingest.MissingColumnsError{Columns: apiErr.Columns}
	case "unsupported_format":
		return fmt.Errorf("%w: %s", ingest.ErrUnsupportedFormat, apiErr.Message)
	case "empty_file":
		return ingest.ErrEmptyFile
	case "invalid_import":
		if status == http.StatusConflict {
			return memberimport.ErrImportNotStageable
		}
		return fmt.Errorf("%w: %s", memberimport.ErrInvalidImportInput, apiErr.Message)
	case "not_found":
		return domain.ErrImportNotFound
	case "commit_in_progress":
		return domain.ErrCommitInProgress
	case "already_committed":
		return domain.ErrAlreadyCommitted
	case "rate_limited":
		return fmt.Errorf("%w: %s", wizard.ErrUnavailable, apiErr.Message)
	}
	return fmt.Errorf("%w: %s (http status %d)", opErr, apiErr.Message, status)
}

// statusError treats gateway failures as retryable unavailability.
func statusError(status int, opErr error) error {
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: http status %d", wizard.ErrUnavailable, status)
	}
	return fmt.Errorf("%w: http status %d", opErr, status)
}
