package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mohammadpnp/member-import/internal/application/ingest"
	domain "github.com/mohammadpnp/member-import/internal/domain/member"
)

// UserMessage turns a wizard error into text for the person running the
// import, including what to do next.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var missing *ingest.MissingColumnsError
	if errors.As(err, &missing) {
		return fmt.Sprintf("The file is missing required columns: %s. Add them to the header row and upload again.",
			strings.Join(missing.Columns, ", "))
	}

	switch {
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return "Only .csv and .xlsx files are supported. Save the sheet in one of those formats and upload again."
	case errors.Is(err, ingest.ErrEmptyFile):
		return "The file has no member rows. Add at least one row below the header and upload again."
	case errors.Is(err, ErrNoValidRows):
		return "No rows passed validation. Fix the source file and import it again."
	case errors.Is(err, ErrBusy), errors.Is(err, domain.ErrCommitInProgress):
		return "This import is already being processed. Wait for it to finish."
	case errors.Is(err, domain.ErrAlreadyCommitted):
		return "This import was already committed. Start a new import to add more members."
	case errors.Is(err, domain.ErrImportNotFound):
		return "The import could not be found. Upload the file again."
	case errors.Is(err, ErrTimeout):
		return "The import service did not respond in time. Try again; a retried commit reports the outcome of the earlier attempt."
	case errors.Is(err, ErrUnavailable):
		return "The import service is unreachable. Check your connection and try again."
	case errors.Is(err, domain.ErrPersistence), errors.Is(err, domain.ErrProcessing):
		return "The server could not process the file. Upload it again."
	case errors.Is(err, domain.ErrFetchPreview):
		return "The preview could not be loaded. Try again."
	case errors.Is(err, domain.ErrCommit):
		return "The import could not be committed. Retry the commit."
	case errors.Is(err, ErrInvalidTransition):
		return "That step is not available right now."
	default:
		return "Something went wrong. Try again."
	}
}
