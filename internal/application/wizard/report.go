package wizard

import (
	"fmt"
	"io"

	domain "github.com/mohammadpnp/member-import/internal/domain/member"
)

type Action string

const (
	ActionRestart Action = "restart"
	ActionDone    Action = "done"
)

type Report struct {
	SuccessCount int
	FailureCount int
	SuccessRate  float64
	Failures     []domain.RowFailure
}

// SuccessRate is a percentage; an empty result has a rate of 0.
func SuccessRate(result domain.FinalImportResult) float64 {
	total := result.SuccessCount + result.FailureCount
	if total == 0 {
		return 0
	}
	return float64(result.SuccessCount) / float64(total) * 100
}

func NewReport(result domain.FinalImportResult) Report {
	failures := result.Errors
	if failures == nil {
		failures = []domain.RowFailure{}
	}
	return Report{
		SuccessCount: result.SuccessCount,
		FailureCount: result.FailureCount,
		SuccessRate:  SuccessRate(result),
		Failures:     failures,
	}
}

func RenderReport(w io.Writer, report Report) error {
	if _, err := fmt.Fprintf(w, "Imported: %d\nFailed: %d\nSuccess rate: %.1f%%\n",
		report.SuccessCount, report.FailureCount, report.SuccessRate); err != nil {
		return err
	}
	if len(report.Failures) == 0 {
		return nil
	}

	if _, err := fmt.Fprintln(w, "Errors:"); err != nil {
		return err
	}
	for _, failure := range report.Failures {
		if _, err := fmt.Fprintf(w, "  Row %d (%s): %s\n", failure.Row, failure.Email, failure.Error); err != nil {
			return err
		}
	}
	return nil
}
