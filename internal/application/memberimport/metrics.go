package memberimport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	domain "github.com/mohammadpnp/member-import/internal/domain/member"
)

var (
	importLogsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "member_import",
		Subsystem: "logs",
		Name:      "created_total",
		Help:      "Import logs requested, split into newly created and reused by idempotency key.",
	}, []string{"result"})

	stagedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "member_import",
		Subsystem: "staging",
		Name:      "rows_total",
		Help:      "Rows written to staging broken down by validation outcome.",
	}, []string{"outcome"})

	commitRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "member_import",
		Subsystem: "commit",
		Name:      "runs_total",
		Help:      "Commit requests broken down by result.",
	}, []string{"result"})

	committedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "member_import",
		Subsystem: "commit",
		Name:      "rows_total",
		Help:      "Valid staged rows processed by commit broken down by outcome.",
	}, []string{"outcome"})

	welcomeDispatch = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "member_import",
		Subsystem: "welcome",
		Name:      "dispatch_total",
		Help:      "Welcome notification dispatch attempts broken down by result.",
	}, []string{"result"})
)

func recordImportLog(reused bool) {
	result := "created"
	if reused {
		result = "reused"
	}
	importLogsCreated.WithLabelValues(result).Inc()
}

func recordStagedRows(rows []domain.StagedRow) {
	for _, row := range rows {
		switch {
		case row.IsValid:
			stagedRows.WithLabelValues("valid").Inc()
		case row.IsDuplicate:
			stagedRows.WithLabelValues("duplicate").Inc()
		default:
			stagedRows.WithLabelValues("invalid").Inc()
		}
	}
}

func recordCommit(result string, outcome domain.FinalImportResult) {
	commitRuns.WithLabelValues(result).Inc()
	committedRows.WithLabelValues("created").Add(float64(outcome.SuccessCount))
	committedRows.WithLabelValues("failed").Add(float64(outcome.FailureCount))
}

func recordWelcomeDispatch(result string) {
	welcomeDispatch.WithLabelValues(result).Inc()
}
