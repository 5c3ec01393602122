package member

const DuplicateEmailMessage = "Duplicate email address"

type StagedFields struct {
	Name                string   `json:"name"`
	Email               string   `json:"email"`
	Phone               string   `json:"phone,omitempty"`
	HomeState           string   `json:"home_state,omitempty"`
	City                string   `json:"city,omitempty"`
	ClubRole            string   `json:"club_role,omitempty"`
	SignatureTechniques []string `json:"signature_techniques,omitempty"`
	EmergencyContact    string   `json:"emergency_contact,omitempty"`
	BoatRegistration    string   `json:"boat_registration,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type StagedRow struct {
	RowNumber        int          `json:"row_number"`
	Fields           StagedFields `json:"raw_fields"`
	IsValid          bool         `json:"is_valid"`
	IsDuplicate      bool         `json:"is_duplicate"`
	ValidationErrors []FieldError `json:"validation_errors"`
}

// ClassifyRow derives validity from the findings so that a duplicate is never
// valid and a row without findings always is.
func ClassifyRow(rowNumber int, fields StagedFields, fieldErrors []FieldError, duplicate bool) StagedRow {
	if fieldErrors == nil {
		fieldErrors = []FieldError{}
	}
	return StagedRow{
		RowNumber:        rowNumber,
		Fields:           fields,
		IsValid:          !duplicate && len(fieldErrors) == 0,
		IsDuplicate:      duplicate,
		ValidationErrors: fieldErrors,
	}
}

type RowIssue struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationSummary struct {
	TotalRows   int        `json:"total_rows"`
	ValidRows   int        `json:"valid_rows"`
	InvalidRows int        `json:"invalid_rows"`
	Errors      []RowIssue `json:"errors"`
}

func Summarize(rows []StagedRow) ValidationSummary {
	summary := ValidationSummary{
		TotalRows: len(rows),
		Errors:    []RowIssue{},
	}

	for _, row := range rows {
		if row.IsValid {
			summary.ValidRows++
			continue
		}

		summary.InvalidRows++
		if row.IsDuplicate {
			summary.Errors = append(summary.Errors, RowIssue{
				Row:     row.RowNumber,
				Field:   "email",
				Message: DuplicateEmailMessage,
			})
		}
		for _, fieldErr := range row.ValidationErrors {
			summary.Errors = append(summary.Errors, RowIssue{
				Row:     row.RowNumber,
				Field:   fieldErr.Field,
				Message: fieldErr.Message,
			})
		}
	}

	return summary
}

type RowFailure struct {
	Row   int    `json:"row"`
	Email string `json:"email"`
	Error string `json:"error"`
}

type FinalImportResult struct {
	SuccessCount int          `json:"success_count"`
	FailureCount int          `json:"failure_count"`
	Errors       []RowFailure `json:"errors"`
}

// Within reports whether the commit stayed inside the rows that staging
// accepted.
func (r FinalImportResult) Within(summary ValidationSummary) bool {
	return r.SuccessCount+r.FailureCount <= summary.ValidRows
}
