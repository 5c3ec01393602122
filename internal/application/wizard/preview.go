package wizard

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode"

	domain "github.com/mohammadpnp/member-import/internal/domain/member"
)

type PreviewPage struct {
	ValidData   []domain.StagedRow
	InvalidData []domain.StagedRow
}

// PartitionPreview keeps row order inside each half.
func PartitionPreview(rows []domain.StagedRow) PreviewPage {
	page := PreviewPage{
		ValidData:   []domain.StagedRow{},
		InvalidData: []domain.StagedRow{},
	}
	for _, row := range rows {
		if row.IsValid {
			page.ValidData = append(page.ValidData, row)
		} else {
			page.InvalidData = append(page.InvalidData, row)
		}
	}
	return page
}

func RowErrorText(row domain.StagedRow) string {
	if row.IsDuplicate {
		return domain.DuplicateEmailMessage
	}
	parts := make([]string, 0, len(row.ValidationErrors))
	for _, fieldErr := range row.ValidationErrors {
		parts = append(parts, fieldErr.Field+": "+fieldErr.Message)
	}
	return strings.Join(parts, ", ")
}

// FormatRole turns "tournament_director" into "Tournament Director".
func FormatRole(role string) string {
	words := strings.FieldsFunc(role, func(r rune) bool {
		return r == '_' || unicode.IsSpace(r)
	})
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func RenderPreview(w io.Writer, page PreviewPage) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Valid rows (%d)\n", len(page.ValidData))
	fmt.Fprintln(tw, "ROW\tNAME\tEMAIL\tHOME STATE\tROLE")
	for _, row := range page.ValidData {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			row.RowNumber,
			row.Fields.Name,
			row.Fields.Email,
			row.Fields.HomeState,
			FormatRole(string(domain.NormalizeRole(row.Fields.ClubRole))),
		)
	}
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "Invalid rows (%d)\n", len(page.InvalidData))
	fmt.Fprintln(tw, "ROW\tNAME\tEMAIL\tERRORS")
	for _, row := range page.InvalidData {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", row.RowNumber, row.Fields.Name, row.Fields.Email, RowErrorText(row))
	}

	return tw.Flush()
}
