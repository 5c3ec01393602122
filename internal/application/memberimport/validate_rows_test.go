package memberimport_test

import (
	"strings"
	"testing"

	app "github.com/mohammadpnp/member-import/internal/application/memberimport"
	domain "github.com/mohammadpnp/member-import/internal/domain/member"
)

func TestValidateFieldsUsesColumnKeys(t *testing.T) {
	t.Parallel()

	errs := app.ValidateFields(domain.StagedFields{Email: "not-an-email", ClubRole: "admiral"})
	if len(errs) != 3 {
		t.Fatalf("expected 3 findings, got %+v", errs)
	}

	want := []domain.FieldError{
		{Field: "name", Message: "is required"},
		{Field: "email", Message: "is not a valid email address"},
		{Field: "club_role", Message: `unknown club role "admiral"`},
	}
	for i := range want {
		if errs[i] != want[i] {
			t.Fatalf("finding %d: expected %+v, got %+v", i, want[i], errs[i])
		}
	}
}

func TestValidateFieldsMaxLength(t *testing.T) {
	t.Parallel()

	errs := app.ValidateFields(domain.StagedFields{
		Name:  "Alice",
		Email: "alice@example.com",
		Phone: strings.Repeat("5", 40),
	})
	if len(errs) != 1 || errs[0].Field != "phone" || errs[0].Message != "must be at most 32 characters" {
		t.Fatalf("unexpected findings: %+v", errs)
	}
}

func TestValidateFieldsAcceptsSpacedRole(t *testing.T) {
	t.Parallel()

	errs := app.ValidateFields(domain.StagedFields{Name: "Alice", Email: "alice@example.com", ClubRole: "Vice President"})
	if len(errs) != 0 {
		t.Fatalf("expected no findings, got %+v", errs)
	}
}

func TestClassifyRowsFirstOccurrenceWins(t *testing.T) {
	t.Parallel()

	rows := app.ClassifyRows([]domain.StagedFields{
		{Name: "Alice", Email: "alice@example.com"},
		{Name: "Bob", Email: "bob@example.com"},
		{Name: "Alice 2", Email: " Alice@Example.com"},
	}, map[string]struct{}{"bob@example.com": {}})

	if !rows[0].IsValid || rows[0].IsDuplicate {
		t.Fatalf("first row should be valid: %+v", rows[0])
	}
	if !rows[1].IsDuplicate || rows[1].IsValid {
		t.Fatalf("existing member should be a duplicate: %+v", rows[1])
	}
	if !rows[2].IsDuplicate || rows[2].IsValid {
		t.Fatalf("repeated email should be a duplicate: %+v", rows[2])
	}
	for i, row := range rows {
		if row.RowNumber != i+1 {
			t.Fatalf("expected row number %d, got %d", i+1, row.RowNumber)
		}
	}
}
