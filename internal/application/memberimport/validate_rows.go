package memberimport

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"

	domain "github.com/mohammadpnp/member-import/internal/domain/member"
)

type rowFields struct {
	Name             string `csv:"name" validate:"required,max=255"`
	Email            string `csv:"email" validate:"required,email,max=320"`
	Phone            string `csv:"phone" validate:"max=32"`
	HomeState        string `csv:"home_state" validate:"max=64"`
	City             string `csv:"city" validate:"max=120"`
	ClubRole         string `csv:"club_role" validate:"club_role"`
	EmergencyContact string `csv:"emergency_contact" validate:"max=255"`
	BoatRegistration string `csv:"boat_registration" validate:"max=64"`
}

var rowValidator = newRowValidator()

func newRowValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("csv")
	})
	if err := v.RegisterValidation("club_role", func(fl validator.FieldLevel) bool {
		return domain.NormalizeRole(fl.Field().String()).Valid()
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidateFields returns field findings in column order.
func ValidateFields(fields domain.StagedFields) []domain.FieldError {
	err := rowValidator.Struct(rowFields{
		Name:             fields.Name,
		Email:            fields.Email,
		Phone:            fields.Phone,
		HomeState:        fields.HomeState,
		City:             fields.City,
		ClubRole:         fields.ClubRole,
		EmergencyContact: fields.EmergencyContact,
		BoatRegistration: fields.BoatRegistration,
	})
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []domain.FieldError{{Field: "row", Message: err.Error()}}
	}

	out := make([]domain.FieldError, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		out = append(out, domain.FieldError{
			Field:   fieldErr.Field(),
			Message: fieldMessage(fieldErr),
		})
	}
	return out
}

func fieldMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "email":
		return "is not a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fieldErr.Param())
	case "club_role":
		return fmt.Sprintf("unknown club role %q", fieldErr.Value())
	default:
		return "is invalid"
	}
}

// ClassifyRows validates every row and flags repeated emails, both within the
// file and against members the club already has. The first occurrence in the
// file wins.
func ClassifyRows(rows []domain.StagedFields, existing map[string]struct{}) []domain.StagedRow {
	seen := make(map[string]struct{}, len(rows))
	out := make([]domain.StagedRow, 0, len(rows))

	for i, fields := range rows {
		fieldErrs := ValidateFields(fields)

		duplicate := false
		if key := domain.EmailKey(fields.Email); key != "" {
			if _, ok := existing[key]; ok {
				duplicate = true
			}
			if _, ok := seen[key]; ok {
				duplicate = true
			}
			seen[key] = struct{}{}
		}

		out = append(out, domain.ClassifyRow(i+1, fields, fieldErrs, duplicate))
	}

	return out
}
