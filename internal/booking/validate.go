package booking

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"labcal/internal/model"
	"labcal/internal/timeofday"
)

var controlNumberRe = regexp.MustCompile(`^\d{8}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("controlnumber", func(fl validator.FieldLevel) bool {
		return ValidControlNumber(fl.Field().String())
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return timeofday.Valid(fl.Field().String())
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return model.Category(fl.Field().String()).Valid()
	})
	return v
}

// ValidControlNumber reports whether cn is exactly eight digits.
func ValidControlNumber(cn string) bool {
	return controlNumberRe.MatchString(cn)
}

// ValidateDraft checks everything about d that does not depend on other
// bookings: required fields, control number format, roster uniqueness, the
// declared team size and the materials list.
func ValidateDraft(d model.Draft) error {
	if err := validate.Struct(d); err != nil {
		return translate(err)
	}

	seen := make(map[string]bool, 1+len(d.TeamMembers))
	for _, cn := range d.Roster() {
		if seen[cn] {
			return invalid("teamMembers", "control number %s appears more than once in the roster", cn)
		}
		seen[cn] = true
	}

	if d.TeamSize > 0 && d.TeamSize != 1+len(d.TeamMembers) {
		return invalid("teamSize", "declared a team of %d people but the roster has %d", d.TeamSize, 1+len(d.TeamMembers))
	}

	if mats, ok := d.Materials.Get(); ok {
		if err := ValidateMaterials(mats); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMaterials checks every line of an equipment list.
func ValidateMaterials(mats []model.Material) error {
	for _, m := range mats {
		if err := validate.Struct(m); err != nil {
			return translate(err)
		}
	}
	return nil
}

// translate turns the first validator failure into a ValidationError with a
// message fit for the user.
func translate(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return invalid("", "%v", err)
	}
	fe := ves[0]
	field := fieldPath(fe.StructNamespace())

	switch fe.Tag() {
	case "controlnumber":
		return invalid(field, "control number must have exactly 8 digits")
	case "hhmm":
		return invalid(field, "time must be in HH:mm format")
	case "category":
		return invalid(field, "category must be one of Cables, Routers, Servidores, Firewall, Otros")
	case "min":
		return invalid(field, "must be at least %s", fe.Param())
	case "required":
		return invalid(field, "is required")
	default:
		return invalid(field, "failed %s check", fe.Tag())
	}
}

// fieldPath maps "Draft.Student.ControlNumber" to "student.controlNumber".
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}
