package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "leadgate/pkg/domain-errors"
	s "leadgate/pkg/string"
)

var defaultValidator = newValidator()

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ().-]{6,18}[0-9]$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("accepted", func(fl validator.FieldLevel) bool {
		return fl.Field().Kind() == reflect.Bool && fl.Field().Bool()
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	return v
}

// Validate validates a struct using the default validator and returns a domain error
func Validate(req any) error {
	if err := defaultValidator.Struct(req); err != nil {
		return dErrors.New(dErrors.CodeValidation, ErrorMessage(err))
	}
	return nil
}

// ErrorMessage converts the first validator failure into a French message
// that can be shown to the visitor as-is.
func ErrorMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return "Les données envoyées sont invalides."
	}

	fe := validationErrs[0]
	field := fe.Field()
	if field == "" {
		field = s.Humanize(fe.StructField())
	}

	switch fe.ActualTag() {
	case "required", "notblank":
		return fmt.Sprintf("Le champ %s est requis.", field)
	case "email":
		return fmt.Sprintf("Le champ %s doit être une adresse e-mail valide.", field)
	case "phone":
		return fmt.Sprintf("Le champ %s doit être un numéro de téléphone valide.", field)
	case "accepted":
		return "Vous devez accepter les conditions générales."
	case "min":
		return fmt.Sprintf("Le champ %s doit contenir au moins %s caractères.", field, fe.Param())
	case "max":
		return fmt.Sprintf("Le champ %s ne doit pas dépasser %s caractères.", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("Le champ %s doit valoir l'une des valeurs : %s.", field, fe.Param())
	default:
		return fmt.Sprintf("Le champ %s est invalide.", field)
	}
}
