package calibration

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"calibration-backend/internal/model"
	"calibration-backend/internal/parse"
)

// validate is shared by all input types of this package.
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report fields by their wire names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	_ = validate.RegisterValidation("frequency", func(fl validator.FieldLevel) bool {
		return model.Frequency(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := parse.Date(fl.Field().String())
		return err == nil
	})
}

// validateInput runs struct validation and folds the result into a single
// ValidationError naming every offending field.
func validateInput(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return validationError(err.Error())
	}

	var missing, malformed []string
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		} else {
			malformed = append(malformed, fe.Field())
		}
	}
	sort.Strings(missing)
	sort.Strings(malformed)

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(missing, ", "))
	}
	if len(malformed) > 0 {
		parts = append(parts, "malformed fields: "+strings.Join(malformed, ", "))
	}
	return validationError(strings.Join(parts, "; "), append(missing, malformed...)...)
}
