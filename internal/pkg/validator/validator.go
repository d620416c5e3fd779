package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Review decision validation
	validate.RegisterValidation("decision", func(fl validator.FieldLevel) bool {
		d := fl.Field().String()
		return d == "approve" || d == "reject"
	})

	// Adjustment direction validation
	validate.RegisterValidation("direction", func(fl validator.FieldLevel) bool {
		d := fl.Field().String()
		return d == "credit" || d == "debit"
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email format"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gt":
			errors[field] = "Value must be greater than " + err.Param()
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "uuid":
			errors[field] = "Invalid identifier"
		case "decision":
			errors[field] = "Invalid decision. Must be: approve or reject"
		case "direction":
			errors[field] = "Invalid direction. Must be: credit or debit"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
