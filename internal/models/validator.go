package models

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var hhmmPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// IsHHMM reports whether value is a zero-padded 24-hour clock time.
func IsHHMM(value string) bool {
	return hhmmPattern.MatchString(value)
}

// NewValidator returns a validator with the custom tags used by request payloads.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return IsHHMM(fl.Field().String())
	})
	return v
}
