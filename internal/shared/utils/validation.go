package utils

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// usernameRegex allows letters, digits, dots, underscores and hyphens.
// OAuth display names are normalized before they reach this check.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]{2,64}$`)

// RegisterValidators installs custom validation tags on gin's binding engine.
// Call once at startup, before routes are registered.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// Tag `username` is used by the registration request binding.
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernameRegex.MatchString(fl.Field().String())
		})
	}
}

// IsValidUsername reports whether s is acceptable as a stored username.
func IsValidUsername(s string) bool {
	return usernameRegex.MatchString(s)
}
