package validator

import (
	"fmt"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var visitCodeRe = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// RegisterCustom installs domain validation rules on gin's binding
// validator. Call once at startup, before the router handles requests.
func RegisterCustom() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("visitcode", func(fl validator.FieldLevel) bool {
		return visitCodeRe.MatchString(fl.Field().String())
	})
}
