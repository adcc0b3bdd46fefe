package dtos

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validate checks a request body against its `binding` tags, the same tags
// gin evaluates on the store side.
func Validate(v interface{}) error {
	return validatorInstance().Struct(v)
}

// ValidateExcept is Validate with the named fields skipped, for bodies
// whose server-assigned fields are filled in later.
func ValidateExcept(v interface{}, fields ...string) error {
	return validatorInstance().StructExcept(v, fields...)
}

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.SetTagName("binding")
	})
	return validate
}
