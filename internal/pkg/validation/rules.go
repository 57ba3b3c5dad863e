// Package validation registers the domain's custom validator tags with gin's
// binding engine.
package validation

import (
	"fmt"
	"reflect"
	"time"

	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/afterschool/sessions-api/internal/pkg/schedule"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Custom tags usable in `binding:` struct tags
const (
	TagTimezone    = "iana_tz"
	TagBlockType   = "block_type"
	TagSessionType = "session_type"
)

// Rule pairs a tag with its validation function
type Rule struct {
	Tag string
	Fn  validator.Func
}

// Rules lists every custom tag
func Rules() []Rule {
	return []Rule{
		{Tag: TagTimezone, Fn: func(fl validator.FieldLevel) bool { return IsTimezone(fl.Field().String()) }},
		{Tag: TagBlockType, Fn: func(fl validator.FieldLevel) bool { return models.BlockType(fl.Field().String()).IsValid() }},
		{Tag: TagSessionType, Fn: func(fl validator.FieldLevel) bool { return models.SessionType(fl.Field().String()).IsValid() }},
	}
}

// IsTimezone reports whether name is a loadable IANA zone. "Local" is
// rejected because it depends on the host.
func IsTimezone(name string) bool {
	if name == "" || name == "Local" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

// nullableValue lets tags on dto.Nullable fields check the wrapped value
func nullableValue(field reflect.Value) interface{} {
	if n, ok := field.Interface().(interface{ ValidationValue() interface{} }); ok {
		return n.ValidationValue()
	}
	return nil
}

// Register adds the custom tags and the nullable field types to v
func Register(v *validator.Validate) error {
	for _, rule := range Rules() {
		if err := v.RegisterValidation(rule.Tag, rule.Fn); err != nil {
			return fmt.Errorf("failed to register validation %q: %w", rule.Tag, err)
		}
	}
	v.RegisterCustomTypeFunc(nullableValue,
		dto.Nullable[int]{}, dto.Nullable[string]{}, dto.Nullable[schedule.TimeOfDay]{})
	return nil
}

// RegisterWithGin adds the custom tags to gin's default validator
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
	}
	return Register(v)
}
