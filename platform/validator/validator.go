// Package validator wraps go-playground/validator with the rules request
// DTOs need.
package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxDomainLen = 253

var domainPattern = regexp.MustCompile(`^(?i)[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?(?:\.[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?)+$`)

type Validator struct {
	v *validator.Validate
}

// New registers the "domain" tag and reports field errors by their JSON name.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("domain", func(fl validator.FieldLevel) bool {
		return IsDomain(fl.Field().String())
	})
	return &Validator{v: v}
}

func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// IsDomain reports whether s is a bare host name such as "example.com".
// Schemes, paths and ports are rejected.
func IsDomain(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && len(s) <= maxDomainLen && domainPattern.MatchString(s)
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}
