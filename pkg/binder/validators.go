package binder

import (
	"net/url"
	"regexp"

	"github.com/go-playground/validator/v10"
)

const (
	httpURL      = "http_url"
	categoryName = "category_name"
)

var categoryNameRE = regexp.MustCompile(`^[\p{L}\p{N}\s\-_.,]+$`)

// urlValidator accepts absolute http and https URLs.
func urlValidator(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// categoryNameValidator allows letters, digits, whitespace and -_.,
func categoryNameValidator(fl validator.FieldLevel) bool {
	return categoryNameRE.MatchString(fl.Field().String())
}
