package validator

import (
	"mime"
	"strings"
	"unicode"

	"github.com/docpipe/docpipe/internal/blob"
	"github.com/docpipe/docpipe/internal/engine"
	"github.com/go-playground/validator/v10"
)

// fileNameValidator accepts names that still have a usable base name once any
// client side directory is stripped.
func fileNameValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	name := blob.BaseName(val)
	if strings.TrimSpace(name) == "" || name == ".." {
		return false
	}

	return strings.IndexFunc(name, unicode.IsControl) < 0
}

// docxContentTypeValidator compares the media type only, parameters are ignored.
func docxContentTypeValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(val)
	if err != nil {
		return false
	}

	return mediaType == engine.DocxContentType
}
