package engine

import (
	"github.com/gabriel-vasile/mimetype"
)

// SniffContentType detects the content type from the leading bytes of a payload.
func SniffContentType(head []byte) string {
	return mimetype.Detect(head).String()
}

// IsDocx reports whether the payload looks like a word processing OOXML package.
func IsDocx(head []byte) bool {
	return mimetype.Detect(head).Is(DocxContentType)
}
