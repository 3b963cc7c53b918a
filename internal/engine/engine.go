package engine

import (
	"context"
	"io"
)

const (
	DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	PDFContentType  = "application/pdf"
)

// Result is a converted document.
type Result struct {
	Data  []byte
	Pages int
}

// Converter turns a document into PDF bytes.
type Converter interface {
	Convert(ctx context.Context, in io.Reader, fileName string) (*Result, error)
}

// PropertyExtractor reads descriptive properties out of a document.
type PropertyExtractor interface {
	Extract(ctx context.Context, in io.Reader) (map[string]string, error)
}
