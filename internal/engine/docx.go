package engine

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const (
	corePropsPart = "docProps/core.xml"
	appPropsPart  = "docProps/app.xml"

	// documents larger than this are refused before unzipping
	maxDocxSize = 256 << 20
)

type coreProperties struct {
	Title          string `xml:"title"`
	Subject        string `xml:"subject"`
	Creator        string `xml:"creator"`
	Keywords       string `xml:"keywords"`
	Description    string `xml:"description"`
	LastModifiedBy string `xml:"lastModifiedBy"`
	Revision       string `xml:"revision"`
	Category       string `xml:"category"`
	Created        string `xml:"created"`
	Modified       string `xml:"modified"`
	LastPrinted    string `xml:"lastPrinted"`
}

type appProperties struct {
	Application string `xml:"Application"`
	Company     string `xml:"Company"`
	Manager     string `xml:"Manager"`
	Template    string `xml:"Template"`
	TotalTime   string `xml:"TotalTime"`
	Pages       string `xml:"Pages"`
	Words       string `xml:"Words"`
	Characters  string `xml:"Characters"`
	Lines       string `xml:"Lines"`
	Paragraphs  string `xml:"Paragraphs"`
}

// DocxPropertyExtractor reads the OOXML core and extended property parts.
type DocxPropertyExtractor struct{}

var _ PropertyExtractor = (*DocxPropertyExtractor)(nil)

func NewDocxPropertyExtractor() *DocxPropertyExtractor {
	return &DocxPropertyExtractor{}
}

func (d *DocxPropertyExtractor) Extract(ctx context.Context, in io.Reader) (map[string]string, error) {
	data, err := io.ReadAll(io.LimitReader(in, maxDocxSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "reading document")
	}
	if len(data) > maxDocxSize {
		return nil, fmt.Errorf("document exceeds %d bytes", maxDocxSize)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(err, "document is not an OOXML package")
	}

	var (
		core     coreProperties
		app      appProperties
		hasParts bool
	)

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var target any
		switch f.Name {
		case corePropsPart:
			target = &core
		case appPropsPart:
			target = &app
		default:
			continue
		}

		if err := decodePart(f, target); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", f.Name)
		}
		hasParts = true
	}

	if !hasParts {
		return nil, fmt.Errorf("document has no property parts")
	}

	props := map[string]string{}
	set := func(key, value string) {
		if v := strings.TrimSpace(value); v != "" {
			props[key] = v
		}
	}

	set("title", core.Title)
	set("subject", core.Subject)
	set("creator", core.Creator)
	set("keywords", core.Keywords)
	set("description", core.Description)
	set("lastModifiedBy", core.LastModifiedBy)
	set("revision", core.Revision)
	set("category", core.Category)
	set("created", core.Created)
	set("modified", core.Modified)
	set("lastPrinted", core.LastPrinted)

	set("application", app.Application)
	set("company", app.Company)
	set("manager", app.Manager)
	set("template", app.Template)
	set("totalTime", app.TotalTime)
	set("pages", app.Pages)
	set("words", app.Words)
	set("characters", app.Characters)
	set("lines", app.Lines)
	set("paragraphs", app.Paragraphs)

	return props, nil
}

func decodePart(f *zip.File, target any) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	return xml.NewDecoder(rc).Decode(target)
}
