package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/docpipe/docpipe/internal/blob"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func init() {
	// pdfcpu must not try to create its config dir in the home of the service user
	api.DisableConfigDir()
}

// LibreOfficeConverter shells out to a headless soffice.
type LibreOfficeConverter struct {
	binary  string
	timeout time.Duration
}

var _ Converter = (*LibreOfficeConverter)(nil)

func NewLibreOfficeConverter(binary string, timeout time.Duration) *LibreOfficeConverter {
	if binary == "" {
		binary = "soffice"
	}
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &LibreOfficeConverter{binary: binary, timeout: timeout}
}

func (c *LibreOfficeConverter) Convert(ctx context.Context, in io.Reader, fileName string) (*Result, error) {
	workDir, err := os.MkdirTemp("", "docpipe-convert-")
	if err != nil {
		return nil, errors.Wrap(err, "creating work dir")
	}
	defer os.RemoveAll(workDir)

	name := blob.BaseName(fileName)
	if name == "" {
		name = "document.docx"
	}
	inputPath := filepath.Join(workDir, name)
	outDir := filepath.Join(workDir, "out")

	if err := writeFile(inputPath, in); err != nil {
		return nil, errors.Wrap(err, "writing input")
	}

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// each run gets its own profile so parallel conversions do not fight over the user lock
	cmd := exec.CommandContext(runCtx, c.binary,
		"-env:UserInstallation=file://"+filepath.ToSlash(filepath.Join(workDir, "profile")),
		"--headless", "--norestore", "--nologo",
		"--convert-to", "pdf",
		"--outdir", outDir,
		inputPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	zap.S().Named("libreoffice").Debugw("converting document", "file", name, "binary", c.binary)
	if err := cmd.Run(); err != nil {
		if runCtx.Err() != nil {
			return nil, errors.Wrapf(runCtx.Err(), "conversion of %s timed out", name)
		}
		return nil, errors.Wrapf(err, "soffice failed: %s", strings.TrimSpace(stderr.String()))
	}

	data, err := os.ReadFile(filepath.Join(outDir, blob.PDFName(name)))
	if err != nil {
		return nil, errors.Wrap(err, "soffice produced no output")
	}

	pages, err := ValidatePDF(data)
	if err != nil {
		return nil, err
	}

	return &Result{Data: data, Pages: pages}, nil
}

// ValidatePDF checks that data parses as a PDF and returns its page count.
func ValidatePDF(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("empty pdf")
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pages, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, errors.Wrap(err, "invalid pdf output")
	}
	if pages == 0 {
		return 0, fmt.Errorf("pdf output has no pages")
	}
	return pages, nil
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
