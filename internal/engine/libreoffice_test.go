package engine_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/docpipe/docpipe/internal/engine"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("libreoffice converter", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "docpipe-engine-")
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	// fakeSoffice writes a script that drops content into <outdir>/<stem>.pdf
	fakeSoffice := func(content string) string {
		script := filepath.Join(dir, "soffice")
		body := "#!/bin/sh\n" +
			"while [ $# -gt 1 ]; do\n" +
			"  if [ \"$1\" = \"--outdir\" ]; then out=\"$2\"; fi\n" +
			"  shift\n" +
			"done\n" +
			"mkdir -p \"$out\"\n" +
			"name=$(basename \"$1\")\n" +
			"printf '%s' '" + content + "' > \"$out/${name%.*}.pdf\"\n"
		Expect(os.WriteFile(script, []byte(body), 0o755)).To(Succeed())
		return script
	}

	It("fails when the binary does not exist", func() {
		c := engine.NewLibreOfficeConverter(filepath.Join(dir, "missing-soffice"), time.Second)
		_, err := c.Convert(context.TODO(), bytes.NewReader([]byte("doc")), "report.docx")
		Expect(err).NotTo(BeNil())
	})

	It("fails when the binary exits with an error", func() {
		script := filepath.Join(dir, "soffice")
		Expect(os.WriteFile(script, []byte("#!/bin/sh\necho boom >&2\nexit 3\n"), 0o755)).To(Succeed())

		c := engine.NewLibreOfficeConverter(script, time.Second*5)
		_, err := c.Convert(context.TODO(), bytes.NewReader([]byte("doc")), "report.docx")
		Expect(err).To(MatchError(ContainSubstring("boom")))
	})

	It("fails when the binary produces no output", func() {
		script := filepath.Join(dir, "soffice")
		Expect(os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0o755)).To(Succeed())

		c := engine.NewLibreOfficeConverter(script, time.Second*5)
		_, err := c.Convert(context.TODO(), bytes.NewReader([]byte("doc")), "report.docx")
		Expect(err).To(MatchError(ContainSubstring("no output")))
	})

	It("rejects output that is not a pdf", func() {
		c := engine.NewLibreOfficeConverter(fakeSoffice("not a pdf"), time.Second*5)
		_, err := c.Convert(context.TODO(), bytes.NewReader([]byte("doc")), "report.docx")
		Expect(err).To(MatchError(ContainSubstring("invalid pdf")))
	})

	It("times out a hanging conversion", func() {
		script := filepath.Join(dir, "soffice")
		Expect(os.WriteFile(script, []byte("#!/bin/sh\nexec sleep 10\n"), 0o755)).To(Succeed())

		c := engine.NewLibreOfficeConverter(script, 200*time.Millisecond)
		_, err := c.Convert(context.TODO(), bytes.NewReader([]byte("doc")), "report.docx")
		Expect(err).To(MatchError(ContainSubstring("timed out")))
	})
})

var _ = Describe("pdf validation", func() {
	It("rejects empty data", func() {
		_, err := engine.ValidatePDF(nil)
		Expect(err).NotTo(BeNil())
	})

	It("rejects garbage", func() {
		_, err := engine.ValidatePDF([]byte("%PDF-1.4 garbage"))
		Expect(err).NotTo(BeNil())
	})
})
