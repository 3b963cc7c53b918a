package blob_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/docpipe/docpipe/internal/blob"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("minio store", func() {
	It("requires a bucket", func() {
		_, err := blob.NewMinioStore(blob.WithEndpoint("localhost:9000"))
		Expect(err).NotTo(BeNil())
	})

	It("maps a missing object to ErrNotFound", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
				`<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message>` +
				`<Key>uploads/missing.docx</Key><BucketName>docpipe</BucketName><Resource>` + r.URL.Path + `</Resource></Error>`))
		}))
		defer srv.Close()

		s, err := blob.NewMinioStore(
			blob.WithEndpoint(strings.TrimPrefix(srv.URL, "http://")),
			blob.WithBucket("docpipe"),
			blob.WithAccessKey("access"),
			blob.WithSecretKey("secret"),
		)
		Expect(err).To(BeNil())
		Expect(s.Type()).To(Equal("minio"))

		_, err = s.Get(context.TODO(), "uploads/missing.docx")
		Expect(err).NotTo(BeNil())
		Expect(errors.Is(err, blob.ErrNotFound)).To(BeTrue())
	})
})
