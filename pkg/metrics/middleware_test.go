package metrics_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/docpipe/docpipe/pkg/metrics"
	"github.com/go-chi/chi/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var _ = Describe("metrics middleware", func() {
	var (
		m      *metrics.Middleware
		router chi.Router
	)

	BeforeEach(func() {
		m = metrics.NewMiddleware("test")
		reg := prometheus.NewRegistry()
		reg.MustRegister(m.Collectors()...)

		router = chi.NewRouter()
		router.Use(m.Handler)
		router.Get("/status/{fileId}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	})

	It("records requests under the route pattern", func() {
		for _, id := range []string{"a", "b"} {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status/"+id, nil))
			Expect(rr.Code).To(Equal(http.StatusNotFound))
		}

		Expect(testutil.CollectAndCount(m.Collectors()[0])).To(Equal(1))
		Expect(testutil.CollectAndCount(m.Collectors()[1])).To(Equal(1))
	})

	It("ignores requests that match no route", func() {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
		Expect(rr.Code).To(Equal(http.StatusNotFound))

		Expect(testutil.CollectAndCount(m.Collectors()[0])).To(Equal(0))
	})
})
