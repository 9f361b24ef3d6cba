package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/opentna/internal"
	"github.com/frahmantamala/opentna/internal/transport/middleware"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Middleware Suite")
}

var _ = Describe("Middleware", func() {
	var (
		logs   *bytes.Buffer
		logger *slog.Logger
	)

	BeforeEach(func() {
		logs = &bytes.Buffer{}
		logger = slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	})

	Describe("RecoveryMiddleware", func() {
		It("should turn a panic into a 500 error body", func() {
			h := middleware.RecoveryMiddleware(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				panic("boom")
			}))

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			var resp map[string]map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["error"]["code"]).To(Equal(string(internal.ErrCodeInternal)))
			Expect(logs.String()).To(ContainSubstring("panic recovered"))
		})
	})

	Describe("LoggingMiddleware", func() {
		It("should mask credentials in logged bodies", func() {
			h := middleware.LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"id":1}`))
			}))

			req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"username":"alice","password":"czNjcmV0"}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(logs.String()).NotTo(ContainSubstring("czNjcmV0"))
		})
	})

	Describe("Timeout", func() {
		It("should bound the request context", func() {
			var deadline time.Time
			var ok bool
			h := middleware.Timeout(time.Minute)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				deadline, ok = r.Context().Deadline()
			}))

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
			Expect(ok).To(BeTrue())
			Expect(deadline).To(BeTemporally("~", time.Now().Add(time.Minute), 5*time.Second))
		})
	})

	Describe("RequestID", func() {
		It("should expose the trace id to handlers", func() {
			var seen string
			h := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen = middleware.TraceIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(middleware.TraceHeader, "abc")
			h.ServeHTTP(httptest.NewRecorder(), req)
			Expect(seen).To(Equal("abc"))
			Expect(middleware.TraceIDFromContext(context.Background())).To(BeEmpty())
		})
	})

	Describe("RateLimit", func() {
		ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

		hit := func(h http.Handler, ip string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/attendance/swipes", nil)
			req.RemoteAddr = ip + ":40000"
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			return w
		}

		It("should pass everything through when disabled", func() {
			h := middleware.RateLimit(internal.RateLimitConfig{}, middleware.ClientIP, logger)(ok)
			for i := 0; i < 10; i++ {
				Expect(hit(h, "10.0.0.1").Code).To(Equal(http.StatusNoContent))
			}
		})

		It("should limit each client separately", func() {
			cfg := internal.RateLimitConfig{Enabled: true, Rate: 0.001, Burst: 1}
			h := middleware.RateLimit(cfg, middleware.ClientIP, logger)(ok)

			Expect(hit(h, "10.0.0.1").Code).To(Equal(http.StatusNoContent))
			limited := hit(h, "10.0.0.1")
			Expect(limited.Code).To(Equal(http.StatusTooManyRequests))
			Expect(limited.Header().Get("Retry-After")).NotTo(BeEmpty())

			Expect(hit(h, "10.0.0.2").Code).To(Equal(http.StatusNoContent))
		})
	})

	Describe("ClientIP", func() {
		It("should prefer forwarding headers", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.0.2.10:1234"
			Expect(middleware.ClientIP(req)).To(Equal("192.0.2.10"))

			req.Header.Set("X-Real-IP", "198.51.100.7")
			Expect(middleware.ClientIP(req)).To(Equal("198.51.100.7"))

			req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
			Expect(middleware.ClientIP(req)).To(Equal("203.0.113.5"))
		})
	})
})
