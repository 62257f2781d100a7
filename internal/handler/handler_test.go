package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/angeloszaimis/org-relay/internal/handler"
	"github.com/angeloszaimis/org-relay/internal/metrics"
	"github.com/angeloszaimis/org-relay/internal/upstream"
	"github.com/angeloszaimis/org-relay/pkg/logger"
)

const orgPath = "/org/Organisation"

type stubFetcher struct {
	result upstream.Result
	err    error
	calls  int
}

func (s *stubFetcher) FetchOrg(ctx context.Context) (upstream.Result, error) {
	s.calls++
	return s.result, s.err
}

func decodeError(w *httptest.ResponseRecorder) handler.ErrorResponse {
	var envelope handler.ErrorResponse
	ExpectWithOffset(1, json.Unmarshal(w.Body.Bytes(), &envelope)).To(Succeed())
	return envelope
}

var _ = Describe("RelayHandler", func() {
	var (
		server *ghttp.Server
		h      *handler.RelayHandler
	)

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		server = ghttp.NewServer()
		client := upstream.New(server.URL() + orgPath + "?orgIds=20450")
		h = handler.NewRelayHandler(logger.Discard(), client, nil)
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("NewRelayHandler", func() {
		It("should create a handler without a logger or collector", func() {
			Expect(handler.NewRelayHandler(nil, &stubFetcher{}, nil)).NotTo(BeNil())
		})
	})

	Context("when upstream returns 200 with JSON", func() {
		body := `{"orgId": 20450, "name": "Test Org"}`

		BeforeEach(func() {
			server.RouteToHandler(http.MethodGet, orgPath, ghttp.CombineHandlers(
				ghttp.VerifyHeaderKV("Accept", "application/json"),
				ghttp.RespondWith(http.StatusOK, body),
			))
		})

		It("should relay the body verbatim with status 200", func() {
			w := serve(httptest.NewRequest(http.MethodGet, "/api/org", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(Equal("application/json"))
			Expect(w.Body.String()).To(Equal(body))
			Expect(server.ReceivedRequests()).To(HaveLen(1))
		})

		It("should produce identical outcomes for repeated requests", func() {
			first := serve(httptest.NewRequest(http.MethodGet, "/api/org", nil))
			second := serve(httptest.NewRequest(http.MethodGet, "/api/org", nil))

			Expect(second.Code).To(Equal(first.Code))
			Expect(second.Body.String()).To(Equal(first.Body.String()))
			Expect(server.ReceivedRequests()).To(HaveLen(2))
		})

		It("should ignore inbound query strings, headers and bodies", func() {
			plain := serve(httptest.NewRequest(http.MethodGet, "/api/org", nil))

			noisy := httptest.NewRequest(http.MethodGet, "/api/org?orgIds=1&debug=true", strings.NewReader(`{"x":1}`))
			noisy.Header.Set("Accept", "text/html")
			noisy.Header.Set("X-Custom", "value")
			withNoise := serve(noisy)

			Expect(withNoise.Code).To(Equal(plain.Code))
			Expect(withNoise.Body.String()).To(Equal(plain.Body.String()))
			for _, req := range server.ReceivedRequests() {
				Expect(req.URL.RawQuery).To(Equal("orgIds=20450"))
				Expect(req.Header.Get("Accept")).To(Equal("application/json"))
				Expect(req.Header.Get("X-Custom")).To(BeEmpty())
			}
		})
	})

	Context("when upstream returns an error status", func() {
		DescribeTable("should answer 500 with an error envelope",
			func(status int) {
				server.RouteToHandler(http.MethodGet, orgPath, ghttp.RespondWith(status, `{"message":"upstream"}`))

				w := serve(httptest.NewRequest(http.MethodGet, "/api/org", nil))

				Expect(w.Code).To(Equal(http.StatusInternalServerError))
				Expect(w.Header().Get("Content-Type")).To(Equal("application/json"))
				Expect(decodeError(w).Error).NotTo(BeEmpty())
			},
			Entry("400", http.StatusBadRequest),
			Entry("404", http.StatusNotFound),
			Entry("500", http.StatusInternalServerError),
			Entry("503", http.StatusServiceUnavailable),
		)

		It("should describe a 503 like a status line", func() {
			server.RouteToHandler(http.MethodGet, orgPath, ghttp.RespondWith(http.StatusServiceUnavailable, nil))

			w := serve(httptest.NewRequest(http.MethodGet, "/api/org", nil))

			Expect(decodeError(w).Error).To(HavePrefix("503 Server Error: Service Unavailable for url: "))
		})

		It("should only contain the error field", func() {
			server.RouteToHandler(http.MethodGet, orgPath, ghttp.RespondWith(http.StatusNotFound, nil))

			w := serve(httptest.NewRequest(http.MethodGet, "/api/org", nil))

			var raw map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &raw)).To(Succeed())
			Expect(raw).To(HaveLen(1))
			Expect(raw).To(HaveKey("error"))
		})
	})

	Context("when upstream is unreachable", func() {
		It("should answer 500 without panicking", func() {
			dead := ghttp.NewServer()
			deadURL := dead.URL()
			dead.Close()
			h = handler.NewRelayHandler(logger.Discard(), upstream.New(deadURL), nil)

			var w *httptest.ResponseRecorder
			Expect(func() {
				w = serve(httptest.NewRequest(http.MethodGet, "/api/org", nil))
			}).NotTo(Panic())

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(decodeError(w).Error).NotTo(BeEmpty())
		})
	})

	Context("when upstream returns invalid JSON", func() {
		It("should answer 500", func() {
			server.RouteToHandler(http.MethodGet, orgPath, ghttp.RespondWith(http.StatusOK, "not json"))

			w := serve(httptest.NewRequest(http.MethodGet, "/api/org", nil))

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(decodeError(w).Error).To(ContainSubstring("invalid JSON"))
		})
	})

	Context("with a fetcher returning a plain error", func() {
		It("should still use the envelope", func() {
			stub := &stubFetcher{err: errors.New("boom")}
			h = handler.NewRelayHandler(logger.Discard(), stub, nil)

			w := serve(httptest.NewRequest(http.MethodGet, "/api/org", nil))

			Expect(stub.calls).To(Equal(1))
			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(decodeError(w).Error).To(Equal("boom"))
		})

		It("should fall back to the status text for an empty message", func() {
			h = handler.NewRelayHandler(logger.Discard(), &stubFetcher{err: errors.New("")}, nil)

			w := serve(httptest.NewRequest(http.MethodGet, "/api/org", nil))

			Expect(decodeError(w).Error).To(Equal(http.StatusText(http.StatusInternalServerError)))
		})
	})

	Context("with a metrics collector", func() {
		var (
			collector *metrics.Collector
			cancel    context.CancelFunc
		)

		BeforeEach(func() {
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			collector = metrics.NewCollector(10, logger.Discard())
			collector.Start(ctx)
		})

		AfterEach(func() {
			cancel()
		})

		It("should record successes", func() {
			stub := &stubFetcher{result: upstream.Result{StatusCode: http.StatusOK, Body: []byte(`{}`)}}
			h = handler.NewRelayHandler(logger.Discard(), stub, collector)

			serve(httptest.NewRequest(http.MethodGet, "/api/org", nil))

			Eventually(collector.Snapshot).Should(SatisfyAll(
				HaveField("TotalRequests", int64(1)),
				HaveField("UpstreamCalls", int64(1)),
				HaveField("UpstreamFailures", int64(0)),
				HaveField("ResponseCodes", HaveKeyWithValue(http.StatusOK, int64(1))),
			))
		})

		It("should record failures with the upstream status", func() {
			stub := &stubFetcher{err: &upstream.Failure{StatusCode: http.StatusBadGateway, Reason: "Bad Gateway", URL: "http://x"}}
			h = handler.NewRelayHandler(logger.Discard(), stub, collector)

			serve(httptest.NewRequest(http.MethodGet, "/api/org", nil))

			Eventually(func() int64 {
				return collector.Snapshot().UpstreamFailures
			}).Should(Equal(int64(1)))
			Expect(collector.Snapshot().StatusCodes).To(HaveKeyWithValue(http.StatusBadGateway, int64(1)))
			Eventually(func() map[int]int64 {
				return collector.Snapshot().ResponseCodes
			}).Should(HaveKeyWithValue(http.StatusInternalServerError, int64(1)))
		})
	})
})

var _ = Describe("HealthHandler", func() {
	It("should report ok", func() {
		w := httptest.NewRecorder()
		handler.NewHealthHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"status":"ok"}`))
	})
})
