package header

import (
	"net/http"
	"net/http/httptest"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Handler", func() {
	var (
		app *fiber.App
		hh  *Handler
	)

	BeforeEach(func() {
		app = fiber.New()
		hh = NewHandler()
	})

	AfterEach(func() {
		app.Shutdown()
	})

	Describe("ApplierRequestHeaders", func() {
		It("forwards only allowlisted headers", func() {
			var got http.Header

			app.Post("/test", func(c *fiber.Ctx) error {
				got = hh.ApplierRequestHeaders(c)
				return c.SendStatus(fiber.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/test", nil)
			req.Header.Set("Authorization", "Bearer token123")
			req.Header.Set("Cookie", "session=abc")
			req.Header.Set("X-Request-Id", "req-1")
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept-Encoding", "gzip")
			req.Header.Set("X-Api-Key", "secret")

			resp, err := app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()

			Expect(got.Get("Authorization")).To(Equal("Bearer token123"))
			Expect(got.Get("Cookie")).To(Equal("session=abc"))
			Expect(got.Get("X-Request-Id")).To(Equal("req-1"))
			Expect(got.Get("Content-Type")).To(BeEmpty())
			Expect(got.Get("Accept-Encoding")).To(BeEmpty())
			Expect(got.Get("X-Api-Key")).To(BeEmpty())
		})
	})

	Describe("SetStreamHeaders", func() {
		It("sets SSE response headers", func() {
			app.Get("/test", func(c *fiber.Ctx) error {
				hh.SetStreamHeaders(c)
				return c.SendString("data: {}\n\n")
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.Header.Get("Content-Type")).To(Equal("text/event-stream"))
			Expect(resp.Header.Get("Cache-Control")).To(Equal("no-cache"))
		})
	})

	Describe("RequestID", func() {
		It("echoes a client supplied id", func() {
			var id string
			app.Get("/test", func(c *fiber.Ctx) error {
				id = hh.RequestID(c)
				return c.SendStatus(fiber.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("X-Request-Id", "abc")
			resp, err := app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()

			Expect(id).To(Equal("abc"))
			Expect(resp.Header.Get("X-Request-Id")).To(Equal("abc"))
		})

		It("generates an id and forwards it", func() {
			var (
				id  string
				fwd http.Header
			)
			app.Get("/test", func(c *fiber.Ctx) error {
				id = hh.RequestID(c)
				fwd = hh.ApplierRequestHeaders(c)
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()

			_, err = uuid.Parse(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Header.Get("X-Request-Id")).To(Equal(id))
			Expect(fwd.Get("X-Request-Id")).To(Equal(id))
		})
	})
})
