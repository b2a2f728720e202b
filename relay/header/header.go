// Package header provides header handling for the lovable relay.
//
// The relay sits between a browser client and the apply service:
//
//	Client <--> Relay <--> Apply Service
//
// Only a small allowlist of client headers is forwarded to the apply service,
// and the client-facing response always carries SSE stream headers.
package header

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestIDHeader correlates a generation across the relay, the apply
// service and telemetry.
const RequestIDHeader = "X-Request-Id"

// forwardRequest is the set of client request headers (client --> relay -->
// apply service) that are copied to the apply service request. The apply
// service shares the client's session, so auth and cookies travel with it.
var forwardRequest = map[string]struct{}{
	"Authorization":   {},
	"Cookie":          {},
	"Accept-Language": {},
	RequestIDHeader:   {},
}

// Handler manages headers between relay connections.
type Handler struct{}

// NewHandler creates a new header Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// ApplierRequestHeaders collects the client headers that should be forwarded
// to the apply service.
func (h *Handler) ApplierRequestHeaders(c *fiber.Ctx) http.Header {
	out := make(http.Header)
	c.Request().Header.VisitAll(func(key, value []byte) {
		k := http.CanonicalHeaderKey(string(key))
		if _, ok := forwardRequest[k]; ok {
			out.Set(k, string(value))
		}
	})
	return out
}

// SetStreamHeaders marks the client response as a persistent, uncached SSE
// stream.
func (h *Handler) SetStreamHeaders(c *fiber.Ctx) {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")
}

// RequestID returns the client's request id, generating one when the client
// did not send it. The id is echoed back on the response.
func (h *Handler) RequestID(c *fiber.Ctx) string {
	id := c.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
		c.Request().Header.Set(RequestIDHeader, id)
	}
	c.Set(RequestIDHeader, id)
	return id
}
