package generatecmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/MikaNatus/open-lovable/pkg/progress"
	"github.com/MikaNatus/open-lovable/pkg/sse"
	"github.com/MikaNatus/open-lovable/relay"
)

// generateBody mirrors the relay's request body. Zero values are omitted so
// the relay applies its own defaults.
type generateBody struct {
	Prompt      string   `json:"prompt"`
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"maxTokens,omitempty"`
	SandboxID   string   `json:"sandboxId,omitempty"`
}

// client streams generations from a relay.
type client struct {
	target     string
	httpClient *http.Client

	// save receives a verbatim copy of the SSE stream when non-nil.
	save io.Writer
}

// stream posts body to the relay and calls handle for every progress event
// until the stream ends.
func (c *client) stream(ctx context.Context, body generateBody, handle func(progress.Event) error) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	url := strings.TrimRight(c.target, "/") + relay.GeneratePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connecting to relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e relay.ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return fmt.Errorf("relay rejected request (%d): %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("relay returned status %d", resp.StatusCode)
	}

	reader := sse.NewReader(resp.Body)
	if c.save != nil {
		reader = sse.NewTeeReader(resp.Body, c.save)
	}

	for {
		ev, err := reader.Next()
		if err != nil {
			return fmt.Errorf("reading stream: %w", err)
		}
		if ev == nil {
			return nil
		}
		if ev.Data == "" {
			continue
		}

		var pe progress.Event
		if err := json.Unmarshal([]byte(ev.Data), &pe); err != nil {
			return fmt.Errorf("decoding progress event: %w", err)
		}
		if err := handle(pe); err != nil {
			return err
		}
	}
}
