package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// NTFY posts notices to an ntfy topic endpoint. Delivery failures are logged,
// never returned.
type NTFY struct {
	Endpoint string
	Client   *http.Client
	Logger   *slog.Logger
}

func (n NTFY) Error(ctx context.Context, msg string) {
	n.deliver(ctx, LevelError, msg)
}

func (n NTFY) Success(ctx context.Context, msg string) {
	n.deliver(ctx, LevelSuccess, msg)
}

func (n NTFY) deliver(ctx context.Context, level Level, msg string) {
	if err := Send(ctx, n.Client, n.Endpoint, level, msg); err != nil {
		logger := n.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Debug("failed to deliver notice", slog.String("endpoint", n.Endpoint), slog.String("error", err.Error()))
	}
}

// Send sends a message to the requested endpoint using HTTP POST.
func Send(ctx context.Context, client *http.Client, endpoint string, level Level, message string) error {
	c := client
	if c == nil {
		c = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Tags", string(level))
	if level == LevelError {
		req.Header.Set("Priority", "high")
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy notification failed: status=%d", resp.StatusCode)
	}
	return nil
}
