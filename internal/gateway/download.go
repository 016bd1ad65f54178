package gateway

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/eaidesk/gateway/internal/inflight"
)

const downloadContentType = "application/json; application/octet-stream"

// Saver stores a downloaded file.
type Saver interface {
	Save(ctx context.Context, name string, r io.Reader) error
}

// DirSaver writes downloads into Dir, keeping only the base of the name.
type DirSaver struct {
	Dir string
}

func (s DirSaver) Save(ctx context.Context, name string, r io.Reader) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create download dir: %w", err)
	}
	f, err := os.Create(filepath.Join(s.Dir, filepath.Base(name)))
	if err != nil {
		return fmt.Errorf("failed to create download: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("failed to write download: %w", err)
	}
	return f.Close()
}

// Download fetches api as a binary and hands it to the Saver. method is GET
// (params in the query) or POST (params as a JSON body); empty means GET.
// Every failure has already been surfaced through the notifier when Download
// returns; the error is for logging and tests.
func (c *Client) Download(ctx context.Context, api, method string, p map[string]any, headers map[string]string) error {
	method = strings.ToUpper(method)
	if method == "" {
		method = http.MethodGet
	}
	if method != http.MethodGet && method != http.MethodPost {
		c.logger.Error("unsupported download method", slog.String("method", method), slog.String("api", api))
		return ErrUnsupportedMethod
	}

	target := c.baseURL + api
	var body io.Reader
	if method == http.MethodGet {
		target = withQuery(target, p)
	} else {
		r, _, err := marshalJSON(p)
		if err != nil {
			c.notifier.Error(ctx, err.Error())
			return err
		}
		body = r
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		c.notifier.Error(ctx, err.Error())
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = c.defaultHeaders(ctx)
	req.Header.Set("Content-Type", downloadContentType)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.notifier.Error(ctx, err.Error())
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if msg := resp.Header.Get("error-msg"); msg != "" {
		msg = decodeHeaderMessage(msg)
		c.notifier.Error(ctx, msg)
		return fmt.Errorf("download rejected: %s", msg)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("request failed with status code %d", resp.StatusCode)
		c.notifier.Error(ctx, err.Error())
		return err
	}

	name := DownloadName(api, c.prefixLength)
	if err := c.saver.Save(ctx, name, resp.Body); err != nil {
		c.notifier.Error(ctx, err.Error())
		return err
	}
	c.logger.Info("download saved", slog.String("api", api), slog.String("name", name))
	c.notifier.Success(ctx, "Downloaded "+name)
	return nil
}

// DownloadName derives the saved file name from the last path segment of api,
// dropping a server-generated prefix of prefixLength characters.
func DownloadName(api string, prefixLength int) string {
	tail := inflight.ExtractURL(api)
	tail = tail[strings.LastIndex(tail, "/")+1:]
	if prefixLength > 0 {
		if prefixLength >= len(tail) {
			tail = ""
		} else {
			tail = tail[prefixLength:]
		}
	}
	if decoded, err := url.PathUnescape(tail); err == nil {
		tail = decoded
	}
	if tail == "" {
		return "download"
	}
	return tail
}

// decodeHeaderMessage undoes the server's URI-component encoding, where
// spaces may arrive as '+'.
func decodeHeaderMessage(msg string) string {
	if decoded, err := url.PathUnescape(msg); err == nil {
		msg = decoded
	}
	return strings.ReplaceAll(msg, "+", " ")
}
