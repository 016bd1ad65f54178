package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Get issues a GET with p as query parameters. GETs are never deduplicated.
func (c *Client) Get(ctx context.Context, url string, p map[string]any, extend Extend) Result {
	return c.Ajax(ctx, RequestSpec{URL: url, Method: http.MethodGet, Params: p}, extend)
}

// Post issues a form-encoded POST.
func (c *Client) Post(ctx context.Context, url string, p map[string]any, extend Extend) Result {
	spec := RequestSpec{URL: url, Method: http.MethodPost}
	if p != nil {
		spec.Body = formBody(EncodeParams(p))
	}
	return c.Ajax(ctx, spec, extend)
}

// PostJSON issues a POST with a JSON body.
func (c *Client) PostJSON(ctx context.Context, url string, body any, extend Extend) Result {
	return c.Ajax(ctx, RequestSpec{URL: url, Method: http.MethodPost, Body: jsonBody{body}}, extend)
}

// PatchJSON issues a PATCH with a JSON body.
func (c *Client) PatchJSON(ctx context.Context, url string, body any, extend Extend) Result {
	return c.Ajax(ctx, RequestSpec{URL: url, Method: http.MethodPatch, Body: jsonBody{body}}, extend)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, url string, extend Extend) Result {
	return c.Ajax(ctx, RequestSpec{URL: url, Method: http.MethodDelete}, extend)
}

// formBody is an already-encoded application/x-www-form-urlencoded body.
type formBody string

// jsonBody is marshalled as application/json at dispatch.
type jsonBody struct{ v any }

// rawBody is sent as is with its content type.
type rawBody struct {
	data        []byte
	contentType string
}

// Ajax is the primitive every verb funnels into. It never returns nil.
func (c *Client) Ajax(ctx context.Context, spec RequestSpec, extend Extend) Result {
	req, err := buildSpec(c.baseURL, spec, extend)
	if err != nil {
		c.logger.Error("failed to build request", slog.String("url", spec.URL), slog.String("error", err.Error()))
		return TransportFailure{Err: err}
	}

	if req.Method != http.MethodGet {
		if !c.tracker.Acquire(req.URL, !req.Repeatable) {
			c.logger.Debug("duplicate request suppressed",
				slog.String("method", req.Method),
				slog.String("url", req.URL),
			)
			return DuplicateRequest{Msg: c.duplicateMsg}
		}
		if !req.Repeatable {
			defer c.tracker.Delete(req.URL)
		}
	}

	callID := uuid.New().String()
	ctx, span := c.tracer.Start(ctx, "gateway.ajax",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("call.id", callID),
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", req.URL),
			attribute.Bool("gateway.cross_domain", req.CrossDomain),
		),
	)
	defer span.End()

	if req.Loading {
		c.indicator.Show(ctx, loadingText)
		defer c.indicator.Hide(ctx)
	}

	start := time.Now()
	resp, err := c.dispatch(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		c.logger.Warn("request failed",
			slog.String("call_id", callID),
			slog.String("method", req.Method),
			slog.String("url", req.URL),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return TransportFailure{Err: err}
	}

	result := Classify(resp, c.codes)
	outcome := c.report(ctx, result)
	span.SetAttributes(
		attribute.Int("http.response.status_code", resp.Status),
		attribute.String("gateway.outcome", outcome),
	)
	if !OK(result) {
		span.SetStatus(codes.Error, outcome)
	}
	c.logger.Info("request settled",
		slog.String("call_id", callID),
		slog.String("method", req.Method),
		slog.String("url", req.URL),
		slog.Int("status", resp.Status),
		slog.String("outcome", outcome),
		slog.Duration("duration", time.Since(start)),
	)
	return result
}

// report performs the side effects owed for a result and names its outcome.
func (c *Client) report(ctx context.Context, r Result) string {
	switch v := r.(type) {
	case Success:
		return "success"
	case ServerFault:
		c.notifier.Error(ctx, v.Notice())
		return "server_fault"
	case HTTPError:
		c.notifier.Error(ctx, v.Notice())
		return "http_error"
	case DomainError:
		c.notifier.Error(ctx, v.Msg)
		return "domain_error"
	case SessionExpired:
		c.guard.ReLogin(ctx)
		return "session_expired"
	default:
		return fmt.Sprintf("%T", r)
	}
}

func (c *Client) dispatch(ctx context.Context, req RequestSpec) (Response, error) {
	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return Response{}, err
	}

	target := withQuery(req.URL, req.Params)
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}

	client := c.httpClient
	if req.CrossDomain {
		client = c.crossClient
	} else {
		httpReq.Header = c.defaultHeaders(ctx)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if req.ResponseType == "json" {
		httpReq.Header.Set("Accept", "application/json, text/plain, */*")
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to read response: %w", err)
	}

	return Response{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		URL:        req.URL,
		Data:       decodeData(raw, req.ResponseType),
	}, nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case formBody:
		return strings.NewReader(string(b)), "application/x-www-form-urlencoded", nil
	case string:
		return strings.NewReader(b), "application/x-www-form-urlencoded", nil
	case rawBody:
		return bytes.NewReader(b.data), b.contentType, nil
	case []byte:
		return bytes.NewReader(b), "application/octet-stream", nil
	case jsonBody:
		return marshalJSON(b.v)
	default:
		return marshalJSON(b)
	}
}

func marshalJSON(v any) (io.Reader, string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

// decodeData parses a JSON payload. Payloads that are not JSON are kept as
// text so the classifier treats them as non-objects.
func decodeData(raw []byte, responseType string) any {
	if responseType != "json" {
		return string(raw)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return string(raw)
	}
	return data
}
