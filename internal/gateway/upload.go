package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
)

// Upload posts a multipart body holding the file under "file" plus every
// extra field as a scalar form value.
func (c *Client) Upload(ctx context.Context, url, filename string, file io.Reader, fields map[string]any) Result {
	body, err := multipartBody(filename, file, fields)
	if err != nil {
		c.notifier.Error(ctx, err.Error())
		return TransportFailure{Err: err}
	}
	return c.Ajax(ctx, RequestSpec{URL: url, Method: http.MethodPost, Body: body}, Extend{})
}

// UploadFile opens path and uploads it. The error is only set when the file
// cannot be opened; everything after that is reported through the Result.
func (c *Client) UploadFile(ctx context.Context, url, path string, fields map[string]any) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()
	return c.Upload(ctx, url, filepath.Base(path), f, fields), nil
}

func multipartBody(filename string, file io.Reader, fields map[string]any) (rawBody, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return rawBody{}, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return rawBody{}, fmt.Errorf("failed to read upload: %w", err)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fmt.Sprint(fields[k])); err != nil {
			return rawBody{}, fmt.Errorf("failed to write field %q: %w", k, err)
		}
	}

	if err := w.Close(); err != nil {
		return rawBody{}, fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return rawBody{data: buf.Bytes(), contentType: w.FormDataContentType()}, nil
}
