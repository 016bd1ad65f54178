package gateway

import (
	"encoding/json"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// Response is what the transport produced for a dispatched call.
type Response struct {
	Status     int
	StatusText string
	URL        string
	Data       any
}

// Codes configures the domain codes the classifier reacts to.
type Codes struct {
	// Fatal is surfaced and failed like an HTTP error.
	Fatal int
	// SessionExpired are the session-expiry sentinels.
	SessionExpired []int
}

// DefaultCodes are the codes the application server uses.
var DefaultCodes = Codes{
	Fatal:          6,
	SessionExpired: []int{10003, 10004, 10005},
}

// Classify maps a response to a Result. Statuses are checked in priority
// order: 500, 503, 401, other statuses above 300, then the domain code of the
// payload.
func Classify(resp Response, codes Codes) Result {
	switch status := resp.Status; {
	case status == http.StatusInternalServerError, status == http.StatusServiceUnavailable:
		return ServerFault{Status: status}
	case status == http.StatusUnauthorized:
		return SessionExpired{Status: status}
	case status > 300:
		return HTTPError{
			Status:     status,
			StatusText: resp.StatusText,
			URL:        resp.URL,
			Body:       bodyString(resp.Data),
		}
	}

	obj, isObject := resp.Data.(map[string]any)
	if isObject {
		code, exact, truthy := domainCode(obj["code"])
		switch {
		case exact && truthy && code == codes.Fatal:
			return DomainError{Code: code, Msg: domainMessage(obj)}
		case exact && truthy && slices.Contains(codes.SessionExpired, code):
			return SessionExpired{Code: code}
		case truthy:
			return DomainError{Code: code, Msg: domainMessage(obj)}
		}
	} else {
		obj = make(map[string]any)
	}

	obj["ok"] = true
	return Success{Data: obj}
}

// domainCode reads the "code" field. truthy follows the server's convention
// that any non-zero, non-empty code is an error. exact is set only for whole
// numbers; only those may match the fatal or session-expiry codes.
func domainCode(v any) (code int, exact, truthy bool) {
	switch c := v.(type) {
	case nil:
		return 0, false, false
	case float64:
		return int(c), c == math.Trunc(c), c != 0
	case int:
		return c, true, c != 0
	case int64:
		return int(c), true, c != 0
	case json.Number:
		if n, err := c.Int64(); err == nil {
			return int(n), true, n != 0
		}
		f, err := c.Float64()
		if err != nil {
			return 0, false, c != ""
		}
		return int(f), false, f != 0
	case string:
		if c == "" {
			return 0, false, false
		}
		n, _ := strconv.Atoi(c)
		return n, false, true
	case bool:
		return 0, false, c
	default:
		return 0, false, true
	}
}

func domainMessage(obj map[string]any) string {
	switch m := obj["msg"].(type) {
	case string:
		return m
	case nil:
		return ""
	default:
		b, err := json.Marshal(m)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func bodyString(data any) string {
	if s, ok := data.(string); ok {
		return strconv.Quote(s)
	}
	b, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return string(b)
}

func statusText(resp *http.Response) string {
	if text, ok := strings.CutPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); ok {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
