package gateway

import (
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/eaidesk/gateway/internal/params"
)

// RequestSpec describes one gateway call. CrossDomain is derived from URL and
// ignored on input.
type RequestSpec struct {
	URL          string            `mapstructure:"url"`
	Method       string            `mapstructure:"method"`
	Params       map[string]any    `mapstructure:"params"`
	Body         any               `mapstructure:"data"`
	Headers      map[string]string `mapstructure:"headers"`
	Loading      bool              `mapstructure:"loading"`
	Repeatable   bool              `mapstructure:"repeatable"`
	ResponseType string            `mapstructure:"responseType"`
	CrossDomain  bool              `mapstructure:"-"`
}

// Extend holds per-call overrides, keyed like RequestSpec's fields
// ("loading", "repeatable", "headers", "params", ...).
type Extend map[string]any

var defaultParams = map[string]any{"loading": false, "repeatable": false}

func (s RequestSpec) toMap() map[string]any {
	m := map[string]any{
		"url":    s.URL,
		"method": s.Method,
	}
	if s.Params != nil {
		m["params"] = s.Params
	}
	if s.Body != nil {
		m["data"] = s.Body
	}
	if s.Headers != nil {
		headers := make(map[string]any, len(s.Headers))
		for k, v := range s.Headers {
			headers[k] = v
		}
		m["headers"] = headers
	}
	if s.Loading {
		m["loading"] = true
	}
	if s.Repeatable {
		m["repeatable"] = true
	}
	if s.ResponseType != "" {
		m["responseType"] = s.ResponseType
	}
	return m
}

// buildSpec merges defaults, the call's spec and the overrides, then derives
// CrossDomain and prefixes same-origin URLs with base.
func buildSpec(base string, spec RequestSpec, extend Extend) (RequestSpec, error) {
	merged := params.DeepMerge(map[string]any{}, defaultParams, spec.toMap(), extend)

	var out RequestSpec
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return RequestSpec{}, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(merged); err != nil {
		return RequestSpec{}, fmt.Errorf("invalid request options: %w", err)
	}

	out.Method = strings.ToUpper(out.Method)
	if out.Method == "" {
		out.Method = http.MethodGet
	}
	if out.ResponseType == "" {
		out.ResponseType = "json"
	}
	out.CrossDomain = strings.HasPrefix(out.URL, "http")
	if !out.CrossDomain {
		out.URL = base + out.URL
	}
	return out, nil
}

// withQuery appends encoded params to rawURL.
func withQuery(rawURL string, p map[string]any) string {
	q := EncodeParams(p)
	if q == "" {
		return rawURL
	}
	if strings.Contains(rawURL, "?") {
		return rawURL + "&" + q
	}
	return rawURL + "?" + q
}

// EncodeParams serialises a parameter tree the way the server's form parser
// expects: nested maps use dots (a.b=1), sequences use indices (a[0]=1).
// Undefined values are skipped and nil values are sent empty.
func EncodeParams(p map[string]any) string {
	values := url.Values{}
	for _, k := range sortedKeys(p) {
		flatten(values, k, p[k])
	}
	return values.Encode()
}

func flatten(values url.Values, key string, v any) {
	switch val := v.(type) {
	case nil:
		values.Add(key, "")
	case string:
		values.Add(key, val)
	case bool:
		values.Add(key, strconv.FormatBool(val))
	case float64:
		values.Add(key, strconv.FormatFloat(val, 'f', -1, 64))
	case time.Time:
		values.Add(key, val.UTC().Format(time.RFC3339Nano))
	case fmt.Stringer:
		values.Add(key, val.String())
	case map[string]any:
		for _, k := range sortedKeys(val) {
			flatten(values, key+"."+k, val[k])
		}
	default:
		if v == params.Undefined {
			return
		}
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			for i := 0; i < rv.Len(); i++ {
				flatten(values, key+"["+strconv.Itoa(i)+"]", rv.Index(i).Interface())
			}
		case reflect.Map:
			if rv.Type().Key().Kind() != reflect.String {
				values.Add(key, fmt.Sprint(v))
				return
			}
			keys := rv.MapKeys()
			sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
			for _, mk := range keys {
				flatten(values, key+"."+mk.String(), rv.MapIndex(mk).Interface())
			}
		default:
			values.Add(key, fmt.Sprint(v))
		}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
