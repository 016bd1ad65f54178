// Package gateway is the single chokepoint for calls to the application
// server. It builds requests, suppresses duplicate mutations, attaches session
// headers, and classifies every response into a Result.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/eaidesk/gateway/internal/inflight"
	"github.com/eaidesk/gateway/internal/notify"
	"github.com/eaidesk/gateway/internal/safehttp"
	"github.com/eaidesk/gateway/internal/session"
	"github.com/eaidesk/gateway/internal/storage"
)

const (
	defaultSystemCode       = "eai"
	defaultTokenHeader      = "AccessToken"
	defaultDuplicateMessage = "Duplicate request"
	defaultPrefixLength     = 20
	loadingText             = "Loading..."
)

// ErrUnsupportedMethod is returned by Download for methods other than GET and POST.
var ErrUnsupportedMethod = errors.New("only GET or POST downloads are supported")

// TokenSource supplies the current session token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Indicator shows a blocking loading hint around a call.
type Indicator interface {
	Show(ctx context.Context, text string)
	Hide(ctx context.Context)
}

type noIndicator struct{}

func (noIndicator) Show(context.Context, string) {}
func (noIndicator) Hide(context.Context)         {}

// ReLoginer is the session guard contract the gateway depends on.
type ReLoginer interface {
	ReLogin(ctx context.Context) bool
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL sets the prefix for same-origin URLs.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client. It is used as given.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithCrossDomainGuard routes absolute-URL calls through a transport that
// refuses private and loopback addresses. The guarded client keeps the
// timeout of the main HTTP client.
func WithCrossDomainGuard() Option {
	return func(c *Client) {
		c.crossGuard = true
	}
}

// WithTracker shares an in-flight tracker.
func WithTracker(t *inflight.Tracker) Option {
	return func(c *Client) {
		c.tracker = t
	}
}

// WithGuard sets the session guard invoked on expired sessions.
func WithGuard(g ReLoginer) Option {
	return func(c *Client) {
		c.guard = g
	}
}

// WithTokens sets where the session token is read from.
func WithTokens(t TokenSource) Option {
	return func(c *Client) {
		c.tokens = t
	}
}

// WithNotifier sets the notice sink.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) {
		c.notifier = n
	}
}

// WithIndicator sets the loading indicator.
func WithIndicator(i Indicator) Option {
	return func(c *Client) {
		c.indicator = i
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithSystemCode sets the SystemCode header value.
func WithSystemCode(code string) Option {
	return func(c *Client) {
		c.systemCode = code
	}
}

// WithTokenHeader sets the name of the session token header.
func WithTokenHeader(name string) Option {
	return func(c *Client) {
		c.tokenHeader = name
	}
}

// WithCodes sets the domain codes the classifier reacts to.
func WithCodes(codes Codes) Option {
	return func(c *Client) {
		c.codes = codes
	}
}

// WithDuplicateMessage sets the msg of the duplicate-request sentinel.
func WithDuplicateMessage(msg string) Option {
	return func(c *Client) {
		c.duplicateMsg = msg
	}
}

// WithSaver sets where downloads are written.
func WithSaver(s Saver) Option {
	return func(c *Client) {
		c.saver = s
	}
}

// WithDownloadPrefixLength sets how many leading characters of a download's
// file name are a server-generated prefix.
func WithDownloadPrefixLength(n int) Option {
	return func(c *Client) {
		c.prefixLength = n
	}
}

// Client dispatches calls to the application server.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	crossClient  *http.Client
	crossGuard   bool
	tracker      *inflight.Tracker
	guard        ReLoginer
	tokens       TokenSource
	notifier     notify.Notifier
	indicator    Indicator
	logger       *slog.Logger
	tracer       trace.Tracer
	systemCode   string
	tokenHeader  string
	codes        Codes
	duplicateMsg string
	saver        Saver
	prefixLength int
}

// New creates a client. Without WithHTTPClient it uses an instrumented
// default transport; status codes never produce transport errors.
func New(opts ...Option) *Client {
	c := &Client{
		systemCode:   defaultSystemCode,
		tokenHeader:  defaultTokenHeader,
		codes:        DefaultCodes,
		duplicateMsg: defaultDuplicateMessage,
		prefixLength: defaultPrefixLength,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	c.crossClient = c.httpClient
	if c.crossGuard {
		c.crossClient = &http.Client{
			Transport: otelhttp.NewTransport(safehttp.NewTransport()),
			Timeout:   c.httpClient.Timeout,
		}
	}
	if c.tracker == nil {
		c.tracker = inflight.New()
	}
	if c.guard == nil {
		c.guard = session.New(nil, nil, "", c.logger)
	}
	if c.notifier == nil {
		c.notifier = notify.Log{Logger: c.logger}
	}
	if c.indicator == nil {
		c.indicator = noIndicator{}
	}
	if c.saver == nil {
		c.saver = DirSaver{Dir: "."}
	}
	c.tracer = otel.Tracer("github.com/eaidesk/gateway/internal/gateway")
	return c
}

// Tracker returns the in-flight tracker the client registers mutations in.
func (c *Client) Tracker() *inflight.Tracker {
	return c.tracker
}

// defaultHeaders are attached to every same-origin call.
func (c *Client) defaultHeaders(ctx context.Context) http.Header {
	h := http.Header{}
	token := ""
	if c.tokens != nil {
		if t, err := c.tokens.Token(ctx); err == nil {
			token = t
		} else if !errors.Is(err, storage.ErrNoToken) {
			c.logger.Warn("failed to read session token", slog.String("error", err.Error()))
		}
	}
	h.Set(c.tokenHeader, token)
	h.Set("SystemCode", c.systemCode)
	return h
}
