package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/tidwall/gjson"
	"k8s.io/utils/clock"

	"github.com/thecloudstation/claude-launcher/pkg/httpclient"
)

const (
	// DefaultBaseURL is the OpenRouter site hosting both the authorization
	// page and the key exchange API.
	DefaultBaseURL = "https://openrouter.ai"

	authPath     = "/auth"
	exchangePath = "/api/v1/auth/keys"

	exchangeTimeout = 30 * time.Second
)

// OpenRouter drives the OpenRouter PKCE login. Every call to Login uses fresh
// PKCE material and a fresh callback server; nothing carries over between
// attempts.
type OpenRouter struct {
	baseURL         string
	callbackPort    int
	callbackTimeout time.Duration
	noBrowser       bool
	out             io.Writer
	logger          hclog.Logger
	clock           clock.Clock
	client          *httpclient.BaseClient

	openBrowser  func(url string) error
	generatePKCE func() (*PKCECodes, error)
}

// Option configures an OpenRouter client.
type Option func(*OpenRouter)

// WithCallbackPort overrides DefaultCallbackPort. 0 binds an ephemeral port.
func WithCallbackPort(port int) Option {
	return func(o *OpenRouter) {
		o.callbackPort = port
	}
}

// WithCallbackTimeout overrides DefaultCallbackTimeout.
func WithCallbackTimeout(d time.Duration) Option {
	return func(o *OpenRouter) {
		if d > 0 {
			o.callbackTimeout = d
		}
	}
}

// WithNoBrowser disables opening the browser; the URL is only printed.
func WithNoBrowser(noBrowser bool) Option {
	return func(o *OpenRouter) {
		o.noBrowser = noBrowser
	}
}

// WithOutput sets where user-facing progress lines are written.
func WithOutput(w io.Writer) Option {
	return func(o *OpenRouter) {
		if w != nil {
			o.out = w
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(o *OpenRouter) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithBrowserOpener sets the function used to open the authorization URL.
func WithBrowserOpener(fn func(url string) error) Option {
	return func(o *OpenRouter) {
		o.openBrowser = fn
	}
}

// WithLoginClock sets the clock driving the callback timeout.
func WithLoginClock(c clock.Clock) Option {
	return func(o *OpenRouter) {
		if c != nil {
			o.clock = c
		}
	}
}

// NewOpenRouter creates an OpenRouter login client for baseURL
// (DefaultBaseURL when empty).
func NewOpenRouter(baseURL string, opts ...Option) *OpenRouter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	o := &OpenRouter{
		baseURL:         strings.TrimSuffix(baseURL, "/"),
		callbackPort:    DefaultCallbackPort,
		callbackTimeout: DefaultCallbackTimeout,
		out:             io.Discard,
		logger:          hclog.NewNullLogger(),
		clock:           clock.RealClock{},
		generatePKCE:    GeneratePKCE,
	}
	for _, opt := range opts {
		opt(o)
	}

	// The exchange is single-attempt, so no retrying transport here.
	o.client = httpclient.NewBaseClient(o.baseURL, exchangeTimeout)
	return o
}

// CallbackURL is the redirect target registered with the authorization request.
func (o *OpenRouter) CallbackURL() string {
	return "http://localhost:" + strconv.Itoa(o.callbackPort)
}

// AuthURL builds the browser-facing authorization URL for challenge, using the
// configured callback port.
func (o *OpenRouter) AuthURL(challenge string) string {
	return o.authURL(o.CallbackURL(), challenge)
}

func (o *OpenRouter) authURL(callbackURL, challenge string) string {
	params := url.Values{}
	params.Set("callback_url", callbackURL)
	params.Set("code_challenge", challenge)
	params.Set("code_challenge_method", ChallengeMethod)
	return o.baseURL + authPath + "?" + params.Encode()
}

type exchangeRequest struct {
	Code                string `json:"code"`
	CodeVerifier        string `json:"code_verifier"`
	CodeChallengeMethod string `json:"code_challenge_method"`
}

// ExchangeCode trades an authorization code and its PKCE verifier for an API
// key. A non-2xx answer returns *ExchangeError carrying the body; a network
// failure returns *TransportError. There is exactly one attempt.
func (o *OpenRouter) ExchangeCode(ctx context.Context, code, verifier string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("authorization code cannot be empty")
	}
	if verifier == "" {
		return "", fmt.Errorf("code verifier cannot be empty")
	}

	o.logger.Debug("exchanging authorization code", "endpoint", o.baseURL+exchangePath)

	resp, err := o.client.Do(ctx, http.MethodPost, exchangePath, exchangeRequest{
		Code:                code,
		CodeVerifier:        verifier,
		CodeChallengeMethod: ChallengeMethod,
	})
	if err != nil {
		var reqErr *httpclient.RequestError
		if errors.As(err, &reqErr) {
			return "", &TransportError{Op: "key exchange request", Err: reqErr.Err}
		}
		return "", err
	}

	if !resp.OK() {
		o.logger.Debug("key exchange rejected", "status", resp.StatusCode)
		return "", &ExchangeError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(resp.Body))}
	}

	key := gjson.GetBytes(resp.Body, "key")
	if !key.Exists() || key.String() == "" {
		return "", &ExchangeError{StatusCode: resp.StatusCode, Body: "response did not contain a key"}
	}

	return key.String(), nil
}

// Login runs the full flow: generate PKCE, start the callback server, open the
// authorization page, wait for the code and exchange it. Any failure aborts
// the attempt and the callback server is always released. The caller owns the
// returned key and decides whether to retry on error.
func (o *OpenRouter) Login(ctx context.Context) (string, error) {
	key, err := o.login(ctx)
	if err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	return key, nil
}

func (o *OpenRouter) login(ctx context.Context) (string, error) {
	pkce, err := o.generatePKCE()
	if err != nil {
		return "", err
	}

	server := NewCallbackServer(o.callbackPort,
		WithTimeout(o.callbackTimeout),
		WithClock(o.clock),
		WithCallbackLogger(o.logger.Named("callback")),
	)
	// Bind before sending the user anywhere so the redirect cannot beat us.
	if err := server.Start(); err != nil {
		return "", err
	}
	defer server.Stop()

	authURL := o.authURL(server.URL(), pkce.CodeChallenge)

	if o.noBrowser {
		fmt.Fprintf(o.out, "Open this URL in your browser to authenticate:\n%s\n", authURL)
	} else {
		fmt.Fprintln(o.out, "Opening browser for authentication...")
		if err := o.open(authURL); err != nil {
			o.logger.Warn("failed to open browser", "error", err)
			fmt.Fprintf(o.out, "Could not open a browser. Visit this URL to continue:\n%s\n", authURL)
		}
	}

	fmt.Fprintln(o.out, "Waiting for callback...")
	code, err := server.Wait(ctx)
	if err != nil {
		return "", err
	}

	fmt.Fprintln(o.out, "Exchanging code for API key...")
	return o.ExchangeCode(ctx, code, pkce.CodeVerifier)
}

func (o *OpenRouter) open(url string) error {
	if o.openBrowser == nil {
		return fmt.Errorf("no browser opener configured")
	}
	return o.openBrowser(url)
}
