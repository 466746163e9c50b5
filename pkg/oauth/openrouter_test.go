package oauth

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

func TestAuthURL(t *testing.T) {
	tests := []struct {
		name      string
		challenge string
	}{
		{name: "base64url challenge", challenge: "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"},
		{name: "reserved characters", challenge: "a+b/c=d&code_challenge=evil?#%"},
		{name: "empty challenge", challenge: ""},
	}

	o := NewOpenRouter("")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := o.AuthURL(tt.challenge)

			parsed, err := url.Parse(raw)
			require.NoError(t, err)
			assert.Equal(t, "https", parsed.Scheme)
			assert.Equal(t, "openrouter.ai", parsed.Host)
			assert.Equal(t, "/auth", parsed.Path)

			q := parsed.Query()
			assert.Equal(t, []string{tt.challenge}, q["code_challenge"])
			assert.Equal(t, []string{"S256"}, q["code_challenge_method"])
			assert.Equal(t, []string{"http://localhost:8787"}, q["callback_url"])
		})
	}
}

func TestAuthURL_Deterministic(t *testing.T) {
	o := NewOpenRouter("https://example.test/", WithCallbackPort(9999))
	first := o.AuthURL("abc")
	assert.Equal(t, first, o.AuthURL("abc"))
	assert.True(t, strings.HasPrefix(first, "https://example.test/auth?"))
	assert.Contains(t, first, "callback_url=http%3A%2F%2Flocalhost%3A9999")
}

func TestExchangeCode_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/auth/keys", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req exchangeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "the-code", req.Code)
		assert.Equal(t, "the-verifier", req.CodeVerifier)
		assert.Equal(t, "S256", req.CodeChallengeMethod)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"key":"sk-or-v1-xyz"}`))
	}))
	defer server.Close()

	key, err := NewOpenRouter(server.URL).ExchangeCode(context.Background(), "the-code", "the-verifier")
	require.NoError(t, err)
	assert.Equal(t, "sk-or-v1-xyz", key)
}

func TestExchangeCode_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("invalid code"))
	}))
	defer server.Close()

	key, err := NewOpenRouter(server.URL).ExchangeCode(context.Background(), "bad", "verifier")
	require.Error(t, err)
	assert.Empty(t, key)
	assert.Contains(t, err.Error(), "invalid code")

	var exchangeErr *ExchangeError
	require.True(t, errors.As(err, &exchangeErr))
	assert.Equal(t, http.StatusUnauthorized, exchangeErr.StatusCode)
	assert.Equal(t, "invalid code", exchangeErr.Body)
	assert.False(t, IsTransportError(err))
}

func TestExchangeCode_MissingKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user_id":"u1"}`))
	}))
	defer server.Close()

	_, err := NewOpenRouter(server.URL).ExchangeCode(context.Background(), "code", "verifier")
	require.Error(t, err)
	assert.True(t, IsExchangeError(err))
}

func TestExchangeCode_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	_, err := NewOpenRouter(baseURL).ExchangeCode(context.Background(), "code", "verifier")
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.False(t, IsExchangeError(err))
}

func TestExchangeCode_EmptyInputs(t *testing.T) {
	o := NewOpenRouter("http://127.0.0.1:1")

	_, err := o.ExchangeCode(context.Background(), "", "verifier")
	assert.Error(t, err)
	_, err = o.ExchangeCode(context.Background(), "code", "")
	assert.Error(t, err)
}

// captured holds a value written by one goroutine and read by another.
type captured struct {
	mu sync.Mutex
	v  string
}

func (c *captured) set(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v = v
}

func (c *captured) get() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

// redirectingBrowser simulates the provider: it reads the callback URL out of
// the authorization URL and sends the browser there with query.
func redirectingBrowser(query string, challenge *captured) func(string) error {
	return func(authURL string) error {
		parsed, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		if challenge != nil {
			challenge.set(parsed.Query().Get("code_challenge"))
		}
		callback := parsed.Query().Get("callback_url")
		go func() {
			// Errors surface as a timed-out or failed Login in the test itself.
			resp, err := newTestClient().Get(callback + "/?" + query)
			if err == nil {
				resp.Body.Close()
			}
		}()
		return nil
	}
}

func TestLogin_EndToEnd(t *testing.T) {
	const verifier = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])

	exchange := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req exchangeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Code != "ABC" || req.CodeVerifier != verifier {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("unexpected code or verifier"))
			return
		}
		w.Write([]byte(`{"key":"K1"}`))
	}))
	defer exchange.Close()

	var seenChallenge captured
	var out bytes.Buffer
	o := NewOpenRouter(exchange.URL,
		WithCallbackPort(0),
		WithOutput(&out),
		WithBrowserOpener(redirectingBrowser("code=ABC", &seenChallenge)),
	)
	o.generatePKCE = func() (*PKCECodes, error) {
		return &PKCECodes{CodeVerifier: verifier, CodeChallenge: challenge}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	key, err := o.Login(ctx)
	require.NoError(t, err)
	assert.Equal(t, "K1", key)
	assert.Equal(t, challenge, seenChallenge.get())
	assert.Contains(t, out.String(), "Waiting for callback...")
	assert.Contains(t, out.String(), "Exchanging code for API key...")
}

func TestLogin_GeneratedPKCEVerifiesAtExchange(t *testing.T) {
	var seenChallenge captured

	exchange := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req exchangeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		sum := sha256.Sum256([]byte(req.CodeVerifier))
		if base64.RawURLEncoding.EncodeToString(sum[:]) != seenChallenge.get() {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte("verifier does not match challenge"))
			return
		}
		w.Write([]byte(`{"key":"sk-or-v1-generated"}`))
	}))
	defer exchange.Close()

	o := NewOpenRouter(exchange.URL,
		WithCallbackPort(0),
		WithBrowserOpener(redirectingBrowser("code=xyz", &seenChallenge)),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	key, err := o.Login(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sk-or-v1-generated", key)
}

func TestLogin_NoCode(t *testing.T) {
	exchange := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("exchange must not be called without a code")
	}))
	defer exchange.Close()

	o := NewOpenRouter(exchange.URL,
		WithCallbackPort(0),
		WithBrowserOpener(redirectingBrowser("error=access_denied", nil)),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	key, err := o.Login(ctx)
	assert.Empty(t, key)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoCode)
	assert.True(t, strings.HasPrefix(err.Error(), "login failed:"))
}

func TestLogin_Timeout(t *testing.T) {
	exchange := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("exchange must not be called after a timeout")
	}))
	defer exchange.Close()

	fakeClock := testingclock.NewFakeClock(time.Now())
	o := NewOpenRouter(exchange.URL,
		WithCallbackPort(0),
		WithLoginClock(fakeClock),
		WithOutput(&bytes.Buffer{}),
		WithBrowserOpener(func(string) error { return nil }),
	)

	errCh := make(chan error, 1)
	go func() {
		_, err := o.Login(context.Background())
		errCh <- err
	}()

	require.Eventually(t, fakeClock.HasWaiters, 5*time.Second, 10*time.Millisecond)
	fakeClock.Step(DefaultCallbackTimeout)

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTimeout)
		assert.True(t, strings.HasPrefix(err.Error(), "login failed:"))
	case <-time.After(5 * time.Second):
		t.Fatal("login did not time out")
	}
}

func TestLogin_ExchangeRejected(t *testing.T) {
	exchange := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("invalid code"))
	}))
	defer exchange.Close()

	o := NewOpenRouter(exchange.URL,
		WithCallbackPort(0),
		WithBrowserOpener(redirectingBrowser("code=ABC", nil)),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	key, err := o.Login(ctx)
	assert.Empty(t, key)
	assert.True(t, IsExchangeError(err))
	assert.Contains(t, err.Error(), "invalid code")
}

func TestLogin_BrowserFailureIsNotFatal(t *testing.T) {
	exchange := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"key":"K2"}`))
	}))
	defer exchange.Close()

	var out bytes.Buffer
	redirect := redirectingBrowser("code=ABC", nil)
	o := NewOpenRouter(exchange.URL,
		WithCallbackPort(0),
		WithOutput(&out),
		WithBrowserOpener(func(u string) error {
			// The user follows the printed URL by hand.
			_ = redirect(u)
			return errors.New("no display")
		}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	key, err := o.Login(ctx)
	require.NoError(t, err)
	assert.Equal(t, "K2", key)
	assert.Contains(t, out.String(), "Visit this URL to continue")
}

func TestLogin_BindError(t *testing.T) {
	busy := NewCallbackServer(0)
	require.NoError(t, busy.Start())
	defer busy.Stop()

	parsed, err := url.Parse(busy.URL())
	require.NoError(t, err)
	port, err := strconv.Atoi(parsed.Port())
	require.NoError(t, err)

	o := NewOpenRouter("http://127.0.0.1:1",
		WithCallbackPort(port),
		WithBrowserOpener(func(string) error {
			t.Error("browser must not open when the port is unavailable")
			return nil
		}),
	)

	_, err = o.Login(context.Background())
	assert.ErrorIs(t, err, ErrBind)
}
