package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/auctions/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 0},
		Database: config.DatabaseConfig{Path: ":memory:"},
		Auth: config.AuthConfig{
			JWTSecret:  "server-test-secret-0123456789",
			TokenTTL:   time.Hour,
			BcryptCost: bcrypt.MinCost,
		},
		LogLevel: slog.LevelInfo,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	s, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// browser keeps its own cookies, like one signed-in user would.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, ts *httptest.Server) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t:    t,
		base: ts.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) call(method, path, body string, out any) int {
	b.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, b.base+path, reader)
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(b.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (b *browser) register(username string) string {
	b.t.Helper()
	var user struct {
		ID string `json:"id"`
	}
	status := b.call(http.MethodPost, "/auth/register",
		`{"username":"`+username+`","email":"`+username+`@example.com","password":"pw","confirmation":"pw"}`, &user)
	require.Equal(b.t, http.StatusCreated, status)
	return user.ID
}

func TestNew_RejectsShortSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = "short"

	_, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestAuctionLifecycle(t *testing.T) {
	ts := newTestServer(t, testConfig())

	seller := newBrowser(t, ts)
	alice := newBrowser(t, ts)
	bob := newBrowser(t, ts)
	anon := newBrowser(t, ts)

	seller.register("seller")
	aliceID := alice.register("alice")
	bob.register("bob")

	var listing struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated, seller.call(http.MethodPost, "/api/listings",
		`{"title":"Lamp","startingPrice":"20","category":"HOM"}`, &listing))

	assert.Equal(t, http.StatusOK, bob.call(http.MethodPut, "/api/listings/"+listing.ID+"/watchlist", `{"watch":true}`, nil))
	assert.Equal(t, http.StatusCreated, alice.call(http.MethodPost, "/api/listings/"+listing.ID+"/bids", `{"amount":"21"}`, nil))
	assert.Equal(t, http.StatusConflict, bob.call(http.MethodPost, "/api/listings/"+listing.ID+"/bids", `{"amount":"21.00"}`, nil))
	assert.Equal(t, http.StatusCreated, bob.call(http.MethodPost, "/api/listings/"+listing.ID+"/comments", `{"text":"nice lamp"}`, nil))
	assert.Equal(t, http.StatusUnauthorized, anon.call(http.MethodPost, "/api/listings/"+listing.ID+"/bids", `{"amount":"99"}`, nil))

	var summaries []struct {
		CurrentPrice string `json:"currentPrice"`
		BidCount     int    `json:"bidCount"`
	}
	require.Equal(t, http.StatusOK, anon.call(http.MethodGet, "/api/categories/HOM/listings", "", &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "21", summaries[0].CurrentPrice)
	assert.Equal(t, 1, summaries[0].BidCount)

	var closed struct {
		Active   bool    `json:"active"`
		WinnerID *string `json:"winnerId"`
	}
	assert.Equal(t, http.StatusForbidden, alice.call(http.MethodPost, "/api/listings/"+listing.ID+"/close", "", nil))
	require.Equal(t, http.StatusOK, seller.call(http.MethodPost, "/api/listings/"+listing.ID+"/close", "", &closed))
	assert.False(t, closed.Active)
	require.NotNil(t, closed.WinnerID)
	assert.Equal(t, aliceID, *closed.WinnerID)

	assert.Equal(t, http.StatusOK, alice.call(http.MethodGet, "/api/listings/"+listing.ID, "", nil))
	assert.Equal(t, http.StatusForbidden, bob.call(http.MethodGet, "/api/listings/"+listing.ID, "", nil))

	// The watchlist still shows closed listings.
	var watched []json.RawMessage
	require.Equal(t, http.StatusOK, bob.call(http.MethodGet, "/api/watchlist", "", &watched))
	assert.Len(t, watched, 1)

	require.Equal(t, http.StatusOK, bob.call(http.MethodPost, "/auth/logout", "", nil))
	assert.Equal(t, http.StatusUnauthorized, bob.call(http.MethodGet, "/api/watchlist", "", nil))
}

func TestGitHubRoutes(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		ts := newTestServer(t, testConfig())
		b := newBrowser(t, ts)

		assert.Equal(t, http.StatusNotFound, b.call(http.MethodGet, "/auth/github/login", "", nil))
		assert.Equal(t, http.StatusNotFound, b.call(http.MethodGet, "/auth/github/callback", "", nil))
	})

	t.Run("enabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.GitHub = config.GitHubConfig{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			CallbackURL:  "http://localhost/auth/github/callback",
		}
		ts := newTestServer(t, cfg)
		b := newBrowser(t, ts)

		req, err := http.NewRequest(http.MethodGet, ts.URL+"/auth/github/login", nil)
		require.NoError(t, err)
		resp, err := b.client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
		assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "https://github.com/login/oauth/authorize"))

		// No matching state cookie value in the query.
		assert.Equal(t, http.StatusBadRequest,
			b.call(http.MethodGet, "/auth/github/callback?code=abc&state=forged", "", nil))
	})
}
