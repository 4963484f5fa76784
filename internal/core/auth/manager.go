package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/finscreener/finscreener-mcp/internal/core"
	"github.com/finscreener/finscreener-mcp/internal/metrics"
	"github.com/finscreener/finscreener-mcp/internal/observability"
)

const (
	// KeyPrefix marks API keys that must be exchanged for a bearer token.
	KeyPrefix = "fsk_"

	// LoginPath is the exchange endpoint, relative to the API origin.
	LoginPath = "/api/auth/login"

	DefaultBaseURL  = "https://api.finscreener.in"
	DefaultTimeout  = 30 * time.Second
	DefaultTokenTTL = 50 * time.Minute

	maxLoginBody = 1 << 20
)

// Config configures a Manager. Zero values fall back to defaults.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Clock      clockwork.Clock
	// Timeout bounds a single exchange call.
	Timeout time.Duration
	// TokenTTL is how long an exchanged token is treated as fresh.
	TokenTTL time.Duration
	Logger   observability.Logger
}

// Manager owns the configured API key and the bearer token derived from it.
//
// A token obtained by exchange carries an expiry and is refreshed once the
// expiry passes. A key without KeyPrefix is used verbatim as the bearer token
// and never expires. The zero expiry value means "no expiry".
type Manager struct {
	apiKey     string
	loginURL   string
	httpClient *http.Client
	clock      clockwork.Clock
	timeout    time.Duration
	ttl        time.Duration
	logger     observability.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewManager returns a Manager with defaults applied.
func NewManager(cfg Config) *Manager {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}

	m := &Manager{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		loginURL:   base + LoginPath,
		httpClient: cfg.HTTPClient,
		clock:      cfg.Clock,
		timeout:    cfg.Timeout,
		ttl:        cfg.TokenTTL,
		logger:     cfg.Logger,
	}
	if m.httpClient == nil {
		m.httpClient = http.DefaultClient
	}
	if m.clock == nil {
		m.clock = clockwork.NewRealClock()
	}
	if m.timeout <= 0 {
		m.timeout = DefaultTimeout
	}
	if m.ttl <= 0 {
		m.ttl = DefaultTokenTTL
	}
	if m.logger == nil {
		m.logger = observability.NopLogger()
	}
	return m
}

// ConfigWarnings reports problems with the configured key. They never block
// startup; calls proceed unauthenticated or with the key as-is.
func ConfigWarnings(apiKey string) []string {
	key := strings.TrimSpace(apiKey)
	switch {
	case key == "":
		return []string{"FINSCREENER_API_KEY not set. API calls will fail."}
	case !strings.HasPrefix(key, KeyPrefix):
		return []string{fmt.Sprintf("API key should start with '%s' prefix.", KeyPrefix)}
	default:
		return nil
	}
}

// HasKey reports whether an API key is configured.
func (m *Manager) HasKey() bool {
	return m.apiKey != ""
}

// Token returns the bearer token currently held.
func (m *Manager) Token() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != ""
}

// ExpiresAt returns the expiry of an exchanged token.
func (m *Manager) ExpiresAt() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiresAt, !m.expiresAt.IsZero()
}

// AuthorizationHeader returns the Authorization header value, or "" when no
// token is held.
func (m *Manager) AuthorizationHeader() string {
	token, ok := m.Token()
	if !ok {
		return ""
	}
	return "Bearer " + token
}

// EnsureToken makes sure a fresh bearer token is held when one can be had.
//
// It never returns an error: a failed exchange is logged and the previous
// state (possibly no token) stays in place, so the eventual API call fails
// upstream and is classified there. The lock is not held across the exchange
// call; concurrent stale callers may both exchange and the last one wins.
func (m *Manager) EnsureToken(ctx context.Context) {
	m.mu.Lock()
	token, expiresAt := m.token, m.expiresAt
	m.mu.Unlock()

	if token != "" && (expiresAt.IsZero() || m.clock.Now().Before(expiresAt)) {
		return
	}

	if m.apiKey == "" {
		return
	}

	if !strings.HasPrefix(m.apiKey, KeyPrefix) {
		m.warnIfExpiredJWT(m.apiKey)
		m.mu.Lock()
		m.token = m.apiKey
		m.expiresAt = time.Time{}
		m.mu.Unlock()
		return
	}

	m.exchange(ctx)
}

func (m *Manager) exchange(ctx context.Context) {
	start := m.clock.Now()

	token, err := m.login(ctx)
	if err != nil {
		metrics.RecordTokenExchange("failure")
		m.logger.Warn("Failed to exchange API key for JWT", zap.Error(err))
		return
	}

	m.mu.Lock()
	m.token = token
	m.expiresAt = start.Add(m.ttl)
	m.mu.Unlock()

	metrics.RecordTokenExchange("success")
	m.logger.Info("Successfully obtained JWT token from API key",
		zap.Time("expires_at", start.Add(m.ttl)))
}

func (m *Manager) login(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	payload, err := json.Marshal(loginRequest{APIKey: m.apiKey})
	if err != nil {
		return "", fmt.Errorf("encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.loginURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLoginBody))
	if err != nil {
		return "", fmt.Errorf("read login response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &ExchangeError{StatusCode: resp.StatusCode, Detail: core.ErrorDetail(body)}
	}

	return decodeAccessToken(body)
}

// ExchangeError reports a non-200 answer from the login endpoint.
type ExchangeError struct {
	StatusCode int
	Detail     string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("login returned %d: %s", e.StatusCode, e.Detail)
}

type loginRequest struct {
	APIKey string `json:"api_key"`
}

// tokenEnvelope is the login response. Upstream either wraps the token
// fields in a `token` object or returns them at the top level; the wrapper
// wins when present.
type tokenEnvelope struct {
	Token       json.RawMessage `json:"token"`
	AccessToken string          `json:"access_token"`
}

type tokenFields struct {
	AccessToken string `json:"access_token"`
}

var errNoAccessToken = errors.New("login response has no access_token")

func decodeAccessToken(body []byte) (string, error) {
	var env tokenEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}

	if len(env.Token) > 0 {
		var inner tokenFields
		if err := json.Unmarshal(env.Token, &inner); err != nil {
			return "", fmt.Errorf("decode token wrapper: %w", err)
		}
		if inner.AccessToken == "" {
			return "", errNoAccessToken
		}
		return inner.AccessToken, nil
	}

	if env.AccessToken == "" {
		return "", errNoAccessToken
	}
	return env.AccessToken, nil
}

// warnIfExpiredJWT logs when a pass-through key is a JWT whose exp claim has
// already passed. The key is still used as-is.
func (m *Manager) warnIfExpiredJWT(key string) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(key, claims); err != nil {
		return
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}
	if !m.clock.Now().Before(exp.Time) {
		m.logger.Warn("Configured bearer token has already expired",
			zap.Time("expired_at", exp.Time))
	}
}
