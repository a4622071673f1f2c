package github

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"
)

var ErrNoCredentials = errors.New("github: no token or app credentials configured")

// TokenSource yields the bearer token for the next API call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a personal access token or fine-grained token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", ErrNoCredentials
	}
	return string(t), nil
}

// tokenRefreshMargin keeps a cached installation token from being handed out
// just before GitHub expires it.
const tokenRefreshMargin = 5 * time.Minute

// AppTokenSource mints GitHub App installation tokens. Each token is cached
// until shortly before its expiry.
type AppTokenSource struct {
	appID          string
	installationID int64
	key            *rsa.PrivateKey
	baseURL        string
	httpClient     *http.Client
	now            func() time.Time

	mu     sync.Mutex
	tokens *cache.Cache
}

// NewAppTokenSource parses the PEM private key of a GitHub App.
func NewAppTokenSource(appID string, installationID int64, privateKeyPEM []byte) (*AppTokenSource, error) {
	if appID == "" || installationID == 0 {
		return nil, fmt.Errorf("github app id and installation id are required")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse github app private key: %w", err)
	}
	return &AppTokenSource{
		appID:          appID,
		installationID: installationID,
		key:            key,
		baseURL:        defaultAPIURL,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		now:            time.Now,
		tokens:         cache.New(time.Hour, 10*time.Minute),
	}, nil
}

// WithBaseURL targets GitHub Enterprise or a test server.
func (s *AppTokenSource) WithBaseURL(base string) *AppTokenSource {
	if base != "" {
		s.baseURL = strings.TrimSuffix(base, "/")
	}
	return s
}

func (s *AppTokenSource) cacheKey() string {
	return strconv.FormatInt(s.installationID, 10)
}

// Token returns a cached installation token or exchanges a fresh app JWT for one.
func (s *AppTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, found := s.tokens.Get(s.cacheKey()); found {
		return cached.(string), nil
	}

	appJWT, err := s.appJWT()
	if err != nil {
		return "", err
	}

	apiURL := fmt.Sprintf("%s/app/installations/%d/access_tokens", s.baseURL, s.installationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+appJWT)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "tipsbot")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request installation token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &APIError{Method: http.MethodPost, URL: apiURL, StatusCode: resp.StatusCode, Message: githubMessage(body)}
	}

	var out struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode installation token: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("installation token response had no token")
	}

	ttl := out.ExpiresAt.Sub(s.now()) - tokenRefreshMargin
	if ttl > 0 {
		s.tokens.Set(s.cacheKey(), out.Token, ttl)
	}
	return out.Token, nil
}

// appJWT signs the short-lived RS256 JWT GitHub expects from an app.
// iat is backdated a minute to absorb clock drift.
func (s *AppTokenSource) appJWT() (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.appID,
		IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(now.Add(9 * time.Minute)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign github app jwt: %w", err)
	}
	return signed, nil
}
