package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	calendarScope     = "https://www.googleapis.com/auth/calendar"
	defaultTokenURL   = "https://oauth2.googleapis.com/token"
	jwtBearerGrant    = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	tokenExpirySkew   = time.Minute
	assertionLifetime = time.Hour
)

// ServiceAccount is the subset of a Google service-account key file we need.
type ServiceAccount struct {
	ClientEmail  string `json:"client_email"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	TokenURI     string `json:"token_uri"`
}

// LoadServiceAccount reads and validates a key file.
func LoadServiceAccount(path string) (ServiceAccount, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ServiceAccount{}, fmt.Errorf("failed to read credentials file %s: %w", path, err)
	}
	return ParseServiceAccount(raw)
}

func ParseServiceAccount(raw []byte) (ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return ServiceAccount{}, fmt.Errorf("invalid credentials file: %w", err)
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return ServiceAccount{}, fmt.Errorf("credentials file is missing client_email or private_key")
	}
	if sa.TokenURI == "" {
		sa.TokenURI = defaultTokenURL
	}
	return sa, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

type oauthError struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// tokenSource intercambia una aserción JWT firmada (RS256) por un access token y lo cachea.
type tokenSource struct {
	sa   ServiceAccount
	http *resty.Client

	mu      sync.Mutex
	token   string
	expires time.Time
	now     func() time.Time
}

func newTokenSource(sa ServiceAccount, timeout time.Duration) *tokenSource {
	return &tokenSource{
		sa:   sa,
		http: resty.New().SetTimeout(timeout),
		now:  time.Now,
	}
}

func (ts *tokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && ts.now().Before(ts.expires.Add(-tokenExpirySkew)) {
		return ts.token, nil
	}

	assertion, err := ts.assertion()
	if err != nil {
		return "", err
	}

	var out tokenResponse
	var failure oauthError
	resp, err := ts.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type": jwtBearerGrant,
			"assertion":  assertion,
		}).
		SetResult(&out).
		SetError(&failure).
		Post(ts.sa.TokenURI)
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}
	if resp.IsError() || out.AccessToken == "" {
		return "", fmt.Errorf("token exchange rejected (%d): %s %s", resp.StatusCode(), failure.Error, failure.Description)
	}

	ts.token = out.AccessToken
	ts.expires = ts.now().Add(time.Duration(out.ExpiresIn) * time.Second)
	return ts.token, nil
}

func (ts *tokenSource) assertion() (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(strings.ReplaceAll(ts.sa.PrivateKey, `\n`, "\n")))
	if err != nil {
		return "", fmt.Errorf("invalid service account private key: %w", err)
	}

	now := ts.now()
	claims := jwt.MapClaims{
		"iss":   ts.sa.ClientEmail,
		"scope": calendarScope,
		"aud":   ts.sa.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionLifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if ts.sa.PrivateKeyID != "" {
		token.Header["kid"] = ts.sa.PrivateKeyID
	}
	return token.SignedString(key)
}
