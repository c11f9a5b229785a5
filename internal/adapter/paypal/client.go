// Package paypal talks to the PayPal REST API for webhook signature verification.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"storefront-payments/config"
	"storefront-payments/internal/core/ports"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	tokenPath  = "/v1/oauth2/token"
	verifyPath = "/v1/notifications/verify-webhook-signature"

	verificationSuccess = "SUCCESS"

	// tokens are refreshed this long before PayPal expires them
	tokenExpiryLeeway   = time.Minute
	defaultTokenTimeout = 10 * time.Second
)

var (
	// ErrMissingHeaders is returned when a delivery lacks transmission headers.
	ErrMissingHeaders = errors.New("missing paypal transmission headers")
	// ErrVerificationRejected is returned when PayPal does not report SUCCESS.
	ErrVerificationRejected = errors.New("webhook signature rejected")
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements ports.SignatureVerifier against the PayPal REST API.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	timeout      time.Duration
	httpClient   HTTPClient
	log          zerolog.Logger
	now          func() time.Time

	refresh     singleflight.Group
	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a PayPal API client.
func NewClient(cfg config.PayPalConfig, httpClient HTTPClient, log zerolog.Logger) *Client {
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		timeout:      cfg.VerifyTimeout,
		httpClient:   httpClient,
		log:          log.With().Str("component", "paypal_client").Logger(),
		now:          time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type verifyRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

type verifyResponse struct {
	VerificationStatus string `json:"verification_status"`
}

// Verify asks PayPal whether the delivery's signature is genuine.
// It returns nil only for HTTP 200 with verification_status SUCCESS.
func (c *Client) Verify(ctx context.Context, headers ports.TransmissionHeaders, webhookID string, rawEvent []byte) error {
	if missing := missingHeaders(headers); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingHeaders, strings.Join(missing, ", "))
	}
	if !json.Valid(rawEvent) {
		return errors.New("webhook event is not valid JSON")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(verifyRequest{
		AuthAlgo:         headers.AuthAlgo,
		CertURL:          headers.CertURL,
		TransmissionID:   headers.TransmissionID,
		TransmissionSig:  headers.TransmissionSig,
		TransmissionTime: headers.TransmissionTime,
		WebhookID:        webhookID,
		WebhookEvent:     json.RawMessage(rawEvent),
	})
	if err != nil {
		return fmt.Errorf("marshal verification request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+verifyPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("verification request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateToken()
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("verification returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode verification response: %w", err)
	}
	if out.VerificationStatus != verificationSuccess {
		return fmt.Errorf("%w: verification_status=%q", ErrVerificationRejected, out.VerificationStatus)
	}

	c.log.Debug().
		Str("transmission_id", headers.TransmissionID).
		Msg("webhook signature verified")
	return nil
}

// token returns the cached OAuth2 access token. Concurrent callers share one
// refresh; each waits only as long as its own context allows.
func (c *Client) token(ctx context.Context) (string, error) {
	if tok, ok := c.cachedToken(); ok {
		return tok, nil
	}

	ch := c.refresh.DoChan("token", func() (interface{}, error) {
		if tok, ok := c.cachedToken(); ok {
			return tok, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.tokenTimeout())
		defer cancel()
		return c.fetchToken(fetchCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Client) cachedToken() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && c.now().Before(c.tokenExpiry) {
		return c.accessToken, true
	}
	return "", false
}

func (c *Client) tokenTimeout() time.Duration {
	if c.timeout > 0 {
		return c.timeout
	}
	return defaultTokenTimeout
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned HTTP %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", errors.New("token response has no access_token")
	}

	c.mu.Lock()
	c.accessToken = tr.AccessToken
	c.tokenExpiry = c.now().Add(tokenLifetime(tr.ExpiresIn))
	c.mu.Unlock()

	c.log.Info().Int64("expires_in", tr.ExpiresIn).Msg("PayPal access token refreshed")
	return tr.AccessToken, nil
}

// tokenLifetime is how long a token is reused: its lifetime minus a leeway
// of at most half that lifetime.
func tokenLifetime(expiresIn int64) time.Duration {
	lifetime := time.Duration(expiresIn) * time.Second
	leeway := tokenExpiryLeeway
	if leeway > lifetime/2 {
		leeway = lifetime / 2
	}
	return lifetime - leeway
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}

func missingHeaders(h ports.TransmissionHeaders) []string {
	var missing []string
	if h.AuthAlgo == "" {
		missing = append(missing, "auth_algo")
	}
	if h.CertURL == "" {
		missing = append(missing, "cert_url")
	}
	if h.TransmissionID == "" {
		missing = append(missing, "transmission_id")
	}
	if h.TransmissionSig == "" {
		missing = append(missing, "transmission_sig")
	}
	if h.TransmissionTime == "" {
		missing = append(missing, "transmission_time")
	}
	return missing
}
