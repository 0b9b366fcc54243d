// internal/gateway/gateway.go
package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"hicompanion/internal/logger"
)

const defaultTimeout = 10 * time.Second

// APIError is a structured error response from the companion API. The HTTP
// status is carried as a field so callers classify by code, never by parsing
// error text.
type APIError struct {
	StatusCode int
	Code       string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client is a thin authenticated client for the companion REST API. The user
// token is an opaque credential attached to every request and never
// interpreted here.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, userToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   userToken,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 5,
			},
		},
	}
}

// do executes one API call: marshals the optional body, attaches auth and a
// request ID, checks the status, and decodes into out when provided.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	url := fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(endpoint, "/"))

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling %s %s body: %w", method, endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("creating %s %s request: %w", method, endpoint, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Authorization", c.token)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.LogInfo("API %s %s (request %s)", method, endpoint, requestID)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("executing %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s %s response: %w", method, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		// Error bodies are JSON when the API produced them; anything else
		// (proxies, load balancers) is kept as the raw message.
		if err := json.Unmarshal(respBody, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		logger.LogError("API %s %s failed (request %s): %v", method, endpoint, requestID, apiErr)
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding %s %s response: %w", method, endpoint, err)
		}
	}
	return nil
}

// Items fetches the full point-shop catalog.
func (c *Client) Items(ctx context.Context) ([]Item, error) {
	var container ItemContainer
	if err := c.do(ctx, http.MethodGet, "shop/", nil, &container); err != nil {
		return nil, err
	}
	return container.Items, nil
}

// Cart fetches the current server-side cart mapping.
func (c *Client) Cart(ctx context.Context) (map[string]int, error) {
	var container CartContainer
	if err := c.do(ctx, http.MethodGet, "shop/cart/", nil, &container); err != nil {
		return nil, err
	}
	if container.Items == nil {
		container.Items = map[string]int{}
	}
	return container.Items, nil
}

// AddToCart asks the server to add one unit of itemID and returns the
// resulting authoritative mapping.
func (c *Client) AddToCart(ctx context.Context, itemID string) (map[string]int, error) {
	var container CartContainer
	endpoint := fmt.Sprintf("shop/cart/%s/", itemID)
	if err := c.do(ctx, http.MethodPost, endpoint, nil, &container); err != nil {
		return nil, err
	}
	if container.Items == nil {
		container.Items = map[string]int{}
	}
	return container.Items, nil
}

// RemoveFromCart asks the server to remove one unit of itemID. When the last
// unit goes, the returned mapping omits the key entirely.
func (c *Client) RemoveFromCart(ctx context.Context, itemID string) (map[string]int, error) {
	var container CartContainer
	endpoint := fmt.Sprintf("shop/cart/%s/", itemID)
	if err := c.do(ctx, http.MethodDelete, endpoint, nil, &container); err != nil {
		return nil, err
	}
	if container.Items == nil {
		container.Items = map[string]int{}
	}
	return container.Items, nil
}

// RedemptionQR requests a fresh cart-redemption token to render as a QR.
func (c *Client) RedemptionQR(ctx context.Context) (string, error) {
	var qr QRInfo
	if err := c.do(ctx, http.MethodGet, "shop/cart/qr/", nil, &qr); err != nil {
		return "", err
	}
	if qr.QRInfo == "" {
		return "", fmt.Errorf("redemption QR response contained an empty payload")
	}
	return qr.QRInfo, nil
}

// BuyItem finalizes a single-item purchase from a scanned instance. This is
// the staff-side counterpart of the redemption QR.
func (c *Client) BuyItem(ctx context.Context, itemID, instance string) (*RedeemResult, error) {
	body := map[string]string{
		"itemId":   itemID,
		"instance": instance,
	}
	var result RedeemResult
	if err := c.do(ctx, http.MethodPost, "shop/item/buy/", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Profile fetches the user's profile, including the spendable point balance.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.do(ctx, http.MethodGet, "profile/", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Leaderboard fetches the top profiles by points.
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	endpoint := "profile/leaderboard/"
	if limit > 0 {
		endpoint = fmt.Sprintf("profile/leaderboard/?limit=%d", limit)
	}
	var container LeaderboardContainer
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &container); err != nil {
		return nil, err
	}
	return container.Profiles, nil
}

// UserQR requests the user's check-in QR payload.
func (c *Client) UserQR(ctx context.Context) (string, error) {
	var qr QRInfo
	if err := c.do(ctx, http.MethodGet, "user/qr/", nil, &qr); err != nil {
		return "", err
	}
	if qr.QRInfo == "" {
		return "", fmt.Errorf("user QR response contained an empty payload")
	}
	return qr.QRInfo, nil
}

// Events fetches the full event schedule.
func (c *Client) Events(ctx context.Context) ([]Event, error) {
	var container EventContainer
	if err := c.do(ctx, http.MethodGet, "event/", nil, &container); err != nil {
		return nil, err
	}
	return container.Events, nil
}

// ScanEvent self-checks the user into an event for points.
func (c *Client) ScanEvent(ctx context.Context, eventID string) (*CheckInResult, error) {
	body := map[string]string{"eventId": eventID}
	var result CheckInResult
	if err := c.do(ctx, http.MethodPut, "user/scan-event/", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
