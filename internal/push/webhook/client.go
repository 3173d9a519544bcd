package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client posts JSON notifications to a configured webhook. When a secret
// is set, requests carry a timestamped HMAC-SHA256 signature in the query
// string so the receiver can verify origin.
type Client struct {
	webhook    string
	secret     string
	httpClient *http.Client
}

type Response struct {
	Status int
	Body   string
}

func NewClient(webhook, secret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		webhook: webhook,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.webhook != ""
}

// Send posts one notification payload. Non-2xx responses are errors.
func (c *Client) Send(ctx context.Context, title string, payload map[string]any) (*Response, error) {
	if c.webhook == "" {
		return nil, fmt.Errorf("webhook url is empty")
	}

	body, err := json.Marshal(map[string]any{
		"title":   title,
		"payload": payload,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint, err := c.signedURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	out := Response{Status: resp.StatusCode}
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	out.Body = buf.String()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &out, fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return &out, nil
}

func (c *Client) signedURL() (string, error) {
	if c.secret == "" {
		return c.webhook, nil
	}

	ts := time.Now().UnixMilli()
	signature := sign(fmt.Sprintf("%d\n%s", ts, c.secret), c.secret)

	u, err := url.Parse(c.webhook)
	if err != nil {
		return "", fmt.Errorf("invalid webhook url: %w", err)
	}
	q := u.Query()
	q.Set("timestamp", fmt.Sprintf("%d", ts))
	q.Set("sign", signature)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func sign(message, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(message))
	sum := mac.Sum(nil)
	return base64.StdEncoding.EncodeToString(sum)
}
