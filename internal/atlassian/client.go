// Package atlassian 是 Jira Cloud 与 Confluence Cloud REST API 的轻量客户端。
// 凭据使用 email + API token 的 Basic 认证，不处理 OAuth。
package atlassian

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"toolbridge/internal/logger"
)

// ErrNotConfigured 表示缺少 base_url、email 或 api_token，在发出任何请求前返回。
var ErrNotConfigured = errors.New("atlassian credentials not configured")

var log = logger.Named("atlassian")

const maxErrorBody = 512

type Config struct {
	BaseURL  string
	Email    string
	APIToken string
	Timeout  time.Duration
	// HTTPClient 为空时使用带超时的默认客户端。
	HTTPClient *http.Client
}

type Client struct {
	baseURL string
	email   string
	token   string
	http    *http.Client
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		email:   strings.TrimSpace(cfg.Email),
		token:   strings.TrimSpace(cfg.APIToken),
		http:    httpClient,
	}
	if !c.Configured() {
		log.Warn("Atlassian credentials not configured; Jira and Confluence tools will fail")
	}
	return c
}

// Configured 报告三项凭据是否齐全。
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != "" && c.email != "" && c.token != ""
}

// BaseURL 返回去掉末尾斜杠的站点地址。
func (c *Client) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.baseURL
}

// APIError 表示非 2xx 响应。Body 只保留前若干字节。
type APIError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("atlassian: %s: %d %s", e.Op, e.StatusCode, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// IsNotFound 判断 err 是否为 404 响应。
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func (c *Client) authHeader() string {
	raw := c.email + ":" + c.token
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}

// do 发送 JSON 请求并把响应解码到 out（out 为 nil 时丢弃响应体）。
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", c.authHeader())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.WithField("op", op).Errorf("request failed: %v", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Body:       strings.TrimSpace(string(raw)),
		}
		log.WithField("op", op).Errorf("%v", apiErr)
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func clampLimit(n, def, upper int) int {
	if n <= 0 {
		return def
	}
	if n > upper {
		return upper
	}
	return n
}
