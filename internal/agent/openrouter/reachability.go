package openrouter

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

var defaultPorts = map[string]string{"http": "80", "https": "443"}

// CheckBaseURLReachable 只检查 base URL 的 TCP 连通性，不发送 HTTP 请求，也不消耗 token。
func CheckBaseURLReachable(ctx context.Context, baseURL string) error {
	addr, err := dialAddress(baseURL)
	if err != nil {
		return err
	}
	conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("cannot connect to %s (base_url=%q): %w", addr, baseURL, err)
	}
	_ = conn.Close()
	return nil
}

// dialAddress 把 base URL 解析为 host:port，空值表示默认的 OpenRouter 地址。
func dialAddress(baseURL string) (string, error) {
	raw := strings.TrimSpace(baseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid base_url %q: %w", raw, err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	host := parsed.Hostname()
	if scheme == "" || host == "" {
		return "", fmt.Errorf("invalid base_url %q: scheme=%q host=%q", raw, parsed.Scheme, parsed.Host)
	}
	port := parsed.Port()
	if port == "" {
		var ok bool
		if port, ok = defaultPorts[scheme]; !ok {
			return "", fmt.Errorf("unsupported base_url scheme %q (base_url=%q)", parsed.Scheme, raw)
		}
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid base_url port %q (base_url=%q): %w", port, raw, err)
	}
	return net.JoinHostPort(host, port), nil
}
