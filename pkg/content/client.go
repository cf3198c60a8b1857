package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

const (
	defaultUserAgent   = "Mozilla/5.0 (compatible; ContentSummarizer/1.0)"
	defaultMaxBodySize = 10 * 1024 * 1024
	defaultTimeout     = 30 * time.Second
)

// Client performs GET requests for the acquisition strategies. Untrusted
// destinations are dialed through an SSRF guard unless local IPs are allowed.
type Client struct {
	httpClient    *http.Client
	maxBodySize   int64
	timeout       time.Duration
	userAgent     string
	allowLocalIPs bool
}

type ClientOption func(*Client)

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithMaxBodySize(n int64) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxBodySize = n
		}
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithAllowLocalIPs disables the private address guard. Tests only.
func WithAllowLocalIPs(allow bool) ClientOption {
	return func(c *Client) {
		c.allowLocalIPs = allow
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		maxBodySize: defaultMaxBodySize,
		timeout:     defaultTimeout,
		userAgent:   defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}

	transport := &http.Transport{
		Proxy:               nil,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
	}
	if !c.allowLocalIPs {
		transport.DialContext = ssrfDialContext
	}

	c.httpClient = &http.Client{
		Timeout:   c.timeout,
		Transport: transport,
	}
	return c
}

// Fetch retrieves rawURL. Network failures and non-2xx statuses come back as
// *TransportError. Text bodies are decoded to UTF-8 using the declared charset.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*FetchedPage, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("invalid URL: %w", err)}
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, &TransportError{Err: fmt.Errorf("unsupported scheme: %s", parsedURL.Scheme)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.8,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &TransportError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read body: %w", err)}
	}

	contentType := resp.Header.Get("Content-Type")
	if isText(contentType) {
		body = decodeCharset(body, contentType)
	}

	return &FetchedPage{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
	}, nil
}

func decodeCharset(body []byte, contentType string) []byte {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return body
	}
	return decoded
}

func isText(contentType string) bool {
	ct := strings.ToLower(contentType)
	return ct == "" || strings.HasPrefix(ct, "text/") || strings.Contains(ct, "html") ||
		strings.Contains(ct, "xml") || strings.Contains(ct, "json")
}

// IsPDF reports whether a Content-Type header names a PDF document.
func IsPDF(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/pdf")
}

func ssrfDialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}

	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}

	for _, ip := range ips {
		if isPrivateIP(ip.IP) {
			return nil, fmt.Errorf("SSRF protection: cannot connect to private IP %s", ip.IP)
		}
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("no addresses for host %s", host)
	}

	d := net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	return d.DialContext(ctx, network, net.JoinHostPort(ips[0].IP.String(), port))
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}
