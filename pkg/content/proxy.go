package content

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// ProxyMode selects how a relay wraps the target URL and its response.
type ProxyMode string

const (
	// ProxyModeJSON relays take a query-escaped URL and answer {"contents": "..."}.
	ProxyModeJSON ProxyMode = "json"
	// ProxyModePrefix relays take the raw URL appended and return the page as-is.
	ProxyModePrefix ProxyMode = "prefix"
)

// Proxy is one third-party relay used to get around cross-origin or
// bot-blocking restrictions on the origin.
type Proxy struct {
	Endpoint string    `yaml:"endpoint"`
	Mode     ProxyMode `yaml:"mode"`
}

// DefaultProxies are the relays tried after a failed direct fetch, in order.
var DefaultProxies = []Proxy{
	{Endpoint: "https://api.allorigins.win/get?url=", Mode: ProxyModeJSON},
	{Endpoint: "https://cors-anywhere.herokuapp.com/", Mode: ProxyModePrefix},
	{Endpoint: "https://thingproxy.freeboard.io/fetch/", Mode: ProxyModePrefix},
}

// RequestURL builds the relay URL for a target.
func (p Proxy) RequestURL(target string) string {
	if p.Mode == ProxyModeJSON {
		return p.Endpoint + url.QueryEscape(target)
	}
	return p.Endpoint + target
}

type relayEnvelope struct {
	Contents string `json:"contents"`
}

// Unwrap turns a relay response body into the origin document.
func (p Proxy) Unwrap(body []byte) ([]byte, error) {
	if p.Mode != ProxyModeJSON {
		return body, nil
	}
	var env relayEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode proxy response: %w", err)
	}
	if env.Contents == "" {
		return nil, ErrEmptyProxyContent
	}
	return []byte(env.Contents), nil
}
