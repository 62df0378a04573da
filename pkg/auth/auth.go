// Package auth applies credentials to upstream requests, for mirrors that reach the
// CDN through a proxy or private cache requiring authentication.
package auth

import (
	"fmt"
	"net/http"
	"strings"
)

// Authenticator applies credentials to an outgoing request.
type Authenticator interface {
	Apply(req *http.Request) error
	Type() Type
}

// Type represents the type of authentication.
type Type string

// Authentication types.
const (
	NoneType   Type = "none"
	BasicType  Type = "basic"
	HeaderType Type = "header"
	BearerType Type = "bearer"
)

// Config is the upstream.auth section of the configuration.
type Config struct {
	Type     Type              `yaml:"type"`
	Username string            `yaml:"username,omitempty"`
	Password string            `yaml:"password,omitempty"`
	Token    string            `yaml:"token,omitempty"`
	Headers  map[string]string `yaml:"headers,omitempty"`
}

// New builds the authenticator described by cfg. It returns nil for no authentication.
func New(cfg Config) (Authenticator, error) {
	switch Type(strings.ToLower(string(cfg.Type))) {
	case "", NoneType:
		return nil, nil
	case BasicType:
		if cfg.Username == "" {
			return nil, fmt.Errorf("basic auth requires a username")
		}
		return BasicAuth{Username: cfg.Username, Password: cfg.Password}, nil
	case BearerType:
		if cfg.Token == "" {
			return nil, fmt.Errorf("bearer auth requires a token")
		}
		return BearerAuth{Token: cfg.Token}, nil
	case HeaderType:
		if len(cfg.Headers) == 0 {
			return nil, fmt.Errorf("header auth requires at least one header")
		}
		return HeaderAuth{Headers: cfg.Headers}, nil
	default:
		return nil, fmt.Errorf("unsupported auth type %q", cfg.Type)
	}
}

// BasicAuth sends HTTP Basic credentials.
type BasicAuth struct {
	Username string
	Password string
}

// Apply sets the Authorization header.
func (b BasicAuth) Apply(req *http.Request) error {
	req.SetBasicAuth(b.Username, b.Password)
	return nil
}

// Type returns BasicType.
func (b BasicAuth) Type() Type { return BasicType }

// HeaderAuth sends fixed headers, e.g. an API key.
type HeaderAuth struct {
	Headers map[string]string
}

// Apply sets every configured header.
func (h HeaderAuth) Apply(req *http.Request) error {
	for k, v := range h.Headers {
		req.Header.Set(k, v)
	}
	return nil
}

// Type returns HeaderType.
func (h HeaderAuth) Type() Type { return HeaderType }

// BearerAuth sends a bearer token.
type BearerAuth struct {
	Token string
}

// Apply sets the Authorization header.
func (b BearerAuth) Apply(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+b.Token)
	return nil
}

// Type returns BearerType.
func (b BearerAuth) Type() Type { return BearerType }

// Transport applies Auth to requests for Host only, so credentials never follow a
// redirect to another host.
type Transport struct {
	Auth Authenticator
	Host string
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.Auth == nil || !strings.EqualFold(req.URL.Host, t.Host) {
		return base.RoundTrip(req)
	}
	authed := req.Clone(req.Context())
	if err := t.Auth.Apply(authed); err != nil {
		return nil, fmt.Errorf("failed to apply %s auth: %w", t.Auth.Type(), err)
	}
	return base.RoundTrip(authed)
}

// String returns the type only, so secrets never reach logs or config listings.
func (c Config) String() string {
	if c.Type == "" {
		return string(NoneType)
	}
	return string(c.Type)
}
