package config

import "time"

const (
	ConfigFileEnvVar  = "HARBORSYNC_CONFIG"
	APIURLEnvVar      = "HARBORSYNC_API_URL"
	UsernameEnvVar    = "HARBORSYNC_USERNAME"
	PasswordEnvVar    = "HARBORSYNC_PASSWORD"
	DefaultConfigPath = "~/.harborsync/config.yaml"

	DefaultTimeout = 30 * time.Second
)

type Config struct {
	Server Server `yaml:"server"`
}

type Server struct {
	// APIURL is the Harbor API root, e.g. https://harbor.example.com/api/v2.0.
	APIURL            string            `yaml:"api-url"`
	DefaultHeaders    map[string]string `yaml:"default-headers,omitempty"`
	Auth              *Auth             `yaml:"auth,omitempty"`
	TLS               *TLS              `yaml:"tls,omitempty"`
	Timeout           time.Duration     `yaml:"timeout,omitempty"`
	RequestsPerSecond float64           `yaml:"requests-per-second,omitempty"`
	Burst             int               `yaml:"burst,omitempty"`
}

type Auth struct {
	BasicAuth   *BasicAuth       `yaml:"basic-auth,omitempty"`
	BearerToken *BearerTokenAuth `yaml:"bearer-token,omitempty"`
}

type BasicAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type BearerTokenAuth struct {
	Token string `yaml:"token"`
}

type TLS struct {
	CACertFile         string `yaml:"ca-cert-file,omitempty"`
	InsecureSkipVerify bool   `yaml:"insecure-skip-verify,omitempty"`
}

func (s Server) EffectiveTimeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultTimeout
	}
	return s.Timeout
}

const redactedValue = "********"

// Redacted returns a copy of s with credentials masked, for display.
func (s Server) Redacted() Server {
	redacted := s
	if len(s.DefaultHeaders) > 0 {
		redacted.DefaultHeaders = make(map[string]string, len(s.DefaultHeaders))
		for key, value := range s.DefaultHeaders {
			redacted.DefaultHeaders[key] = value
		}
	}
	if s.TLS != nil {
		tlsCopy := *s.TLS
		redacted.TLS = &tlsCopy
	}
	if s.Auth == nil {
		return redacted
	}

	auth := &Auth{}
	if s.Auth.BasicAuth != nil {
		auth.BasicAuth = &BasicAuth{Username: s.Auth.BasicAuth.Username, Password: maskSecret(s.Auth.BasicAuth.Password)}
	}
	if s.Auth.BearerToken != nil {
		auth.BearerToken = &BearerTokenAuth{Token: maskSecret(s.Auth.BearerToken.Token)}
	}
	redacted.Auth = auth
	return redacted
}

func maskSecret(value string) string {
	if value == "" {
		return ""
	}
	return redactedValue
}
