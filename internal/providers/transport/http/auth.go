package http

import (
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"os"
	"strings"

	"github.com/crmarques/harborsync/config"
)

type authMode int

const (
	authModeNone authMode = iota
	authModeBasic
	authModeBearer
)

type authConfig struct {
	mode        authMode
	basicAuth   config.BasicAuth
	bearerToken string
}

// buildAuthConfig expects an already validated configuration.
func buildAuthConfig(cfg *config.Auth) authConfig {
	switch {
	case cfg == nil:
		return authConfig{}
	case cfg.BasicAuth != nil:
		return authConfig{mode: authModeBasic, basicAuth: *cfg.BasicAuth}
	case cfg.BearerToken != nil:
		return authConfig{mode: authModeBearer, bearerToken: cfg.BearerToken.Token}
	default:
		return authConfig{}
	}
}

func (a authConfig) apply(request *http.Request) {
	switch a.mode {
	case authModeBasic:
		request.SetBasicAuth(a.basicAuth.Username, a.basicAuth.Password)
	case authModeBearer:
		request.Header.Set("Authorization", "Bearer "+a.bearerToken)
	}
}

func buildTLSConfig(tlsSettings *config.TLS) (*tls.Config, error) {
	if tlsSettings == nil {
		return nil, nil
	}

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: tlsSettings.InsecureSkipVerify,
	}

	if caFile := strings.TrimSpace(tlsSettings.CACertFile); caFile != "" {
		caBytes, err := os.ReadFile(caFile)
		if err != nil {
			return nil, validationError("server.tls.ca-cert-file could not be read", err)
		}

		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(caBytes); !ok {
			return nil, validationError("server.tls.ca-cert-file is not valid PEM", nil)
		}
		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}
