package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/crmarques/harborsync/faults"
)

// Load reads the configuration file. When explicitPath is empty the path
// comes from HARBORSYNC_CONFIG or the default location, and a missing file
// yields an empty configuration so flags and environment can supply
// everything.
func Load(explicitPath string) (Config, error) {
	path, err := resolveConfigPath(explicitPath)
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && explicitPath == "" && os.Getenv(ConfigFileEnvVar) == "" {
			return Config{}, nil
		}
		return Config{}, validationError(fmt.Sprintf("failed to read config file %q", path), err)
	}
	return Decode(data)
}

func Decode(data []byte) (Config, error) {
	var cfg Config
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, validationError("invalid config yaml", err)
	}
	return cfg, nil
}

// ApplyEnv overlays HARBORSYNC_* environment variables on cfg.
func ApplyEnv(cfg Config, lookup func(string) (string, bool)) Config {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if value, ok := lookup(APIURLEnvVar); ok && strings.TrimSpace(value) != "" {
		cfg.Server.APIURL = strings.TrimSpace(value)
	}

	username, hasUsername := lookup(UsernameEnvVar)
	password, hasPassword := lookup(PasswordEnvVar)
	if hasUsername || hasPassword {
		cfg.Server.Auth = withBasicAuth(cfg.Server.Auth, username, hasUsername, password, hasPassword)
	}
	return cfg
}

// WithBasicAuth returns a copy of cfg using basic auth, keeping any
// credential part that is not overridden.
func (s Server) WithBasicAuth(username string, setUsername bool, password string, setPassword bool) Server {
	s.Auth = withBasicAuth(s.Auth, username, setUsername, password, setPassword)
	return s
}

func withBasicAuth(auth *Auth, username string, setUsername bool, password string, setPassword bool) *Auth {
	basic := BasicAuth{}
	if auth != nil && auth.BasicAuth != nil {
		basic = *auth.BasicAuth
	}
	if setUsername {
		basic.Username = username
	}
	if setPassword {
		basic.Password = password
	}
	return &Auth{BasicAuth: &basic}
}

func (s Server) Validate() error {
	if strings.TrimSpace(s.APIURL) == "" {
		return validationError("server.api-url is required", nil)
	}
	parsed, err := url.Parse(s.APIURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return validationError(fmt.Sprintf("server.api-url %q is invalid", s.APIURL), err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return validationError("server.api-url must use http or https", nil)
	}

	if s.Auth == nil {
		return validationError("server.auth is required", nil)
	}
	switch {
	case s.Auth.BasicAuth != nil && s.Auth.BearerToken != nil:
		return validationError("server.auth must define exactly one auth mode", nil)
	case s.Auth.BasicAuth != nil:
		if s.Auth.BasicAuth.Username == "" || s.Auth.BasicAuth.Password == "" {
			return validationError("server.auth.basic-auth requires username and password", nil)
		}
	case s.Auth.BearerToken != nil:
		if s.Auth.BearerToken.Token == "" {
			return validationError("server.auth.bearer-token.token is required", nil)
		}
	default:
		return validationError("server.auth must define exactly one auth mode", nil)
	}

	if s.Timeout < 0 {
		return validationError("server.timeout must not be negative", nil)
	}
	if s.RequestsPerSecond < 0 || s.Burst < 0 {
		return validationError("server.requests-per-second and server.burst must not be negative", nil)
	}
	return nil
}

// LoadManifest decodes a desired-state manifest; "-" reads stdin.
func LoadManifest(path string, stdin io.Reader) (Manifest, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return Manifest{}, validationError(fmt.Sprintf("failed to read manifest %q", path), err)
	}
	return DecodeManifest(data)
}

func DecodeManifest(data []byte) (Manifest, error) {
	var manifest Manifest

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&manifest); err != nil {
		if errors.Is(err, io.EOF) {
			return Manifest{}, nil
		}
		return Manifest{}, validationError("invalid manifest yaml", err)
	}
	return manifest, nil
}

func resolveConfigPath(explicitPath string) (string, error) {
	path := explicitPath
	if path == "" {
		path = os.Getenv(ConfigFileEnvVar)
	}
	if path == "" {
		path = DefaultConfigPath
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", validationError("failed to resolve user home directory", err)
		}
		path = filepath.Join(homeDir, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
	}

	return filepath.Clean(path), nil
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}
