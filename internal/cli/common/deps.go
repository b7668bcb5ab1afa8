package common

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/crmarques/harborsync/config"
	"github.com/crmarques/harborsync/debugctx"
	"github.com/crmarques/harborsync/harbor"
	"github.com/crmarques/harborsync/metrics"
	"github.com/crmarques/harborsync/reconciler"
	"github.com/crmarques/harborsync/tracing"
	"github.com/crmarques/harborsync/transport"
)

// Telemetry is handed to the client factory so requests are counted and
// traced alongside reconciles.
type Telemetry struct {
	Metrics        *metrics.Recorder
	TracerProvider trace.TracerProvider
}

// ClientFactory builds the Harbor client from the resolved server settings.
type ClientFactory func(server config.Server, telemetry Telemetry) (transport.Client, error)

type CommandDependencies struct {
	NewClient ClientFactory
	LookupEnv func(string) (string, bool)
	Stdin     io.Reader
	// Stderr receives stdout-exported spans. Defaults to os.Stderr.
	Stderr io.Writer
}

func (d CommandDependencies) lookupEnv() func(string) (string, bool) {
	if d.LookupEnv == nil {
		return os.LookupEnv
	}
	return d.LookupEnv
}

func (d CommandDependencies) stderr() io.Writer {
	if d.Stderr == nil {
		return os.Stderr
	}
	return d.Stderr
}

func (d CommandDependencies) StdinReader() io.Reader {
	if d.Stdin == nil {
		return os.Stdin
	}
	return d.Stdin
}

// Session is what a reconcile command needs for one run.
type Session struct {
	Reconciler *reconciler.Reconciler
	Metrics    *metrics.Recorder
	APIURL     string

	tracing         *tracing.Provider
	metricsTextfile string
}

// OpenSession resolves the server settings from the config file, the
// environment and the global flags, in increasing precedence.
func OpenSession(ctx context.Context, deps CommandDependencies, flags *GlobalFlags, changed func(string) bool) (*Session, error) {
	if deps.NewClient == nil {
		return nil, ValidationError("harbor client is not configured", nil)
	}

	server, err := ResolveServer(deps, flags, changed)
	if err != nil {
		return nil, err
	}
	debugctx.Printf(
		ctx,
		"server api_url=%q timeout=%s requests_per_second=%g tls_insecure_skip_verify=%t",
		server.APIURL,
		server.EffectiveTimeout(),
		server.RequestsPerSecond,
		server.TLS != nil && server.TLS.InsecureSkipVerify,
	)

	provider, err := tracing.NewProvider(ctx, tracing.Config{
		Exporter:     flags.TraceExporter,
		OTLPEndpoint: flags.OTLPEndpoint,
		OTLPInsecure: flags.OTLPInsecure,
		Writer:       deps.stderr(),
	})
	if err != nil {
		return nil, err
	}

	recorder := metrics.NewRecorder()
	client, err := deps.NewClient(server, Telemetry{Metrics: recorder, TracerProvider: provider.TracerProvider()})
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	return &Session{
		Reconciler: reconciler.New(
			client,
			reconciler.WithMetrics(recorder),
			reconciler.WithTracerProvider(provider.TracerProvider()),
		),
		Metrics:         recorder,
		APIURL:          server.APIURL,
		tracing:         provider,
		metricsTextfile: flags.MetricsTextfile,
	}, nil
}

func ResolveServer(deps CommandDependencies, flags *GlobalFlags, changed func(string) bool) (config.Server, error) {
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return config.Server{}, err
	}
	cfg = config.ApplyEnv(cfg, deps.lookupEnv())

	server := cfg.Server
	if changed("api-url") {
		server.APIURL = flags.APIURL
	}
	if changed("username") || changed("password") {
		server = server.WithBasicAuth(flags.Username, changed("username"), flags.Password, changed("password"))
	}
	if changed("insecure-skip-verify") {
		tlsSettings := config.TLS{}
		if server.TLS != nil {
			tlsSettings = *server.TLS
		}
		tlsSettings.InsecureSkipVerify = flags.InsecureSkipVerify
		server.TLS = &tlsSettings
	}

	if err := server.Validate(); err != nil {
		return config.Server{}, err
	}
	return server, nil
}

// Close flushes pending spans and exports metrics when a textfile was
// requested.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}

	var errs []error
	if err := s.tracing.Shutdown(context.Background()); err != nil {
		errs = append(errs, err)
	}
	if s.metricsTextfile != "" {
		if err := s.Metrics.WriteTextfile(s.metricsTextfile); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Finish renders results, exports metrics and returns the first reconcile
// error so the exit code reflects it.
func (s *Session) Finish(command *cobra.Command, flags *GlobalFlags, items []harbor.ItemResult) error {
	writeErr := WriteItemResults(command, flags.Output, items, true)
	closeErr := s.Close()

	if err := harbor.FirstError(items); err != nil {
		return err
	}
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}
