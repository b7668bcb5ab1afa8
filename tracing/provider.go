// Package tracing builds the OpenTelemetry tracer provider used for
// reconcile and Harbor request spans.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/crmarques/harborsync/faults"
)

const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"

	DefaultServiceName = "harborsync"
)

// Exporters lists the accepted --trace-exporter values.
var Exporters = []string{ExporterNone, ExporterStdout, ExporterOTLP}

type Config struct {
	// Exporter is one of Exporters. Empty means none.
	Exporter string
	// OTLPEndpoint is host:port of an OTLP gRPC collector. Empty defers to
	// OTEL_EXPORTER_OTLP_ENDPOINT.
	OTLPEndpoint string
	OTLPInsecure bool
	ServiceName  string
	// Writer receives stdout exporter output. Defaults to os.Stderr.
	Writer io.Writer
}

// Provider owns the tracer provider for one command run.
type Provider struct {
	sdk *sdktrace.TracerProvider
	tp  trace.TracerProvider
}

func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	exporterName := strings.ToLower(strings.TrimSpace(cfg.Exporter))

	var exporter sdktrace.SpanExporter
	var spanOption sdktrace.TracerProviderOption
	switch exporterName {
	case "", ExporterNone:
		return &Provider{tp: noop.NewTracerProvider()}, nil
	case ExporterStdout:
		writer := cfg.Writer
		if writer == nil {
			writer = os.Stderr
		}
		stdoutExporter, err := stdouttrace.New(stdouttrace.WithWriter(writer), stdouttrace.WithoutTimestamps())
		if err != nil {
			return nil, faults.NewTypedError(faults.ValidationError, "failed to create stdout trace exporter", err)
		}
		exporter = stdoutExporter
		spanOption = sdktrace.WithSyncer(exporter)
	case ExporterOTLP:
		options := []otlptracegrpc.Option{}
		if endpoint := strings.TrimSpace(cfg.OTLPEndpoint); endpoint != "" {
			options = append(options, otlptracegrpc.WithEndpoint(endpoint))
		}
		if cfg.OTLPInsecure {
			options = append(options, otlptracegrpc.WithInsecure())
		}
		otlpExporter, err := otlptracegrpc.New(ctx, options...)
		if err != nil {
			return nil, faults.NewTypedError(faults.NetworkError, "failed to create otlp trace exporter", err)
		}
		exporter = otlpExporter
		spanOption = sdktrace.WithBatcher(exporter)
	default:
		return nil, faults.NewTypedError(
			faults.ValidationError,
			fmt.Sprintf("invalid trace exporter %q: use %s", cfg.Exporter, strings.Join(Exporters, ", ")),
			nil,
		)
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	sdk := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
		spanOption,
	)
	return &Provider{sdk: sdk, tp: sdk}, nil
}

func (p *Provider) TracerProvider() trace.TracerProvider {
	if p == nil || p.tp == nil {
		return noop.NewTracerProvider()
	}
	return p.tp
}

// Shutdown flushes pending spans. It is a no-op for the none exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.sdk == nil {
		return nil
	}
	return p.sdk.Shutdown(ctx)
}
