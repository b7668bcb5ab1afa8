package common

import (
	"github.com/spf13/cobra"

	"github.com/crmarques/harborsync/tracing"
)

type GlobalFlags struct {
	ConfigPath         string
	APIURL             string
	Username           string
	Password           string
	InsecureSkipVerify bool
	Debug              bool
	Verbose            bool
	Output             string
	MetricsTextfile    string
	TraceExporter      string
	OTLPEndpoint       string
	OTLPInsecure       bool
}

// ReconcileFlags are shared by every command that reconciles resources.
type ReconcileFlags struct {
	State string
	Check bool
}

func BindGlobalFlags(command *cobra.Command, flags *GlobalFlags) {
	persistent := command.PersistentFlags()
	persistent.StringVar(&flags.ConfigPath, "config", "", "config file path (default ~/.harborsync/config.yaml)")
	persistent.StringVar(&flags.APIURL, "api-url", "", "Harbor API url, e.g. https://harbor.example.com/api/v2.0")
	persistent.StringVar(&flags.Username, "username", "", "Harbor username")
	persistent.StringVar(&flags.Password, "password", "", "Harbor password")
	persistent.BoolVar(&flags.InsecureSkipVerify, "insecure-skip-verify", false, "skip TLS certificate verification")
	persistent.BoolVarP(&flags.Debug, "debug", "d", false, "trace HTTP requests on stderr")
	persistent.BoolVarP(&flags.Verbose, "verbose", "v", false, "log reconcile decisions on stderr")
	persistent.StringVarP(&flags.Output, "output", "o", OutputText, "output format: text|json|yaml")
	persistent.StringVar(&flags.MetricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file after the run")
	persistent.StringVar(&flags.TraceExporter, "trace-exporter", tracing.ExporterNone, "export reconcile spans: none|stdout|otlp")
	persistent.StringVar(&flags.OTLPEndpoint, "otlp-endpoint", "", "OTLP gRPC collector host:port (default from OTEL_EXPORTER_OTLP_ENDPOINT)")
	persistent.BoolVar(&flags.OTLPInsecure, "otlp-insecure", false, "connect to the OTLP collector without TLS")
	RegisterFlagValueCompletions(command, "output", []string{OutputText, OutputJSON, OutputYAML})
	RegisterFlagValueCompletions(command, "trace-exporter", tracing.Exporters)
}

func BindReconcileFlags(command *cobra.Command, flags *ReconcileFlags) {
	command.Flags().StringVar(&flags.State, "state", "present", "desired state: present|absent")
	command.Flags().BoolVar(&flags.Check, "check", false, "report what would change without changing anything")
	RegisterFlagValueCompletions(command, "state", []string{"present", "absent"})
}

func RegisterFlagValueCompletions(command *cobra.Command, flagName string, values []string) {
	_ = command.RegisterFlagCompletionFunc(flagName, func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	})
}

// OptionalBool returns the flag value only when the user set it, so an
// omitted flag never turns into a desired false.
func OptionalBool(command *cobra.Command, name string, value bool) *bool {
	if !command.Flags().Changed(name) {
		return nil
	}
	return &value
}

func OptionalString(command *cobra.Command, name string, value string) *string {
	if !command.Flags().Changed(name) {
		return nil
	}
	return &value
}

func OptionalInt64(command *cobra.Command, name string, value int64) *int64 {
	if !command.Flags().Changed(name) {
		return nil
	}
	return &value
}
