package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"

	"github.com/crmarques/harborsync/config"
	"github.com/crmarques/harborsync/debugctx"
	"github.com/crmarques/harborsync/internal/cli/apply"
	"github.com/crmarques/harborsync/internal/cli/commandmeta"
	"github.com/crmarques/harborsync/internal/cli/common"
	"github.com/crmarques/harborsync/internal/cli/completion"
	configcmd "github.com/crmarques/harborsync/internal/cli/config"
	"github.com/crmarques/harborsync/internal/cli/project"
	"github.com/crmarques/harborsync/internal/cli/registry"
	"github.com/crmarques/harborsync/internal/cli/version"
	httptransport "github.com/crmarques/harborsync/internal/providers/transport/http"
	"github.com/crmarques/harborsync/transport"
)

type Dependencies = common.CommandDependencies

// NewDependencies wires the HTTP Harbor client used outside of tests.
func NewDependencies() Dependencies {
	return Dependencies{
		NewClient: func(server config.Server, telemetry common.Telemetry) (transport.Client, error) {
			return httptransport.NewClient(
				server,
				httptransport.WithMetrics(telemetry.Metrics),
				httptransport.WithTracerProvider(telemetry.TracerProvider),
				httptransport.WithUserAgent(version.UserAgent()),
			)
		},
	}
}

func NewRootCommand(deps Dependencies) *cobra.Command {
	var globalFlags common.GlobalFlags

	root := &cobra.Command{
		Use:   "harborsync",
		Short: "Reconcile Harbor projects and registries to a desired state",
		RunE: func(command *cobra.Command, _ []string) error {
			return command.Help()
		},
		Args: cobra.NoArgs,
		PersistentPreRunE: func(command *cobra.Command, _ []string) error {
			if err := common.ValidateOutputFormat(globalFlags.Output); err != nil {
				return err
			}
			commandPath := command.CommandPath()
			if commandmeta.OutputPolicyForPath(commandPath) == commandmeta.OutputPolicyTextOnly && globalFlags.Output != common.OutputText {
				return common.ValidationError(fmt.Sprintf("%s only supports text output", commandPath), nil)
			}
			if globalFlags.MetricsTextfile != "" && !commandmeta.ContactsHarbor(commandPath) {
				return common.ValidationError(fmt.Sprintf("--metrics-textfile does not apply to %s", commandPath), nil)
			}

			commandContext := command.Context()
			if commandContext == nil {
				commandContext = context.Background()
			}
			if globalFlags.Debug {
				commandContext = debugctx.Enable(commandContext, command.ErrOrStderr())
			}
			if globalFlags.Verbose {
				commandContext = logr.NewContext(commandContext, newLogger(command.ErrOrStderr()))
			}
			command.SetContext(commandContext)

			debugctx.Printf(
				command.Context(),
				"root flags config=%q output=%q verbose=%t metrics_textfile=%q command=%q",
				globalFlags.ConfigPath,
				globalFlags.Output,
				globalFlags.Verbose,
				globalFlags.MetricsTextfile,
				commandPath,
			)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.CompletionOptions.DisableDefaultCmd = true
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return common.ValidationError(err.Error(), nil)
	})
	common.BindGlobalFlags(root, &globalFlags)

	root.AddGroup(
		&cobra.Group{ID: "basic", Title: "Basic Commands:"},
		&cobra.Group{ID: "other", Title: "Other Commands:"},
	)

	basicCommands := []*cobra.Command{
		apply.NewCommand(deps, &globalFlags),
		project.NewCommand(deps, &globalFlags),
		registry.NewCommand(deps, &globalFlags),
	}
	for _, command := range basicCommands {
		command.GroupID = "basic"
		root.AddCommand(command)
	}

	otherCommands := []*cobra.Command{
		completion.NewCommand(),
		configcmd.NewCommand(deps, &globalFlags),
		version.NewCommand(&globalFlags),
	}
	for _, command := range otherCommands {
		command.GroupID = "other"
		root.AddCommand(command)
	}

	return root
}

// newLogger writes one line per record; concurrent reconciles share it.
func newLogger(w io.Writer) logr.Logger {
	var mu sync.Mutex
	return funcr.New(func(prefix, args string) {
		mu.Lock()
		defer mu.Unlock()
		if prefix != "" {
			_, _ = fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		_, _ = fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: 1})
}
