package config

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	configdomain "github.com/crmarques/harborsync/config"
	"github.com/crmarques/harborsync/harbor"
	"github.com/crmarques/harborsync/internal/cli/common"
)

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "config",
		Short: "Inspect harborsync configuration",
		Args:  cobra.NoArgs,
	}

	command.AddCommand(
		newPrintTemplateCommand(),
		newShowCommand(deps, globalFlags),
		newCheckCommand(deps, globalFlags),
	)

	return command
}

func newPrintTemplateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "print-template",
		Short: "Print a configuration YAML template with guidance comments",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			_, err := io.WriteString(command.OutOrStdout(), configTemplateYAML)
			return err
		},
	}
}

func newShowCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved server settings with credentials masked",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			server, err := common.ResolveServer(deps, globalFlags, command.Flags().Changed)
			if err != nil {
				return err
			}

			format := globalFlags.Output
			if format == common.OutputText {
				format = common.OutputYAML
			}
			return common.WriteOutput(command, format, configdomain.Config{Server: server.Redacted()}, nil)
		},
	}
}

type checkResult struct {
	APIURL        string `json:"api_url" yaml:"api_url"`
	HarborVersion string `json:"harbor_version" yaml:"harbor_version"`
	AuthMode      string `json:"auth_mode,omitempty" yaml:"auth_mode,omitempty"`
}

func newCheckCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Resolve the configuration and confirm Harbor answers",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			session, err := common.OpenSession(command.Context(), deps, globalFlags, command.Flags().Changed)
			if err != nil {
				return err
			}

			info, err := harbor.FetchSystemInfo(command.Context(), session.Reconciler.Client())
			closeErr := session.Close()
			if err != nil {
				return err
			}

			result := checkResult{
				APIURL:        session.APIURL,
				HarborVersion: info.HarborVersion,
				AuthMode:      info.AuthMode,
			}
			if err := common.WriteOutput(command, globalFlags.Output, result, func(w io.Writer, value checkResult) error {
				_, err := fmt.Fprintf(w, "harbor %s reachable at %s\n", value.HarborVersion, value.APIURL)
				return err
			}); err != nil {
				return err
			}
			return closeErr
		},
	}
}
