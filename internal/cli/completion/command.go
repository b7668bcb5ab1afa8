package completion

import (
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "completion",
		Short: "Generate shell completion scripts",
		Args:  cobra.NoArgs,
	}
	command.AddCommand(
		newShellCommand("bash", "Generate Bash completion", func(command *cobra.Command) error {
			return command.Root().GenBashCompletionV2(command.OutOrStdout(), true)
		}),
		newShellCommand("zsh", "Generate Zsh completion", func(command *cobra.Command) error {
			return command.Root().GenZshCompletion(command.OutOrStdout())
		}),
		newShellCommand("fish", "Generate Fish completion", func(command *cobra.Command) error {
			return command.Root().GenFishCompletion(command.OutOrStdout(), true)
		}),
		newShellCommand("powershell", "Generate PowerShell completion", func(command *cobra.Command) error {
			return command.Root().GenPowerShellCompletionWithDesc(command.OutOrStdout())
		}),
	)

	return command
}

func newShellCommand(shell string, short string, generate func(*cobra.Command) error) *cobra.Command {
	return &cobra.Command{
		Use:   shell,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			return generate(command)
		},
	}
}
