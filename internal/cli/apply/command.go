package apply

import (
	"github.com/spf13/cobra"

	"github.com/crmarques/harborsync/config"
	"github.com/crmarques/harborsync/harbor"
	"github.com/crmarques/harborsync/internal/cli/common"
)

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var (
		manifestPath string
		check        bool
		parallel     int
	)

	command := &cobra.Command{
		Use:   "apply",
		Short: "Reconcile every registry and project listed in a manifest",
		Example: `  harborsync apply -f harbor.yaml
  cat harbor.yaml | harborsync apply -f - --check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if parallel < 1 {
				return common.ValidationError("--parallel must be at least 1", nil)
			}
			stdin := deps.StdinReader()
			if manifestPath == "-" && common.IsInteractiveInput(stdin) {
				return common.ValidationError("--file - expects a manifest piped on stdin", nil)
			}
			manifest, err := config.LoadManifest(manifestPath, stdin)
			if err != nil {
				return err
			}

			session, err := common.OpenSession(cmd.Context(), deps, globalFlags, cmd.Flags().Changed)
			if err != nil {
				return err
			}

			items, err := harbor.ApplyManifest(cmd.Context(), session.Reconciler, manifest, check, parallel)
			if err != nil {
				_ = session.Close()
				return err
			}
			return session.Finish(cmd, globalFlags, items)
		},
	}

	command.Flags().StringVarP(&manifestPath, "file", "f", "", "manifest file path (use '-' for stdin)")
	command.Flags().BoolVar(&check, "check", false, "report what would change without changing anything")
	command.Flags().IntVar(&parallel, "parallel", harbor.DefaultParallelism, "maximum resources reconciled at once")
	_ = command.MarkFlagRequired("file")

	return command
}
