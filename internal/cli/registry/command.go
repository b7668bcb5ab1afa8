package registry

import (
	"github.com/spf13/cobra"

	"github.com/crmarques/harborsync/harbor"
	"github.com/crmarques/harborsync/internal/cli/common"
	"github.com/crmarques/harborsync/reconciler"
)

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var (
		name           string
		registryType   string
		endpointURL    string
		accessKey      string
		accessSecret   string
		insecure       bool
		reconcileFlags common.ReconcileFlags
	)

	command := &cobra.Command{
		Use:   "registry",
		Short: "Reconcile a Harbor registry endpoint",
		Example: `  harborsync registry --name dockerhub --type docker-hub --endpoint-url https://hub.docker.com
  harborsync registry --name mirror --state absent`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := reconciler.ParseState(reconcileFlags.State)
			if err != nil {
				return err
			}
			options := harbor.RegistryOptions{
				Name:         name,
				Type:         common.OptionalString(cmd, "type", registryType),
				EndpointURL:  common.OptionalString(cmd, "endpoint-url", endpointURL),
				AccessKey:    common.OptionalString(cmd, "access-key", accessKey),
				AccessSecret: common.OptionalString(cmd, "access-secret", accessSecret),
				Insecure:     common.OptionalBool(cmd, "insecure", insecure),
			}
			if err := options.Validate(state); err != nil {
				return err
			}

			session, err := common.OpenSession(cmd.Context(), deps, globalFlags, cmd.Flags().Changed)
			if err != nil {
				return err
			}

			result := harbor.ApplyRegistry(cmd.Context(), session.Reconciler, options, state, reconcileFlags.Check)
			return session.Finish(cmd, globalFlags, []harbor.ItemResult{{
				Kind:   harbor.KindRegistry,
				Name:   name,
				State:  state,
				Result: result,
			}})
		},
	}

	command.Flags().StringVar(&name, "name", "", "registry name")
	command.Flags().StringVar(&registryType, "type", "", "registry adapter type")
	command.Flags().StringVar(&endpointURL, "endpoint-url", "", "registry endpoint url")
	command.Flags().StringVar(&accessKey, "access-key", "", "registry access key")
	command.Flags().StringVar(&accessSecret, "access-secret", "", "registry access secret")
	command.Flags().BoolVar(&insecure, "insecure", false, "skip certificate verification towards the registry")
	_ = command.MarkFlagRequired("name")
	common.RegisterFlagValueCompletions(command, "type", harbor.RegistryTypes)
	common.BindReconcileFlags(command, &reconcileFlags)

	return command
}
