package project

import (
	"github.com/spf13/cobra"

	"github.com/crmarques/harborsync/harbor"
	"github.com/crmarques/harborsync/internal/cli/common"
	"github.com/crmarques/harborsync/reconciler"
)

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var (
		name           string
		public         bool
		autoScan       bool
		contentTrust   bool
		quotaGB        int64
		cacheRegistry  string
		reconcileFlags common.ReconcileFlags
	)

	command := &cobra.Command{
		Use:   "project",
		Short: "Reconcile a Harbor project and its storage quota",
		Example: `  harborsync project --name library --public --quota-gb 10
  harborsync project --name dockerhub-proxy --cache-registry dockerhub
  harborsync project --name legacy --state absent --check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := reconciler.ParseState(reconcileFlags.State)
			if err != nil {
				return err
			}
			options := harbor.ProjectOptions{
				Name:          name,
				Public:        common.OptionalBool(cmd, "public", public),
				AutoScan:      common.OptionalBool(cmd, "auto-scan", autoScan),
				ContentTrust:  common.OptionalBool(cmd, "content-trust", contentTrust),
				QuotaGB:       common.OptionalInt64(cmd, "quota-gb", quotaGB),
				CacheRegistry: common.OptionalString(cmd, "cache-registry", cacheRegistry),
			}
			if err := options.Validate(); err != nil {
				return err
			}

			session, err := common.OpenSession(cmd.Context(), deps, globalFlags, cmd.Flags().Changed)
			if err != nil {
				return err
			}

			result := harbor.ApplyProject(cmd.Context(), session.Reconciler, options, state, reconcileFlags.Check)
			return session.Finish(cmd, globalFlags, []harbor.ItemResult{{
				Kind:   harbor.KindProject,
				Name:   name,
				State:  state,
				Result: result,
			}})
		},
	}

	command.Flags().StringVar(&name, "name", "", "project name")
	command.Flags().BoolVar(&public, "public", false, "make the project public")
	command.Flags().BoolVar(&autoScan, "auto-scan", false, "scan images automatically on push")
	command.Flags().BoolVar(&contentTrust, "content-trust", false, "only allow signed images to be pulled")
	command.Flags().Int64Var(&quotaGB, "quota-gb", 0, "storage quota in GiB (-1 for unlimited)")
	command.Flags().StringVar(&cacheRegistry, "cache-registry", "", "registry to proxy-cache, applied on creation only")
	_ = command.MarkFlagRequired("name")
	common.BindReconcileFlags(command, &reconcileFlags)

	return command
}
