package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/fedrepo/internal/app"
	"github.com/zjrosen/fedrepo/internal/catalog/application"
	"github.com/zjrosen/fedrepo/internal/presentation"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Create and look up policies",
}

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List policies across repositories",
	RunE: func(cmd *cobra.Command, _ []string) error {
		repositoryID, domainID := scopeFromFlags(cmd)
		q := queryFromFlags(cmd)
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			policies, _, err := a.Services().Policies.List(ctx, q, domainID, repositoryID)
			if err != nil {
				return err
			}
			return render(cmd, presentation.PolicyTable(policies))
		})
	},
}

var policyGetCmd = &cobra.Command{
	Use:   "get <policy-id>",
	Short: "Show a policy from the first repository that has it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repositoryID, domainID := scopeFromFlags(cmd)
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			policy, err := a.Services().Policies.Get(ctx, args[0], domainID, repositoryID)
			if err != nil {
				return err
			}
			return render(cmd, policy)
		})
	},
}

var policyCreateCmd = &cobra.Command{
	Use:   "create -f <file>",
	Short: "Create a policy in the LOCAL repository",
	RunE: func(cmd *cobra.Command, _ []string) error {
		file, _ := cmd.Flags().GetString("file")
		params, err := decodeFile[application.CreatePolicyParams](file)
		if err != nil {
			return err
		}
		params.DomainID = domainOrDefault(params.DomainID)
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			policy, err := a.Services().Policies.Create(ctx, params)
			if err != nil {
				return err
			}
			return render(cmd, policy)
		})
	},
}

var policyEnableCmd = &cobra.Command{
	Use:   "enable <policy-id>",
	Short: "Enable a LOCAL policy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, domainID := scopeFromFlags(cmd)
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			policy, err := a.Services().Policies.Enable(ctx, args[0], domainID)
			if err != nil {
				return err
			}
			return render(cmd, policy)
		})
	},
}

var policyDisableCmd = &cobra.Command{
	Use:   "disable <policy-id>",
	Short: "Disable a LOCAL policy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, domainID := scopeFromFlags(cmd)
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			policy, err := a.Services().Policies.Disable(ctx, args[0], domainID)
			if err != nil {
				return err
			}
			return render(cmd, policy)
		})
	},
}

var policyDeleteCmd = &cobra.Command{
	Use:   "delete <policy-id>",
	Short: "Delete a LOCAL policy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, domainID := scopeFromFlags(cmd)
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Services().Policies.Delete(ctx, args[0], domainID); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "policy %s deleted\n", args[0])
			return err
		})
	},
}

func init() {
	addQueryFlags(policyListCmd)
	for _, c := range []*cobra.Command{policyGetCmd, policyEnableCmd, policyDisableCmd, policyDeleteCmd} {
		addScopeFlags(c)
	}
	policyCreateCmd.Flags().StringP("file", "f", "", "Policy definition (YAML or JSON)")
	_ = policyCreateCmd.MarkFlagRequired("file")

	policyCmd.AddCommand(policyListCmd, policyGetCmd, policyCreateCmd, policyEnableCmd, policyDisableCmd, policyDeleteCmd)
	rootCmd.AddCommand(policyCmd)
}
