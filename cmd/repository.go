package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/fedrepo/internal/app"
	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/presentation"
)

var repositoryCmd = &cobra.Command{
	Use:     "repository",
	Aliases: []string{"repo"},
	Short:   "Manage the repository directory",
}

var repositoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List repositories in resolution order",
	RunE: func(cmd *cobra.Command, _ []string) error {
		repoType, _ := cmd.Flags().GetString("type")
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			repos, err := a.Services().Directory.GetRepositories(ctx, "", domain.RepositoryType(strings.ToUpper(repoType)))
			if err != nil {
				return err
			}
			return render(cmd, presentation.RepositoryTable(repos))
		})
	},
}

var repositoryGetCmd = &cobra.Command{
	Use:   "get <repository-id>",
	Short: "Show one repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			repo, err := a.Services().Directory.GetRepository(ctx, args[0])
			if err != nil {
				return err
			}
			return render(cmd, repo)
		})
	},
}

var repositoryRegisterCmd = &cobra.Command{
	Use:   "register <name>",
	Short: "Register a REMOTE repository",
	Long: `Register a REMOTE repository served by another fedrepo instance. The
peer is contacted to resolve the id of its LOCAL repository, which becomes
the id of the new entry.

Example:
  fedrepo repository register upstream --endpoint http://peer:8080 --priority 20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint, _ := cmd.Flags().GetString("endpoint")
		token, _ := cmd.Flags().GetString("token")
		priority, _ := cmd.Flags().GetInt("priority")
		params := domain.RegisterRepositoryParams{
			Name:           args[0],
			RepositoryType: domain.RepositoryRemote,
			Endpoint:       endpoint,
			Token:          token,
			Priority:       priority,
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			repo, err := a.Services().Directory.Register(ctx, params)
			if err != nil {
				return err
			}
			return render(cmd, repo)
		})
	},
}

var repositoryUpdateCmd = &cobra.Command{
	Use:   "update <repository-id>",
	Short: "Change a repository's name, token or priority",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var params domain.UpdateRepositoryParams
		flags := cmd.Flags()
		if flags.Changed("name") {
			name, _ := flags.GetString("name")
			params.Name = &name
		}
		if flags.Changed("token") {
			token, _ := flags.GetString("token")
			params.Token = &token
		}
		if flags.Changed("priority") {
			priority, _ := flags.GetInt("priority")
			params.Priority = &priority
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			repo, err := a.Services().Directory.Update(ctx, args[0], params)
			if err != nil {
				return err
			}
			return render(cmd, repo)
		})
	},
}

var repositoryDeregisterCmd = &cobra.Command{
	Use:   "deregister <repository-id>",
	Short: "Remove a REMOTE repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Services().Directory.Deregister(ctx, args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "repository %s deregistered\n", args[0])
			return err
		})
	},
}

func init() {
	repositoryListCmd.Flags().StringP("type", "t", "", "Filter by repository type: LOCAL, MANAGED or REMOTE")

	repositoryRegisterCmd.Flags().String("endpoint", "", "Base URL of the peer")
	repositoryRegisterCmd.Flags().String("token", "", "Bearer token presented to the peer")
	repositoryRegisterCmd.Flags().Int("priority", 20, "Resolution priority; lower is visited first")
	_ = repositoryRegisterCmd.MarkFlagRequired("endpoint")

	repositoryUpdateCmd.Flags().String("name", "", "New name")
	repositoryUpdateCmd.Flags().String("token", "", "New bearer token")
	repositoryUpdateCmd.Flags().Int("priority", 0, "New priority")

	repositoryCmd.AddCommand(repositoryListCmd, repositoryGetCmd, repositoryRegisterCmd, repositoryUpdateCmd, repositoryDeregisterCmd)
	rootCmd.AddCommand(repositoryCmd)
}
