package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/fedrepo/internal/app"
	"github.com/zjrosen/fedrepo/internal/catalog/application"
	"github.com/zjrosen/fedrepo/internal/presentation"
)

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Register and look up plugins",
}

var pluginListCmd = &cobra.Command{
	Use:   "list",
	Short: "List plugins across repositories",
	RunE: func(cmd *cobra.Command, _ []string) error {
		repositoryID, domainID := scopeFromFlags(cmd)
		q := queryFromFlags(cmd)
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			plugins, _, err := a.Services().Plugins.List(ctx, q, domainID, repositoryID)
			if err != nil {
				return err
			}
			return render(cmd, presentation.PluginTable(plugins))
		})
	},
}

var pluginGetCmd = &cobra.Command{
	Use:   "get <plugin-id>",
	Short: "Show a plugin from the first repository that has it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repositoryID, domainID := scopeFromFlags(cmd)
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			plugin, err := a.Services().Plugins.Get(ctx, args[0], domainID, repositoryID)
			if err != nil {
				return err
			}
			return render(cmd, plugin)
		})
	},
}

var pluginVersionsCmd = &cobra.Command{
	Use:   "versions <plugin-id>",
	Short: "List the image versions of a plugin, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repositoryID, domainID := scopeFromFlags(cmd)
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			versions, err := a.Services().Plugins.GetVersions(ctx, args[0], domainID, repositoryID)
			if err != nil {
				return err
			}
			return render(cmd, presentation.VersionTable(versions))
		})
	},
}

var pluginRegisterCmd = &cobra.Command{
	Use:   "register -f <file>",
	Short: "Register a plugin in the LOCAL repository",
	Long: `Register a plugin described by a YAML or JSON file. The image must have at
least one tag in its registry.

Example file:
  name: Slack Notifier
  image: acme/plugin-slack
  registry_type: DOCKER_HUB
  service_type: notification.Protocol`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		file, _ := cmd.Flags().GetString("file")
		params, err := decodeFile[application.RegisterPluginParams](file)
		if err != nil {
			return err
		}
		params.DomainID = domainOrDefault(params.DomainID)
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			plugin, err := a.Services().Plugins.Register(ctx, params)
			if err != nil {
				return err
			}
			return render(cmd, plugin)
		})
	},
}

var pluginEnableCmd = &cobra.Command{
	Use:   "enable <plugin-id>",
	Short: "Enable a LOCAL plugin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, domainID := scopeFromFlags(cmd)
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			plugin, err := a.Services().Plugins.Enable(ctx, args[0], domainID)
			if err != nil {
				return err
			}
			return render(cmd, plugin)
		})
	},
}

var pluginDisableCmd = &cobra.Command{
	Use:   "disable <plugin-id>",
	Short: "Disable a LOCAL plugin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, domainID := scopeFromFlags(cmd)
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			plugin, err := a.Services().Plugins.Disable(ctx, args[0], domainID)
			if err != nil {
				return err
			}
			return render(cmd, plugin)
		})
	},
}

var pluginDeregisterCmd = &cobra.Command{
	Use:   "deregister <plugin-id>",
	Short: "Remove a LOCAL plugin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, domainID := scopeFromFlags(cmd)
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Services().Plugins.Deregister(ctx, args[0], domainID); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "plugin %s deregistered\n", args[0])
			return err
		})
	},
}

func init() {
	addQueryFlags(pluginListCmd)
	for _, c := range []*cobra.Command{pluginGetCmd, pluginVersionsCmd, pluginEnableCmd, pluginDisableCmd, pluginDeregisterCmd} {
		addScopeFlags(c)
	}
	pluginRegisterCmd.Flags().StringP("file", "f", "", "Plugin definition (YAML or JSON)")
	_ = pluginRegisterCmd.MarkFlagRequired("file")

	pluginCmd.AddCommand(pluginListCmd, pluginGetCmd, pluginVersionsCmd, pluginRegisterCmd,
		pluginEnableCmd, pluginDisableCmd, pluginDeregisterCmd)
	rootCmd.AddCommand(pluginCmd)
}
