package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/fedrepo/internal/app"
	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/config"
	"github.com/zjrosen/fedrepo/internal/presentation"
	"github.com/zjrosen/fedrepo/internal/registry"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Query and configure container registry connectors",
}

var registryTagsCmd = &cobra.Command{
	Use:   "tags <image>",
	Short: "List the tags of an image, newest first",
	Long: `List the tags of an image through a registry connector, using the
connector settings from the config file.

Examples:
  fedrepo registry tags cloudforet/plugin-slack-noti-protocol
  fedrepo registry tags team/plugin --type HARBOR
  fedrepo registry tags plugin-aws --type GITHUB --set owner=acme --set owner_type=ORGANIZATION`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registryType, _ := cmd.Flags().GetString("type")
		overrides, _ := cmd.Flags().GetStringToString("set")

		plugin := domain.Plugin{
			PluginID:       args[0],
			Image:          args[0],
			RegistryType:   config.RegistryType(registryType),
			RegistryConfig: overrides,
		}
		resolver := registry.NewResolver(app.RegistrySettings(cfg.Registries))
		tags, err := resolver.ListVersions(cmd.Context(), plugin)
		if err != nil {
			return err
		}
		return render(cmd, presentation.VersionTable(tags))
	},
}

var registryConfigureCmd = &cobra.Command{
	Use:   "configure <registry-type>",
	Short: "Save connector settings to the config file",
	Long: `Save the URL, timeout and credentials of a registry connector to the config
file. Settings not given keep their current value; comments in the file are
preserved.

Example:
  fedrepo registry configure harbor --url harbor.example.com \
    --credential username=robot --credential password=secret`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToLower(args[0])
		if !config.RegistryType(key).IsValid() {
			return fmt.Errorf("unknown registry type %q", args[0])
		}

		reg := cfg.Registries[key]
		flags := cmd.Flags()
		if flags.Changed("url") {
			reg.URL, _ = flags.GetString("url")
		}
		if flags.Changed("timeout") {
			reg.Timeout, _ = flags.GetDuration("timeout")
		}
		creds, _ := flags.GetStringToString("credential")
		if len(creds) > 0 {
			merged := make(map[string]string, len(reg.Credentials)+len(creds))
			for k, v := range reg.Credentials {
				merged[k] = v
			}
			for k, v := range creds {
				merged[k] = v
			}
			reg.Credentials = merged
		}

		path := configFilePath()
		if err := config.SaveRegistry(path, key, reg); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "saved %s settings to %s\n", key, path)
		return err
	},
}

func init() {
	registryTagsCmd.Flags().StringP("type", "t", string(domain.RegistryDockerHub), "Registry type")
	registryTagsCmd.Flags().StringToString("set", nil, "Override a connector setting (repeatable key=value)")

	registryConfigureCmd.Flags().String("url", "", "Registry URL")
	registryConfigureCmd.Flags().Duration("timeout", 0, "Per-call timeout, e.g. 10s")
	registryConfigureCmd.Flags().StringToString("credential", nil, "Credential (repeatable key=value)")

	registryCmd.AddCommand(registryTagsCmd, registryConfigureCmd)
	rootCmd.AddCommand(registryCmd)
}
