package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/fedrepo/internal/config"
	"github.com/zjrosen/fedrepo/internal/log"
)

var (
	version      = "dev"
	cfgFile      string
	outputFormat string
	cfg          config.Config
	closeLog     func()
)

var rootCmd = &cobra.Command{
	Use:   "fedrepo",
	Short: "Federated repository of plugins, policies and schemas",
	Long: `fedrepo serves plugins, policies and schemas from an ordered set of
repositories: a LOCAL store, the bundled MANAGED catalog and REMOTE peers.
Run "fedrepo serve" to expose the RPC API, or use the subcommands to work on
the local database directly.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: initLogging,
	PersistentPostRun: func(*cobra.Command, []string) {
		if closeLog != nil {
			closeLog()
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./.fedrepo/config.yaml or ~/.fedrepo/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table",
		"output format: table, json or yaml")
	rootCmd.PersistentFlags().String("db", "", "path to the LOCAL repository database")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")

	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("database.path", defaults.Database.Path)
	viper.SetDefault("server.addr", defaults.Server.Addr)
	viper.SetDefault("server.domain_id", defaults.Server.DomainID)
	viper.SetDefault("server.token", "")
	viper.SetDefault("log.path", "")
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("managed.catalog_dir", "")

	viper.SetEnvPrefix("FEDREPO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .fedrepo/config.yaml (current directory)
		// 2. ~/.fedrepo/config.yaml (user config)
		if _, err := os.Stat(filepath.Join(".fedrepo", "config.yaml")); err == nil {
			viper.SetConfigFile(filepath.Join(".fedrepo", "config.yaml"))
		} else {
			viper.AddConfigPath(config.DefaultDataDir())
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			defaultPath := filepath.Join(config.DefaultDataDir(), "config.yaml")
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	cfg = config.Defaults()
	_ = viper.Unmarshal(&cfg)
}

func initLogging(*cobra.Command, []string) error {
	cleanup, err := log.Init(config.ExpandHome(cfg.Log.Path), log.ParseLevel(cfg.Log.Level))
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	closeLog = cleanup
	log.Debug(log.CatConfig, "configuration loaded", "file", viper.ConfigFileUsed(), "database", cfg.Database.Path)
	return nil
}

// configFilePath is the file "registry configure" edits.
func configFilePath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return filepath.Join(config.DefaultDataDir(), "config.yaml")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
