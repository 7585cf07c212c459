package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/fedrepo/internal/app"
	"github.com/zjrosen/fedrepo/internal/presentation"
)

// withApp assembles the service for one command and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.Background()) }()
	return fn(ctx, a)
}

func render(cmd *cobra.Command, v any) error {
	formatter, err := presentation.NewFormatter(cmd.OutOrStdout(), outputFormat)
	if err != nil {
		return err
	}
	return formatter.Format(v)
}

// decodeFile reads a YAML or JSON file into T using T's JSON field names.
func decodeFile[T any](path string) (T, error) {
	var out T
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is a command argument
	if err != nil {
		return out, fmt.Errorf("reading %s: %w", path, err)
	}
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return out, fmt.Errorf("parsing %s: %w", path, err)
	}
	raw, err := json.Marshal(generic)
	if err != nil {
		return out, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decoding %s: %w", path, err)
	}
	return out, nil
}

// domainOrDefault returns id, or the configured default domain.
func domainOrDefault(id string) string {
	if id != "" {
		return id
	}
	return cfg.Server.DomainID
}
