package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/fedrepo/internal/app"
	"github.com/zjrosen/fedrepo/internal/catalog/application"
	"github.com/zjrosen/fedrepo/internal/presentation"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create and look up schemas",
}

var schemaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List schemas across repositories",
	RunE: func(cmd *cobra.Command, _ []string) error {
		repositoryID, domainID := scopeFromFlags(cmd)
		q := queryFromFlags(cmd)
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			schemas, _, err := a.Services().Schemas.List(ctx, q, domainID, repositoryID)
			if err != nil {
				return err
			}
			return render(cmd, presentation.SchemaTable(schemas))
		})
	},
}

var schemaGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show a schema from the first repository that has it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repositoryID, domainID := scopeFromFlags(cmd)
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			schema, err := a.Services().Schemas.Get(ctx, args[0], domainID, repositoryID)
			if err != nil {
				return err
			}
			return render(cmd, schema)
		})
	},
}

var schemaCreateCmd = &cobra.Command{
	Use:   "create -f <file>",
	Short: "Create a schema in the LOCAL repository",
	Long: `Create a schema described by a YAML or JSON file. The schema body must be a
valid JSON Schema document.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		file, _ := cmd.Flags().GetString("file")
		params, err := decodeFile[application.CreateSchemaParams](file)
		if err != nil {
			return err
		}
		params.DomainID = domainOrDefault(params.DomainID)
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			schema, err := a.Services().Schemas.Create(ctx, params)
			if err != nil {
				return err
			}
			return render(cmd, schema)
		})
	},
}

var schemaDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a LOCAL schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, domainID := scopeFromFlags(cmd)
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Services().Schemas.Delete(ctx, args[0], domainID); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "schema %s deleted\n", args[0])
			return err
		})
	},
}

func init() {
	addQueryFlags(schemaListCmd)
	addScopeFlags(schemaGetCmd)
	addScopeFlags(schemaDeleteCmd)
	schemaCreateCmd.Flags().StringP("file", "f", "", "Schema definition (YAML or JSON)")
	_ = schemaCreateCmd.MarkFlagRequired("file")

	schemaCmd.AddCommand(schemaListCmd, schemaGetCmd, schemaCreateCmd, schemaDeleteCmd)
	rootCmd.AddCommand(schemaCmd)
}
