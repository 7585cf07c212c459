package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
)

// addScopeFlags adds --repository and --domain to a read or write command.
func addScopeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("repository", "r", "", "Repository id; empty searches every repository")
	cmd.Flags().String("domain", "", "Domain id (default: server.domain_id)")
}

// addQueryFlags adds the list query flags.
func addQueryFlags(cmd *cobra.Command) {
	addScopeFlags(cmd)
	cmd.Flags().StringP("keyword", "k", "", "Case-insensitive substring of the resource name")
	cmd.Flags().Int("start", 0, "1-based index of the first result")
	cmd.Flags().Int("limit", 0, "Maximum number of results")
	cmd.Flags().String("sort", "", "Field to sort by")
	cmd.Flags().Bool("desc", false, "Sort descending")
}

func scopeFromFlags(cmd *cobra.Command) (repositoryID, domainID string) {
	repositoryID, _ = cmd.Flags().GetString("repository")
	domainID, _ = cmd.Flags().GetString("domain")
	return repositoryID, domainOrDefault(domainID)
}

func queryFromFlags(cmd *cobra.Command) domain.Query {
	flags := cmd.Flags()
	var q domain.Query
	q.Keyword, _ = flags.GetString("keyword")

	start, _ := flags.GetInt("start")
	limit, _ := flags.GetInt("limit")
	if start > 0 || limit > 0 {
		q.Page = &domain.Page{Start: start, Limit: limit}
	}
	if key, _ := flags.GetString("sort"); key != "" {
		desc, _ := flags.GetBool("desc")
		q.Sort = &domain.Sort{Key: key, Desc: desc}
	}
	return q
}
