package presentation

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
)

// Table is a row set rendered as aligned columns. Source is what the JSON
// and YAML formats print instead.
type Table struct {
	Header []string
	Rows   [][]string
	Source any
}

func (t Table) write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(t.Header, "\t")); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// RepositoryTable lists repositories in resolution order.
func RepositoryTable(repos []domain.Repository) Table {
	t := Table{Header: []string{"PRIORITY", "REPOSITORY_ID", "NAME", "TYPE", "ENDPOINT"}, Source: repos}
	for _, r := range repos {
		t.Rows = append(t.Rows, []string{strconv.Itoa(r.Priority), r.RepositoryID, r.Name, string(r.RepositoryType), dash(r.Endpoint)})
	}
	return t
}

// PluginTable lists plugins with the repository each was served from.
func PluginTable(plugins []domain.Plugin) Table {
	t := Table{Header: []string{"PLUGIN_ID", "NAME", "SERVICE_TYPE", "IMAGE", "STATE", "REPOSITORY"}, Source: plugins}
	for _, p := range plugins {
		t.Rows = append(t.Rows, []string{p.PluginID, p.Name, p.ServiceType, p.Image, string(p.State), p.RepositoryID})
	}
	return t
}

// PolicyTable lists policies with the repository each was served from.
func PolicyTable(policies []domain.Policy) Table {
	t := Table{Header: []string{"POLICY_ID", "NAME", "STATE", "PERMISSIONS", "REPOSITORY"}, Source: policies}
	for _, p := range policies {
		t.Rows = append(t.Rows, []string{p.PolicyID, p.Name, string(p.State), strconv.Itoa(len(p.Permissions)), p.RepositoryID})
	}
	return t
}

// SchemaTable lists schemas with the repository each was served from.
func SchemaTable(schemas []domain.Schema) Table {
	t := Table{Header: []string{"NAME", "SERVICE_TYPE", "UPDATED", "REPOSITORY"}, Source: schemas}
	for _, s := range schemas {
		t.Rows = append(t.Rows, []string{s.Name, s.ServiceType, timestamp(s.UpdatedAt), s.RepositoryID})
	}
	return t
}

// VersionTable lists image tags, newest first.
func VersionTable(versions []string) Table {
	t := Table{Header: []string{"VERSION"}, Source: versions}
	for _, v := range versions {
		t.Rows = append(t.Rows, []string{v})
	}
	return t
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
