// Package catalogdata bundles the default managed catalog.
package catalogdata

import (
	"embed"
	"io/fs"
)

// managedCatalog embeds one YAML file per resource:
//   - managed/plugins/<plugin_id>.yaml
//   - managed/policies/<policy_id>.yaml
//   - managed/schemas/<name>.yaml
//
//go:embed managed
var managedCatalog embed.FS

// ManagedFS returns the bundled catalog rooted at the managed directory.
func ManagedFS() fs.FS {
	sub, err := fs.Sub(managedCatalog, "managed")
	if err != nil {
		panic(err) // the embedded directory always exists
	}
	return sub
}
