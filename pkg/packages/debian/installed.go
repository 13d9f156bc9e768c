package debian

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/djcass44/rules-deb/pkg/control"
	"github.com/djcass44/rules-deb/pkg/packages"
)

var installedFiles = filepath.Join("var", "lib", "dpkg", "status")

// WriteInstalled writes a dpkg status database listing the given
// packages to root.
func WriteInstalled(ctx context.Context, root string, docs []*control.Document) error {
	return packages.Record(ctx, filepath.Join(root, installedFiles), docs, packageToInstalled)
}

func packageToInstalled(doc *control.Document) string {
	sb := strings.Builder{}
	sb.WriteString("Package: " + doc.Package() + "\n")
	sb.WriteString("Status: install ok installed\n")
	for _, k := range doc.Keys() {
		switch k {
		case control.FieldPackage, "Status", "Description":
			continue
		}
		sb.WriteString(k + ": " + doc.Get(k) + "\n")
	}
	return sb.String()
}
