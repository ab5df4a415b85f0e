package generator

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vanshika/marketplace/internal/fixture"
)

// WriteDataset serialises the dataset as marketplace.<format> under dir and returns the path.
// Format is json, yaml or yml.
func WriteDataset(dataset fixture.Dataset, dir, format string) (string, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	switch format {
	case "", "json":
		format = "json"
	case "yaml", "yml":
	default:
		return "", fmt.Errorf("unsupported output format %q", format)
	}

	path := filepath.Join(dir, "marketplace."+format)
	if err := fixture.Write(dataset, path); err != nil {
		return "", err
	}
	return path, nil
}
