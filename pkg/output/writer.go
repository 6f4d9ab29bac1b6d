package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ritzau/trade-graph/pkg/model"
	"gopkg.in/yaml.v3"
)

// Encode writes the metrics to w as "json" or "yaml" at full precision
func Encode(w io.Writer, m *model.Metrics, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported format %q", format)
}

// WriteFile encodes the metrics into path, creating parent directories as needed
func WriteFile(path string, m *model.Metrics, format string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := Encode(f, m, format); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
