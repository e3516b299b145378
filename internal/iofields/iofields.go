// Package iofields loads the catalogue of exportable fields from
// fields.yaml.
package iofields

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gnames/gnexport/internal/iofs"
	"github.com/gnames/gnexport/pkg/config"
	"github.com/gnames/gnexport/pkg/fields"
	"gopkg.in/yaml.v3"
)

// Load reads the field catalogue from the config directory. If the file
// does not exist, the embedded default catalogue is used.
func Load(cfg *config.Config) (*fields.Catalogue, error) {
	path := config.FieldsFilePath(cfg.HomeDir)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		slog.Info("Using embedded field catalogue", "missing", path)
		return Parse([]byte(iofs.FieldsYAML), "embedded")
	}
	if err != nil {
		return nil, FieldsConfigError(path, err)
	}
	return Parse(data, path)
}

// Parse creates a field catalogue from YAML content. Source is used in
// error messages.
func Parse(content []byte, source string) (*fields.Catalogue, error) {
	var data fields.Data
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, FieldsConfigError(source,
			fmt.Errorf("failed to parse fields config: %w", err))
	}
	res, err := fields.New(data)
	if err != nil {
		return nil, FieldsConfigError(source, err)
	}
	slog.Debug("Field catalogue loaded",
		"source", source,
		"fields", len(data.Fields),
		"sensitive", len(data.Sensitive),
		"assertions", len(data.Assertions),
	)
	return res, nil
}
