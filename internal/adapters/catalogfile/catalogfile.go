// Package catalogfile loads act catalogs from CSV, YAML and TOML files.
package catalogfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/okian/lineup/internal/domain/model"
	"gopkg.in/yaml.v3"
)

// Format names a catalog encoding.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// DefaultSkipNames are CSV rows that label sections rather than acts.
var DefaultSkipNames = []string{"Season Dances", "Side Projects"}

// document is the YAML/TOML shape.
type document struct {
	Acts []model.Act `yaml:"acts" toml:"acts"`
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Load reads the catalog at path, choosing the format by extension.
func Load(path string, opts ...Option) (*model.Catalog, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	cat, err := Read(f, format, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// Read decodes a catalog from r.
func Read(r io.Reader, format Format, opts ...Option) (*model.Catalog, error) {
	cfg := newConfig(opts)

	var (
		acts []model.Act
		err  error
	)
	switch format {
	case FormatCSV:
		acts, err = readCSV(r, cfg)
	case FormatYAML:
		acts, err = readYAML(r)
	case FormatTOML:
		acts, err = readTOML(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return model.NewCatalog(acts...)
}

func readYAML(r io.Reader) ([]model.Act, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse yaml catalog: %w", err)
	}
	return doc.Acts, nil
}

func readTOML(r io.Reader) ([]model.Act, error) {
	var doc document
	md, err := toml.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("parse toml catalog: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse toml catalog: unknown key %s", undecoded[0])
	}
	return doc.Acts, nil
}
