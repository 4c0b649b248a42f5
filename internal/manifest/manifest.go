// Package manifest reads the list of dataset files a batch run loads.
//
// A manifest is TOML:
//
//	[[file]]
//	path = "deepgo/bp.pkl"
//	description = "Biological Process annotations"
//	category = "bp"
//
// or YAML:
//
//	files:
//	  - path: deepgo/bp.pkl
//	    description: Biological Process annotations
//
// Relative paths resolve against the data directory. An empty category
// defaults to the file's base name without extension, and an empty
// description to the path.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Format is a manifest encoding.
type Format string

// Supported manifest formats.
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Entry is one file to load.
type Entry struct {
	Path        string `toml:"path" yaml:"path"`
	Description string `toml:"description" yaml:"description"`
	Category    string `toml:"category" yaml:"category"`
}

// Manifest is an ordered list of entries.
type Manifest struct {
	Files []Entry `toml:"file" yaml:"files"`
}

// FormatOf picks a format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unsupported extension %q", types.ErrManifestInvalid, filepath.Ext(path))
	}
}

// Load reads and resolves the manifest at path.
func Load(path, dataDir string) (*Manifest, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(data, format, dataDir)
}

// Parse decodes a manifest, fills defaults, resolves relative paths
// against dataDir, and validates the result.
func Parse(data []byte, format Format, dataDir string) (*Manifest, error) {
	var m Manifest
	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), &m)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrManifestInvalid, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: unknown key %s", types.ErrManifestInvalid, undecoded[0])
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %v", types.ErrManifestInvalid, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", types.ErrManifestInvalid, format)
	}

	m.resolve(dataDir)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) resolve(dataDir string) {
	for i := range m.Files {
		e := &m.Files[i]
		e.Path = strings.TrimSpace(e.Path)
		if e.Path == "" {
			continue
		}
		if e.Category == "" {
			e.Category = Category(e.Path)
		}
		if e.Description == "" {
			e.Description = e.Path
		}
		if dataDir != "" && !filepath.IsAbs(e.Path) {
			e.Path = filepath.Join(dataDir, e.Path)
		}
	}
}

// Validate checks that the manifest names at least one file, every entry
// has a path, and categories are unique.
func (m *Manifest) Validate() error {
	if len(m.Files) == 0 {
		return fmt.Errorf("%w: no files", types.ErrManifestInvalid)
	}
	seen := make(map[string]int, len(m.Files))
	for i, e := range m.Files {
		if e.Path == "" {
			return fmt.Errorf("%w: entry %d has no path", types.ErrManifestInvalid, i+1)
		}
		if j, ok := seen[e.Category]; ok {
			return fmt.Errorf("%w: entries %d and %d share category %q", types.ErrManifestInvalid, j+1, i+1, e.Category)
		}
		seen[e.Category] = i
	}
	return nil
}

// Category derives a category from a file path: its base name without
// extension.
func Category(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Default returns the three Gene Ontology annotation files under
// dataDir/deepgo.
func Default(dataDir string) *Manifest {
	m := &Manifest{Files: []Entry{
		{Path: "deepgo/bp.pkl", Description: "Biological Process annotations"},
		{Path: "deepgo/mf.pkl", Description: "Molecular Function annotations"},
		{Path: "deepgo/cc.pkl", Description: "Cellular Component annotations"},
	}}
	m.resolve(dataDir)
	return m
}
