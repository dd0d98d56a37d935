package moduleloader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest describes an on-disk tool module ahead of loading: where its
// artifact lives and what it should checksum to.
type Manifest struct {
	Name        string `yaml:"name" json:"name"`
	Path        string `yaml:"path" json:"path"`
	Checksum    string `yaml:"checksum,omitempty" json:"checksum,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// DiscoveryConfig controls where Discover looks for manifests.
type DiscoveryConfig struct {
	Paths              []string `yaml:"paths" json:"paths"`
	ScanSubdirectories bool     `yaml:"scan_subdirectories" json:"scan_subdirectories"`
}

// manifestSuffix is the on-disk convention: "echo.tool.yaml" describes the
// module artifact "echo" (typically "echo.so" alongside it, or an absolute
// path given by Manifest.Path).
const manifestSuffix = ".tool.yaml"

// Discover scans the configured paths for *.tool.yaml manifests, skipping
// paths that don't exist. It never fails on a missing path; it fails on a
// malformed or unreadable manifest it did find, or on a directory it cannot
// read.
func Discover(cfg DiscoveryConfig) ([]Manifest, error) {
	var found []Manifest
	seen := make(map[string]bool)

	for _, root := range cfg.Paths {
		root = expandHome(root)
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}

		manifests, err := scanPath(root, cfg.ScanSubdirectories)
		if err != nil {
			return nil, fmt.Errorf("moduleloader: scan %q: %w", root, err)
		}
		for _, m := range manifests {
			if seen[m.Path] {
				continue
			}
			seen[m.Path] = true
			found = append(found, m)
		}
	}

	return found, nil
}

func scanPath(root string, recurse bool) ([]Manifest, error) {
	var manifests []Manifest

	walk := func(path string, isDir bool) error {
		if isDir {
			return nil
		}
		if !strings.HasSuffix(path, manifestSuffix) {
			return nil
		}
		m, err := loadManifest(path)
		if err != nil {
			return fmt.Errorf("manifest %q: %w", path, err)
		}
		manifests = append(manifests, m)
		return nil
	}

	if recurse {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			return walk(path, info.IsDir())
		})
		if err != nil {
			return nil, err
		}
		return manifests, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := walk(filepath.Join(root, e.Name()), false); err != nil {
			return nil, err
		}
	}
	return manifests, nil
}

func loadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, err
	}
	if m.Path == "" {
		// Default: the manifest's own path with ".tool.yaml" replaced by ".so".
		m.Path = strings.TrimSuffix(path, manifestSuffix) + ".so"
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), manifestSuffix)
	}
	return m, nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
