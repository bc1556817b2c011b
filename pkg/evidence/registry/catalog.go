package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"mercator-hq/callisto/pkg/evidence"
)

// CatalogFile is the YAML document shape for a control catalog file.
//
// Example:
//
//	framework: gdpr
//	controls:
//	  - id: "Art.15"
//	    title: "Right of Access"
//	    citation: "Regulation (EU) 2016/679, Article 15"
type CatalogFile struct {
	// Framework is the framework name all controls in the file belong to.
	Framework string `yaml:"framework"`

	// Controls is the list of control definitions.
	Controls []CatalogControl `yaml:"controls"`
}

// CatalogControl is one control entry in a catalog file.
type CatalogControl struct {
	ID       string `yaml:"id"`
	Title    string `yaml:"title"`
	Citation string `yaml:"citation,omitempty"`
}

// ParseCatalog parses a catalog document and returns its descriptors.
func ParseCatalog(data []byte) ([]evidence.ControlDescriptor, error) {
	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if file.Framework == "" {
		return nil, fmt.Errorf("catalog is missing the framework name")
	}
	if len(file.Controls) == 0 {
		return nil, fmt.Errorf("catalog for framework %q defines no controls", file.Framework)
	}

	descriptors := make([]evidence.ControlDescriptor, 0, len(file.Controls))
	for i, c := range file.Controls {
		if c.ID == "" {
			return nil, fmt.Errorf("catalog for framework %q: control %d has no id", file.Framework, i)
		}
		if c.Title == "" {
			return nil, fmt.Errorf("catalog for framework %q: control %q has no title", file.Framework, c.ID)
		}
		descriptors = append(descriptors, evidence.ControlDescriptor{
			Framework: file.Framework,
			ID:        c.ID,
			Title:     c.Title,
			Citation:  c.Citation,
		})
	}

	return descriptors, nil
}

// LoadCatalogFile reads and parses a single catalog file.
func LoadCatalogFile(path string) ([]evidence.ControlDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %q: %w", path, err)
	}

	descriptors, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("catalog file %q: %w", path, err)
	}
	return descriptors, nil
}

// LoadCatalogDir loads every .yaml/.yml catalog file in a directory, in
// lexical order so registration order (and duplicate detection) is stable.
func LoadCatalogDir(dir string) ([]evidence.ControlDescriptor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog directory %q: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	var all []evidence.ControlDescriptor
	for _, path := range paths {
		descriptors, err := LoadCatalogFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, descriptors...)
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("catalog directory %q contains no catalog files", dir)
	}
	return all, nil
}

// LoadPath loads catalogs from a file or directory path into the registry.
func LoadPath(r *Registry, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat catalog path %q: %w", path, err)
	}

	var descriptors []evidence.ControlDescriptor
	if info.IsDir() {
		descriptors, err = LoadCatalogDir(path)
	} else {
		descriptors, err = LoadCatalogFile(path)
	}
	if err != nil {
		return err
	}

	return r.RegisterAll(descriptors)
}
