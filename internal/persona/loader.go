package persona

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadDir reads profile override files (*.yaml) from dir and merges
// them over the built-in defaults. A file whose id matches a default
// replaces that profile in place (keeping its declaration order); a new
// id is appended after the defaults in filename order. A missing or
// empty directory yields the defaults unchanged.
func LoadDir(dir string) (*Registry, error) {
	profiles := Defaults()

	if dir == "" {
		return NewRegistry(profiles)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return NewRegistry(profiles) // No persona dir is fine
		}
		return nil, fmt.Errorf("read persona dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			files = append(files, name)
		}
	}

	// Sort for deterministic ordering
	sort.Strings(files)

	index := make(map[string]int, len(profiles))
	for i, p := range profiles {
		index[p.ID] = i
	}

	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			return nil, fmt.Errorf("read persona %s: %w", f, err)
		}

		var p Profile
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse persona %s: %w", f, err)
		}
		if p.ID == "" {
			return nil, fmt.Errorf("persona %s: id is required", f)
		}

		if i, ok := index[p.ID]; ok {
			profiles[i] = p
		} else {
			index[p.ID] = len(profiles)
			profiles = append(profiles, p)
		}
	}

	return NewRegistry(profiles)
}
