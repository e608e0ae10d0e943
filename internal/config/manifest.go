package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the optional `mezzo.yaml` project file --config points at.
// Every field mirrors a CLI flag of the same purpose; CLI flags always
// win over a manifest value when both are given (§6).
type Manifest struct {
	IncludeDirs   []string `yaml:"includeDirs"`
	NoAutoInclude bool     `yaml:"noAutoInclude"`
	DebugLevel    int      `yaml:"debugLevel"`
	ExplainHTML   bool     `yaml:"explainHtml"`
}

// LoadManifest reads and parses a mezzo.yaml file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Merge layers flag-supplied values over the manifest's: every non-zero
// flag argument wins, everything else falls back to m (or its zero
// value if m is nil).
func (m *Manifest) Merge(includeDirs []string, noAutoInclude bool, debugLevel int, explainHTML bool) Manifest {
	merged := Manifest{}
	if m != nil {
		merged = *m
	}
	if len(includeDirs) > 0 {
		merged.IncludeDirs = includeDirs
	}
	if noAutoInclude {
		merged.NoAutoInclude = true
	}
	if debugLevel != 0 {
		merged.DebugLevel = debugLevel
	}
	if explainHTML {
		merged.ExplainHTML = true
	}
	return merged
}
