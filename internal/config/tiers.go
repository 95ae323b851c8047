package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TierConfig holds the tier configuration loaded from tool_tiers.yaml.
type TierConfig struct {
	Tiers struct {
		Core     []string `yaml:"core"`
		Extended []string `yaml:"extended"`
		Complete []string `yaml:"complete"`
	} `yaml:"tiers"`
}

// LoadTiers reads and parses the tool tiers YAML file, returning a map of
// tool name -> tier for fast lookup during tool filtering.
func LoadTiers(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tier config %s: %w", path, err)
	}

	var tc TierConfig
	if err := yaml.Unmarshal(data, &tc); err != nil {
		return nil, fmt.Errorf("parsing tier config %s: %w", path, err)
	}

	tiers := make(map[string]string)
	for _, name := range tc.Tiers.Core {
		tiers[name] = "core"
	}
	for _, name := range tc.Tiers.Extended {
		tiers[name] = "extended"
	}
	for _, name := range tc.Tiers.Complete {
		tiers[name] = "complete"
	}

	return tiers, nil
}

// TierLevel returns the numeric level for a tier name (higher = more inclusive).
func TierLevel(tier string) int {
	switch tier {
	case "core":
		return 1
	case "extended":
		return 2
	case "complete":
		return 3
	default:
		return 0
	}
}
