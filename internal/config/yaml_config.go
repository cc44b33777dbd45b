package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile represents the structure of the starter-rule YAML file.
type SeedFile struct {
	Rules []SeedRule `yaml:"rules"`
}

// SeedRule defines one starter routing rule.
type SeedRule struct {
	Name             string   `yaml:"name"`
	Keywords         []string `yaml:"keywords"`
	Priority         int      `yaml:"priority"`
	ResponseTemplate string   `yaml:"response_template"`
}

// LoadSeedFile loads the starter-rule YAML file at path.
// Returns nil without error if the file doesn't exist.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Seed file is optional
			return nil, nil
		}
		return nil, err
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, err
	}

	return &seed, nil
}
