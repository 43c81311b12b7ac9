package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version int           `toml:"version"`
	Agents  []agentSchema `toml:"agents"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported agents schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type agentSchema struct {
	ID           string  `toml:"id"`
	Role         string  `toml:"role"`
	Personality  string  `toml:"personality"`
	Model        string  `toml:"model"`
	Temperature  float64 `toml:"temperature"`
	SystemPrompt string  `toml:"system_prompt,omitempty"`
	Enabled      bool    `toml:"enabled"`
}
