package domain

type AgentID string

// AgentProfile binds a persona to a local model. Profiles are loaded once at
// session setup and never mutated afterwards.
type AgentProfile struct {
	ID           AgentID
	Role         string
	Personality  string
	Model        string
	Temperature  float64
	SystemPrompt string
	Enabled      bool
}

func EnabledProfiles(profiles []AgentProfile) []AgentProfile {
	enabled := make([]AgentProfile, 0, len(profiles))
	for _, profile := range profiles {
		if profile.Enabled {
			enabled = append(enabled, profile)
		}
	}
	return enabled
}
