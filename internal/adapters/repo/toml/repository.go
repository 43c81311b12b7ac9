package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/quorum-sh/quorum/internal/domain"
	"github.com/quorum-sh/quorum/internal/ports"
)

const (
	configName       = "config"
	configType       = "toml"
	agentsPathKey    = "agents.path"
	agentsFileMode   = 0o600
	agentsDirMode    = 0o700
	agentsConfigDir  = ".quorum"
	agentsConfigFile = "agents.toml"
	tempFilePattern  = ".agents-*.toml.tmp"
)

// Repository persists agent profiles in a single TOML file. A missing file
// reads as the seeded default roster, so a fresh install works without any
// setup step.
type Repository struct {
	agentsPath string
	mu         *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.RosterRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, agentsConfigDir, agentsConfigFile)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, agentsConfigDir))
	cfg.SetDefault(agentsPathKey, defaultPath)

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	agentsPath := cfg.GetString(agentsPathKey)
	if agentsPath == "" {
		return nil, errors.New("agents path is empty")
	}
	agentsPath, err = normalizeAgentsPath(agentsPath)
	if err != nil {
		return nil, err
	}

	return &Repository{agentsPath: agentsPath, mu: lockForPath(agentsPath)}, nil
}

func (r *Repository) List(ctx context.Context) ([]domain.AgentProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	profiles := make([]domain.AgentProfile, 0, len(file.Agents))
	for _, entry := range file.Agents {
		profiles = append(profiles, fromSchema(entry))
	}

	return profiles, nil
}

func (r *Repository) GetByID(ctx context.Context, id domain.AgentID) (domain.AgentProfile, error) {
	if err := ctx.Err(); err != nil {
		return domain.AgentProfile{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.AgentProfile{}, err
	}

	for _, entry := range file.Agents {
		if entry.ID == string(id) {
			return fromSchema(entry), nil
		}
	}

	return domain.AgentProfile{}, domain.ErrAgentNotFound
}

func (r *Repository) Save(ctx context.Context, profile domain.AgentProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toSchema(profile)
	updated := false
	for i := range file.Agents {
		if file.Agents[i].ID == encoded.ID {
			file.Agents[i] = encoded
			updated = true
			break
		}
	}

	if !updated {
		file.Agents = append(file.Agents, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.agentsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{Version: currentSchemaVersion, Agents: defaultRoster()}, nil
		}
		return fileSchema{}, fmt.Errorf("read agents file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode agents file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.agentsPath), agentsDirMode); err != nil {
		return fmt.Errorf("create agents directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode agents file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.agentsPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp agents file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp agents file: %w", err)
	}

	if err := tempFile.Chmod(agentsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp agents file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp agents file: %w", err)
	}

	if err := os.Rename(tempName, r.agentsPath); err != nil {
		return fmt.Errorf("replace agents file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(r.agentsPath, agentsFileMode); err != nil {
		return fmt.Errorf("chmod agents file: %w", err)
	}

	return nil
}

func normalizeAgentsPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve agents path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func toSchema(profile domain.AgentProfile) agentSchema {
	return agentSchema{
		ID:           string(profile.ID),
		Role:         profile.Role,
		Personality:  profile.Personality,
		Model:        profile.Model,
		Temperature:  profile.Temperature,
		SystemPrompt: profile.SystemPrompt,
		Enabled:      profile.Enabled,
	}
}

func fromSchema(entry agentSchema) domain.AgentProfile {
	return domain.AgentProfile{
		ID:           domain.AgentID(entry.ID),
		Role:         entry.Role,
		Personality:  entry.Personality,
		Model:        entry.Model,
		Temperature:  entry.Temperature,
		SystemPrompt: entry.SystemPrompt,
		Enabled:      entry.Enabled,
	}
}

// defaultRoster is the out-of-the-box agent lineup for small local models.
func defaultRoster() []agentSchema {
	return []agentSchema{
		{
			ID:          "DataScientist_Alpha",
			Role:        "Data Scientist",
			Personality: "Highly analytical, prefers quantitative evidence and statistical reasoning.",
			Model:       "llama3.2:3b",
			Temperature: 0.3,
			Enabled:     true,
		},
		{
			ID:          "ProductManager_Beta",
			Role:        "Product Manager",
			Personality: "Strategic thinker focused on user needs; balances feasibility with value.",
			Model:       "llama3.2:3b",
			Temperature: 0.6,
			Enabled:     true,
		},
		{
			ID:          "TechArchitect_Gamma",
			Role:        "Technical Architect",
			Personality: "Systems-oriented engineer focused on scalable, maintainable solutions.",
			Model:       "llama3.2:3b",
			Temperature: 0.4,
			Enabled:     true,
		},
		{
			ID:          "CreativeInnovator_Delta",
			Role:        "Creative Innovator",
			Personality: "Bold creative thinker who challenges conventional wisdom.",
			Model:       "llama3.2:3b",
			Temperature: 0.9,
			Enabled:     false,
		},
		{
			ID:          "RiskAnalyst_Epsilon",
			Role:        "Risk Analyst",
			Personality: "Cautious analyst focused on identifying potential problems and downsides.",
			Model:       "llama3.2:3b",
			Temperature: 0.1,
			Enabled:     false,
		},
	}
}
