package toml

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorum-sh/quorum/internal/domain"
)

func newTestRepository(t *testing.T) (*Repository, string) {
	t.Helper()

	agentsPath := filepath.Join(t.TempDir(), "agents.toml")
	config := viper.New()
	config.Set("agents.path", agentsPath)

	repo, err := NewRepository(config)
	require.NoError(t, err)
	return repo, agentsPath
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)

	profile := domain.AgentProfile{
		ID:           "Researcher_Zeta",
		Role:         "Researcher",
		Personality:  "curious and thorough",
		Model:        "llama3.2:3b",
		Temperature:  0.5,
		SystemPrompt: "You are a researcher.",
		Enabled:      true,
	}

	require.NoError(t, repo.Save(context.Background(), profile))

	got, err := repo.GetByID(context.Background(), profile.ID)
	require.NoError(t, err)
	assert.Equal(t, profile, got)
}

func TestRepositorySeedsDefaultRosterWhenFileMissing(t *testing.T) {
	t.Parallel()

	repo, agentsPath := newTestRepository(t)

	profiles, err := repo.List(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, profiles)

	enabled := domain.EnabledProfiles(profiles)
	assert.NotEmpty(t, enabled)
	for _, profile := range profiles {
		assert.NotEmpty(t, profile.ID)
		assert.NotEmpty(t, profile.Model)
	}

	// reading alone must not create the file
	_, err = os.Stat(agentsPath)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRepositorySaveMaterializesSeededRoster(t *testing.T) {
	t.Parallel()

	repo, agentsPath := newTestRepository(t)

	seeded, err := repo.List(context.Background())
	require.NoError(t, err)

	custom := domain.AgentProfile{ID: "Custom_One", Role: "Generalist", Model: "llama3.2:3b", Enabled: true}
	require.NoError(t, repo.Save(context.Background(), custom))

	info, err := os.Stat(agentsPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	stored, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, len(seeded)+1)
}

func TestRepositorySaveUpdatesExistingProfile(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)

	profile := domain.AgentProfile{ID: "Tuner", Role: "Engineer", Model: "llama3.2:3b", Temperature: 0.4, Enabled: true}
	require.NoError(t, repo.Save(context.Background(), profile))

	profile.Enabled = false
	profile.Temperature = 0.8
	require.NoError(t, repo.Save(context.Background(), profile))

	got, err := repo.GetByID(context.Background(), profile.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	assert.InDelta(t, 0.8, got.Temperature, 1e-9)

	profiles, err := repo.List(context.Background())
	require.NoError(t, err)
	ids := map[domain.AgentID]int{}
	for _, p := range profiles {
		ids[p.ID]++
	}
	assert.Equal(t, 1, ids["Tuner"])
}

func TestRepositoryGetByIDUnknownAgent(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)

	_, err := repo.GetByID(context.Background(), "NoSuchAgent")
	assert.ErrorIs(t, err, domain.ErrAgentNotFound)
}

func TestRepositoryRejectsNewerSchemaVersion(t *testing.T) {
	t.Parallel()

	agentsPath := filepath.Join(t.TempDir(), "agents.toml")
	require.NoError(t, os.WriteFile(agentsPath, []byte("version = 99\n"), 0o600))

	config := viper.New()
	config.Set("agents.path", agentsPath)
	repo, err := NewRepository(config)
	require.NoError(t, err)

	_, err = repo.List(context.Background())
	require.ErrorContains(t, err, "unsupported agents schema version")
}

func TestRepositoryCanceledContext(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	err = repo.Save(ctx, domain.AgentProfile{ID: "X", Model: "m"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRepositoryConcurrentSaves(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			profile := domain.AgentProfile{
				ID:      domain.AgentID("Agent_" + strconv.Itoa(i)),
				Role:    "Worker",
				Model:   "llama3.2:3b",
				Enabled: true,
			}
			assert.NoError(t, repo.Save(context.Background(), profile))
		}(i)
	}
	wg.Wait()

	profiles, err := repo.List(context.Background())
	require.NoError(t, err)

	found := 0
	for _, profile := range profiles {
		if profile.Role == "Worker" {
			found++
		}
	}
	assert.Equal(t, 8, found)
}
