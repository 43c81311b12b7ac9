package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"github.com/quorum-sh/quorum/internal/adapters/ollama"
	sessionrender "github.com/quorum-sh/quorum/internal/adapters/render/session"
	"github.com/quorum-sh/quorum/internal/adapters/repo/jsonfile"
	tomlrepo "github.com/quorum-sh/quorum/internal/adapters/repo/toml"
	"github.com/quorum-sh/quorum/internal/domain"
	"github.com/quorum-sh/quorum/internal/observability"
	"github.com/quorum-sh/quorum/internal/ports"
)

type app struct {
	roster          ports.RosterRepository
	sessions        ports.SessionRepository
	newClient       func() ports.InferenceClient
	sessionRenderer func(domain.Session, sessionrender.RenderOptions) (string, error)
	clock           ports.Clock
}

func wireApp() (*app, error) {
	observability.Configure(os.Stderr, envOrDefault("QUORUM_LOG_LEVEL", "info"))

	roster, err := tomlrepo.NewRepository(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire agent roster: %w", err)
	}

	sessions, err := jsonfile.NewRepository(os.Getenv("QUORUM_SESSION_DIR"))
	if err != nil {
		return nil, fmt.Errorf("wire session store: %w", err)
	}

	clientConfig := ollama.Config{
		BaseURL: envOrDefault("QUORUM_OLLAMA_URL", ollama.DefaultBaseURL),
		Timeout: envDuration("QUORUM_OLLAMA_TIMEOUT", 120*time.Second),
		Policy:  retryPolicyFromEnv(),
	}

	return &app{
		roster:   roster,
		sessions: sessions,
		newClient: func() ports.InferenceClient {
			return ollama.NewClient(clientConfig)
		},
		sessionRenderer: sessionrender.Render,
		clock:           ports.SystemClock{},
	}, nil
}

func retryPolicyFromEnv() domain.RetryPolicy {
	policy := domain.DefaultRetryPolicy()
	if raw := os.Getenv("QUORUM_MAX_RETRIES"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			policy.MaxRetries = parsed
		}
	}
	policy.BaseDelay = envDuration("QUORUM_RETRY_DELAY", policy.BaseDelay)
	return policy
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
		return parsed
	}
	// bare numbers read as seconds
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
