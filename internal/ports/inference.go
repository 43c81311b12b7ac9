package ports

import (
	"context"

	"github.com/quorum-sh/quorum/internal/domain"
)

// InferenceClient is the resilient transport to the external text-generation
// service. One client instance is shared by all concurrent agents; its
// connection pool and model cache must tolerate concurrent use. Close releases
// the underlying connection resources and must be called on shutdown.
type InferenceClient interface {
	Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResult, error)
	Models(ctx context.Context) ([]string, error)
	Healthy(ctx context.Context) error
	Close() error
}
