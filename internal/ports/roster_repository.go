package ports

import (
	"context"

	"github.com/quorum-sh/quorum/internal/domain"
)

type RosterRepository interface {
	List(ctx context.Context) ([]domain.AgentProfile, error)
	GetByID(ctx context.Context, id domain.AgentID) (domain.AgentProfile, error)
	Save(ctx context.Context, profile domain.AgentProfile) error
}
