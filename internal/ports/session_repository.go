package ports

import (
	"context"

	"github.com/quorum-sh/quorum/internal/domain"
)

type SessionRepository interface {
	Save(ctx context.Context, session domain.Session) error
	List(ctx context.Context) ([]domain.SessionSummary, error)
	GetByID(ctx context.Context, id domain.SessionID) (domain.Session, error)
}
