package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/quorum-sh/quorum/internal/domain"
	"github.com/quorum-sh/quorum/internal/ports"
)

const (
	sessionsDirName    = "sessions"
	sessionsConfigDir  = ".quorum"
	sessionFilePrefix  = "session_"
	sessionFileSuffix  = ".json"
	sessionsDirMode    = 0o700
	sessionFileMode    = 0o600
	tempSessionPattern = ".session-*.json.tmp"
)

// Repository stores each finished session as one JSON file named
// session_<id>.json. Files are written atomically through a temp file so a
// crash mid-write never leaves a truncated session behind.
type Repository struct {
	dir string
	mu  sync.RWMutex
}

var _ ports.SessionRepository = (*Repository)(nil)

// NewRepository stores sessions under dir; an empty dir selects
// ~/.quorum/sessions.
func NewRepository(dir string) (*Repository, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(homeDir, sessionsConfigDir, sessionsDirName)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve sessions directory: %w", err)
	}

	return &Repository{dir: filepath.Clean(absDir)}, nil
}

func (r *Repository) Save(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if session.ID == "" {
		return errors.New("session id is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.dir, sessionsDirMode); err != nil {
		return fmt.Errorf("create sessions directory: %w", err)
	}

	data, err := json.MarshalIndent(toSchema(session), "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tempFile, err := os.CreateTemp(r.dir, tempSessionPattern)
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
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
		return fmt.Errorf("write temp session file: %w", err)
	}

	if err := tempFile.Chmod(sessionFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp session file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp session file: %w", err)
	}

	if err := os.Rename(tempName, r.sessionPath(session.ID)); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}

	cleanup = false
	return nil
}

func (r *Repository) List(ctx context.Context) ([]domain.SessionSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions directory: %w", err)
	}

	summaries := make([]domain.SessionSummary, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, sessionFilePrefix) || !strings.HasSuffix(name, sessionFileSuffix) {
			continue
		}

		encoded, err := r.readSession(filepath.Join(r.dir, name))
		if err != nil {
			// one corrupt file must not hide the rest
			continue
		}
		summaries = append(summaries, domain.SessionSummary{
			ID:        domain.SessionID(encoded.SessionID),
			Problem:   encoded.Problem,
			StartedAt: encoded.StartedAt,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartedAt.After(summaries[j].StartedAt)
	})
	return summaries, nil
}

func (r *Repository) GetByID(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	encoded, err := r.readSession(r.sessionPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Session{}, domain.ErrSessionNotFound
		}
		return domain.Session{}, err
	}

	return fromSchema(encoded), nil
}

func (r *Repository) readSession(path string) (sessionSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sessionSchema{}, err
	}

	var encoded sessionSchema
	if err := json.Unmarshal(data, &encoded); err != nil {
		return sessionSchema{}, fmt.Errorf("decode session file %s: %w", filepath.Base(path), err)
	}
	return encoded, nil
}

func (r *Repository) sessionPath(id domain.SessionID) string {
	return filepath.Join(r.dir, sessionFilePrefix+string(id)+sessionFileSuffix)
}
