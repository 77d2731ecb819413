package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/dunamismax/pixmap/internal/domain"
)

type JobStore interface {
	Create(ctx context.Context, job domain.Job) error
	Get(ctx context.Context, id string) (domain.Job, bool, error)
	UpdateStatus(ctx context.Context, id, status string) (domain.Job, error)
}

type UsageStore interface {
	CreateUsageLog(ctx context.Context, usage domain.UsageLog) error
}

// Backend is a job store that also records usage and owns a connection.
type Backend interface {
	JobStore
	UsageStore
	Close() error
}

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Open returns the backend named by kind. An empty kind selects memory.
func Open(ctx context.Context, kind, dsn string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", BackendMemory:
		return NewMemoryJobStore(), nil
	case BackendPostgres:
		pg, err := NewPostgresJobStore(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unsupported job store: %s", kind)
	}
}
