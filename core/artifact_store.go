package core

import "context"

// ArtifactStore defines the interface for artifact persistence (sanction
// letters, uploaded documents). Implementations should be thread-safe and
// scope artifacts by session identifier.
type ArtifactStore interface {
	Save(sessionID, artifactID string, data []byte) error
	Get(sessionID, artifactID string) ([]byte, error)
	List(sessionID string) ([]string, error)
	Delete(sessionID, artifactID string) error
}

// RecordStore persists application records keyed by session id.
//
// Get returns ErrRecordNotFound for unknown ids. Implementations must hand out
// copies so callers cannot mutate stored state.
type RecordStore interface {
	Create(ctx context.Context, rec *Record) error
	Get(ctx context.Context, sessionID string) (*Record, error)
	Put(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, sessionID string) error
}
