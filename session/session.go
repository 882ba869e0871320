// Package session persists deployment sessions issued by the platform so
// later extend, claim, and keepalive operations can find them. Tokens are
// stored verbatim and never interpreted.
package session

import (
	"context"
	"time"
)

// Session records one deployment session returned by the platform.
type Session struct {
	Token          string    `json:"token"`
	Application    string    `json:"application"`
	URL            string    `json:"url,omitempty"`
	Status         string    `json:"status,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastExtendedAt time.Time `json:"last_extended_at,omitempty"`
}

// Store abstracts session persistence for CLI (file) and server (SQLite)
// modes. Sessions are keyed by application name.
type Store interface {
	List(ctx context.Context) ([]Session, error)
	Get(ctx context.Context, application string) (Session, bool, error)
	Upsert(ctx context.Context, s Session) error
	Delete(ctx context.Context, application string) error
}
