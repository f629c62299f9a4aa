// Package session persists client-local conversation sessions: a metadata
// document plus an append-only message log per session. Sessions are a
// guildhall concept, independent of the daemon's meetings and commissions.
package session

import (
	"errors"
	"strings"
	"time"
)

// Status enumerates the session lifecycle states.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
	StatusError     Status = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusExpired
}

// Valid reports whether the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusIdle, StatusRunning, StatusCompleted, StatusExpired, StatusError:
		return true
	}
	return false
}

var (
	// ErrNotFound signals the session id has no persisted state. It is a
	// normal outcome for lookups, distinct from I/O failure.
	ErrNotFound = errors.New("session: not found")
	// ErrInvalidID signals an identifier that could escape the storage root.
	ErrInvalidID = errors.New("session: invalid id")
	// ErrRunning signals a completion request against a running session.
	ErrRunning = errors.New("session: query still running, stop it first")
)

// Message is one entry in a session's append-only log.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Metadata is the durable per-session document.
type Metadata struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	GuildMembers   []string  `json:"guildMembers"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	LastActivityAt time.Time `json:"lastActivityAt"`
}

// Update selectively mutates metadata fields; nil fields are left untouched.
type Update struct {
	Status         *Status
	LastActivityAt *time.Time
}

// ValidateID rejects identifiers containing path-escaping sequences before
// any storage access. Generated ids are UUIDs, so anything with separators
// or parent-directory segments is hostile or corrupt.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	if strings.Contains(id, "/") || strings.Contains(id, "\\") {
		return ErrInvalidID
	}
	if id == "." || id == ".." || strings.Contains(id, "..") {
		return ErrInvalidID
	}
	return nil
}
