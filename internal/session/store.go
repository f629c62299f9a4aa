package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Storage abstracts the durable backend so the lifecycle rules can be tested
// against an in-memory fake while production runs on the filesystem.
type Storage interface {
	WriteMetadata(meta Metadata) error
	ReadMetadata(id string) (Metadata, error)
	ReadMessages(id string) ([]Message, error)
	AppendMessage(id string, msg Message) error
	Delete(id string) error
	List() ([]Metadata, error)
}

// Store applies the session lifecycle rules on top of a Storage backend.
type Store struct {
	storage Storage
	now     func() time.Time
	newID   func() string
}

// Option customizes Store construction.
type Option func(*Store)

// WithClock overrides the clock used for activity timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithIDGenerator overrides session id allocation for tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewStore builds a store over the given backend.
func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Create allocates a new session and persists it before returning.
// Name validation is the transport layer's job.
func (s *Store) Create(name string, guildMembers []string) (Metadata, error) {
	now := s.now()
	meta := Metadata{
		ID:             s.newID(),
		Name:           name,
		GuildMembers:   append([]string{}, guildMembers...),
		Status:         StatusIdle,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	if err := s.storage.WriteMetadata(meta); err != nil {
		return Metadata{}, fmt.Errorf("session: create %s: %w", meta.ID, err)
	}
	return meta, nil
}

// Get returns the metadata and full message log for a session.
func (s *Store) Get(id string) (Metadata, []Message, error) {
	if err := ValidateID(id); err != nil {
		return Metadata{}, nil, err
	}
	meta, err := s.storage.ReadMetadata(id)
	if err != nil {
		return Metadata{}, nil, err
	}
	messages, err := s.storage.ReadMessages(id)
	if err != nil {
		return Metadata{}, nil, fmt.Errorf("session: read messages %s: %w", id, err)
	}
	if messages == nil {
		messages = []Message{}
	}
	return meta, messages, nil
}

// List returns metadata for every persisted session, in no particular order.
func (s *Store) List() ([]Metadata, error) {
	return s.storage.List()
}

// Append adds one message to the session log and refreshes the activity
// timestamp. The session status is left untouched.
func (s *Store) Append(id string, msg Message) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	meta, err := s.storage.ReadMetadata(id)
	if err != nil {
		return err
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	if err := s.storage.AppendMessage(id, msg); err != nil {
		return fmt.Errorf("session: append %s: %w", id, err)
	}
	meta.LastActivityAt = s.now()
	if err := s.storage.WriteMetadata(meta); err != nil {
		return fmt.Errorf("session: touch %s: %w", id, err)
	}
	return nil
}

// UpdateMetadata merges the non-nil fields of upd into the stored document
// and refreshes the activity timestamp.
func (s *Store) UpdateMetadata(id string, upd Update) (Metadata, error) {
	if err := ValidateID(id); err != nil {
		return Metadata{}, err
	}
	meta, err := s.storage.ReadMetadata(id)
	if err != nil {
		return Metadata{}, err
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return Metadata{}, fmt.Errorf("session: unknown status %q", *upd.Status)
		}
		meta.Status = *upd.Status
	}
	if upd.LastActivityAt != nil {
		meta.LastActivityAt = *upd.LastActivityAt
	} else {
		meta.LastActivityAt = s.now()
	}
	if err := s.storage.WriteMetadata(meta); err != nil {
		return Metadata{}, fmt.Errorf("session: update %s: %w", id, err)
	}
	return meta, nil
}

// Delete removes all persisted state for the session. The id is validated
// before any storage access so hostile identifiers never reach the backend.
func (s *Store) Delete(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	return s.storage.Delete(id)
}

// Complete drives the completion state machine:
//
//	running            -> ErrRunning, state unchanged
//	completed/expired  -> no-op, current metadata returned
//	idle/error         -> completed
func (s *Store) Complete(id string) (Metadata, error) {
	if err := ValidateID(id); err != nil {
		return Metadata{}, err
	}
	meta, err := s.storage.ReadMetadata(id)
	if err != nil {
		return Metadata{}, err
	}
	switch {
	case meta.Status == StatusRunning:
		return meta, ErrRunning
	case meta.Status.Terminal():
		return meta, nil
	}
	meta.Status = StatusCompleted
	meta.LastActivityAt = s.now()
	if err := s.storage.WriteMetadata(meta); err != nil {
		return Metadata{}, fmt.Errorf("session: complete %s: %w", id, err)
	}
	return meta, nil
}

// IsNotFound reports whether the error is the missing-session sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
