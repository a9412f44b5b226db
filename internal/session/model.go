package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpggio/taskdesk/internal/domain/user"
)

// Keys of the three durable entries that make up a session.
const (
	KeyToken   = "token"
	KeyRole    = "userRole"
	KeyProfile = "userData"
)

// Keys lists every durable entry written at login and removed at logout.
var Keys = []string{KeyToken, KeyRole, KeyProfile}

var (
	// ErrNoSession indicates that no complete session is stored.
	ErrNoSession = errors.New("no session")
	// ErrInvalidSession indicates an attempt to store an incomplete session.
	ErrInvalidSession = errors.New("invalid session: token, role and profile are required together")
)

// Session is the authenticated identity cached between login and logout.
type Session struct {
	Token   string       `json:"token"`
	Role    user.Role    `json:"role"`
	Profile user.Summary `json:"profile"`
}

// Validate reports whether s can be stored. Token and role must both be set.
func (s Session) Validate() error {
	if s.Token == "" || !s.Role.Valid() || s.Profile.ID == "" {
		return ErrInvalidSession
	}
	return nil
}

// Entries encodes s into its durable key-value form.
func (s Session) Entries() (map[string]string, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	profile, err := json.Marshal(s.Profile)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return map[string]string{
		KeyToken:   s.Token,
		KeyRole:    string(s.Role),
		KeyProfile: string(profile),
	}, nil
}

// FromEntries decodes a session from durable entries. Any missing or
// malformed entry yields ErrNoSession; a partial session is never returned.
func FromEntries(entries map[string]string) (*Session, error) {
	token := entries[KeyToken]
	role := user.Role(entries[KeyRole])
	raw := entries[KeyProfile]
	if token == "" || !role.Valid() || raw == "" {
		return nil, ErrNoSession
	}

	var profile user.Summary
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, ErrNoSession
	}
	sess := &Session{Token: token, Role: role, Profile: profile}
	if sess.Validate() != nil {
		return nil, ErrNoSession
	}
	return sess, nil
}
