// Package session is the bot's durable per-identity state: credentials,
// locale, conversation state and scratch data. It survives process
// restarts so a user resumes exactly where they left off.
package session

import (
	"encoding/json"
	"time"
)

// Session is one user's conversation record. The credential pair is either
// both-present or both-absent; a partial pair is invalid and gets cleared
// on load.
type Session struct {
	Identity     int64  `gorm:"primaryKey"`
	Locale       string `gorm:"size:2"`
	AccessToken  string
	RefreshToken string
	State        string `gorm:"size:40"`
	// JSON envelope of the state-specific scratch variant.
	Scratch json.RawMessage

	UpdatedAt time.Time
}

func (Session) TableName() string {
	return "bot_sessions"
}

// Authenticated reports whether a full credential pair is stored.
func (s *Session) Authenticated() bool {
	return s.AccessToken != "" && s.RefreshToken != ""
}

// SetCredentials stores a full pair. An empty refresh token keeps the
// previously stored one (the backend may not rotate it).
func (s *Session) SetCredentials(access, refresh string) {
	s.AccessToken = access
	if refresh != "" {
		s.RefreshToken = refresh
	}
}

// ClearCredentials wipes both tokens.
func (s *Session) ClearCredentials() {
	s.AccessToken = ""
	s.RefreshToken = ""
}

// normalize enforces the pair invariant after a load.
func (s *Session) normalize() {
	if (s.AccessToken == "") != (s.RefreshToken == "") {
		s.ClearCredentials()
	}
}
