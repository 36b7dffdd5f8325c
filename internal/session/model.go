package session

import (
	"encoding/json"
	"strings"
	"time"
)

type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// Message is one entry of the onboarding transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Answers is the finalized onboarding result. The chat onboarding fills
// Transcript; the structured fields are set when the backend or an older
// client provided them.
type Answers struct {
	Goal         string    `json:"goal,omitempty"`
	Deadline     string    `json:"deadline,omitempty"`
	Level        string    `json:"level,omitempty"`
	DaysPerWeek  string    `json:"daysPerWeek,omitempty"`
	Sports       []string  `json:"sports,omitempty"`
	Restrictions string    `json:"restrictions,omitempty"`
	Transcript   []Message `json:"transcript,omitempty"`
	CompletedAt  time.Time `json:"completedAt"`
}

// Valid reports whether the answers carry usable onboarding content:
// either a non-empty transcript or all the required structured fields.
func (a *Answers) Valid() bool {
	if a == nil {
		return false
	}
	if len(a.Transcript) > 0 {
		return true
	}
	if strings.TrimSpace(a.Goal) == "" || a.Level == "" || a.DaysPerWeek == "" {
		return false
	}
	return len(a.Sports) > 0
}

// CachedAnalytics holds the last analytics payload, the user it was
// fetched for and when.
type CachedAnalytics struct {
	UserID           string          `json:"userId"`
	Payload          json.RawMessage `json:"payload"`
	FetchedAtEpochMs int64           `json:"fetchedAtEpochMs"`
}

// BelongsTo reports whether the payload was fetched for userID.
func (c *CachedAnalytics) BelongsTo(userID string) bool {
	return c != nil && userID != "" && c.UserID == userID
}

func (c *CachedAnalytics) FetchedAt() time.Time {
	return time.UnixMilli(c.FetchedAtEpochMs)
}

// FreshAt reports whether the payload is younger than window at now.
func (c *CachedAnalytics) FreshAt(now time.Time, window time.Duration) bool {
	if c == nil {
		return false
	}
	return now.Sub(c.FetchedAt()) < window
}

// SessionState is a decoded view of every key of one profile.
type SessionState struct {
	UserID          string
	Transcript      []Message
	Answers         *Answers
	ServiceToken    string
	HasPaid         bool
	CachedAnalytics *CachedAnalytics
	AuthToken       string
	StravaID        string
	Schedule        json.RawMessage
}

// TranscriptStarted reports whether an onboarding conversation is in progress.
func (s *SessionState) TranscriptStarted() bool {
	return len(s.Transcript) > 0
}
