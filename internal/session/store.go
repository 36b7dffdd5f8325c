package session

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidStoreType = errors.New("invalid session store type")
	ErrInvalidConfig    = errors.New("invalid session store config")
	ErrEmptyProfileID   = errors.New("empty profile id")
	ErrNoUserID         = errors.New("user id not set")
)

// Key is a logical session key. Values are opaque strings to the store.
type Key string

const (
	KeyUserID          Key = "easyathlete_user_id"
	KeyTranscript      Key = "onboarding_transcript"
	KeyAnswers         Key = "onboarding_answers"
	KeyServiceToken    Key = "strava_access_token"
	KeyHasPaid         Key = "has_paid"
	KeyCachedAnalytics Key = "strava_insights"
	KeyAuthToken       Key = "token"
	KeyStravaID        Key = "strava_id"
	KeySchedule        Key = "training_schedule"
)

// Store is a durable key/value store scoped by profile id (one browser
// profile). A Set followed by a Get of the same key must return the value
// just written. Clear removes every key of the profile atomically.
type Store interface {
	Get(ctx context.Context, profileID string, key Key) (string, bool, error)
	Set(ctx context.Context, profileID string, key Key, value string) error
	Remove(ctx context.Context, profileID string, key Key) error
	Clear(ctx context.Context, profileID string) error
	// All returns every key of the profile in one read.
	All(ctx context.Context, profileID string) (map[Key]string, error)
	Close() error
}

// Sweeper is implemented by stores that need explicit eviction of idle
// profiles (the redis store relies on key TTLs instead).
type Sweeper interface {
	SweepIdle(ctx context.Context, idleFor time.Duration) (int, error)
}
