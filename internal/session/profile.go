package session

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
)

const paidValue = "true"

// Profile is a typed view of the Store bound to one profile id.
type Profile struct {
	store Store
	id    string
}

func NewProfile(store Store, profileID string) *Profile {
	return &Profile{
		store: store,
		id:    profileID,
	}
}

func (p *Profile) ID() string {
	return p.id
}

// Snapshot decodes all keys of the profile. Corrupt JSON values are dropped
// from the store and reported as absent.
func (p *Profile) Snapshot(ctx context.Context) (*SessionState, error) {
	values, err := p.store.All(ctx, p.id)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	state := &SessionState{
		UserID:       values[KeyUserID],
		ServiceToken: values[KeyServiceToken],
		HasPaid:      values[KeyHasPaid] == paidValue,
		AuthToken:    values[KeyAuthToken],
		StravaID:     values[KeyStravaID],
	}

	if raw, ok := values[KeyTranscript]; ok {
		state.Transcript, err = p.decodeTranscript(ctx, raw)
		if err != nil {
			return nil, err
		}
	}
	if raw, ok := values[KeyAnswers]; ok {
		state.Answers, err = p.decodeAnswers(ctx, raw)
		if err != nil {
			return nil, err
		}
	}
	if raw, ok := values[KeyCachedAnalytics]; ok {
		state.CachedAnalytics, err = p.decodeCachedAnalytics(ctx, raw)
		if err != nil {
			return nil, err
		}
	}
	if raw, ok := values[KeySchedule]; ok && json.Valid([]byte(raw)) {
		state.Schedule = json.RawMessage(raw)
	}

	return state, nil
}

func (p *Profile) UserID(ctx context.Context) (string, error) {
	userID, _, err := p.store.Get(ctx, p.id, KeyUserID)
	return userID, err
}

func (p *Profile) SetUserID(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrNoUserID
	}
	return p.store.Set(ctx, p.id, KeyUserID, userID)
}

func (p *Profile) Transcript(ctx context.Context) ([]Message, error) {
	raw, found, err := p.store.Get(ctx, p.id, KeyTranscript)
	if err != nil || !found {
		return nil, err
	}
	return p.decodeTranscript(ctx, raw)
}

func (p *Profile) SetTranscript(ctx context.Context, transcript []Message) error {
	return p.setJSON(ctx, KeyTranscript, transcript)
}

func (p *Profile) ClearTranscript(ctx context.Context) error {
	return p.store.Remove(ctx, p.id, KeyTranscript)
}

func (p *Profile) Answers(ctx context.Context) (*Answers, error) {
	raw, found, err := p.store.Get(ctx, p.id, KeyAnswers)
	if err != nil || !found {
		return nil, err
	}
	return p.decodeAnswers(ctx, raw)
}

// SetAnswers stores a new onboarding result. It requires a user id and
// resets the payment flag, since a new onboarding cycle invalidates a
// previous purchase.
func (p *Profile) SetAnswers(ctx context.Context, answers *Answers) error {
	userID, err := p.UserID(ctx)
	if err != nil {
		return err
	}
	if userID == "" {
		return ErrNoUserID
	}
	if !answers.Valid() {
		return fmt.Errorf("invalid onboarding answers")
	}

	if err := p.store.Remove(ctx, p.id, KeyHasPaid); err != nil {
		return fmt.Errorf("reset payment flag: %w", err)
	}
	return p.setJSON(ctx, KeyAnswers, answers)
}

func (p *Profile) ServiceToken(ctx context.Context) (string, error) {
	token, _, err := p.store.Get(ctx, p.id, KeyServiceToken)
	return token, err
}

func (p *Profile) SetServiceToken(ctx context.Context, token string) error {
	return p.store.Set(ctx, p.id, KeyServiceToken, token)
}

func (p *Profile) HasPaid(ctx context.Context) (bool, error) {
	v, _, err := p.store.Get(ctx, p.id, KeyHasPaid)
	return v == paidValue, err
}

// SetPaid marks the profile as paid. It reports whether the flag changed.
func (p *Profile) SetPaid(ctx context.Context) (bool, error) {
	paid, err := p.HasPaid(ctx)
	if err != nil {
		return false, err
	}
	if paid {
		return false, nil
	}
	return true, p.store.Set(ctx, p.id, KeyHasPaid, paidValue)
}

func (p *Profile) CachedAnalytics(ctx context.Context) (*CachedAnalytics, error) {
	raw, found, err := p.store.Get(ctx, p.id, KeyCachedAnalytics)
	if err != nil || !found {
		return nil, err
	}
	return p.decodeCachedAnalytics(ctx, raw)
}

// SetCachedAnalytics writes payload and timestamp as one value.
func (p *Profile) SetCachedAnalytics(ctx context.Context, cached *CachedAnalytics) error {
	return p.setJSON(ctx, KeyCachedAnalytics, cached)
}

func (p *Profile) SetAuthToken(ctx context.Context, token string) error {
	return p.store.Set(ctx, p.id, KeyAuthToken, token)
}

func (p *Profile) SetStravaID(ctx context.Context, stravaID string) error {
	if stravaID == "" {
		return p.store.Remove(ctx, p.id, KeyStravaID)
	}
	return p.store.Set(ctx, p.id, KeyStravaID, stravaID)
}

func (p *Profile) Schedule(ctx context.Context) (json.RawMessage, error) {
	raw, found, err := p.store.Get(ctx, p.id, KeySchedule)
	if err != nil || !found || !json.Valid([]byte(raw)) {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func (p *Profile) SetSchedule(ctx context.Context, schedule json.RawMessage) error {
	return p.store.Set(ctx, p.id, KeySchedule, string(schedule))
}

// Clear destroys every key of the profile.
func (p *Profile) Clear(ctx context.Context) error {
	return p.store.Clear(ctx, p.id)
}

func (p *Profile) setJSON(ctx context.Context, key Key, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return p.store.Set(ctx, p.id, key, string(b))
}

func (p *Profile) dropCorrupt(ctx context.Context, key Key, cause error) error {
	log.Warnf("profile [%s]: dropping corrupt %s: %s", p.id, key, cause)
	if err := p.store.Remove(ctx, p.id, key); err != nil {
		return fmt.Errorf("remove corrupt %s: %w", key, err)
	}
	return nil
}

func (p *Profile) decodeTranscript(ctx context.Context, raw string) ([]Message, error) {
	var transcript []Message
	if err := json.Unmarshal([]byte(raw), &transcript); err != nil {
		return nil, p.dropCorrupt(ctx, KeyTranscript, err)
	}
	return transcript, nil
}

func (p *Profile) decodeAnswers(ctx context.Context, raw string) (*Answers, error) {
	var answers Answers
	if err := json.Unmarshal([]byte(raw), &answers); err != nil {
		return nil, p.dropCorrupt(ctx, KeyAnswers, err)
	}
	if !answers.Valid() {
		return nil, p.dropCorrupt(ctx, KeyAnswers, fmt.Errorf("missing required onboarding content"))
	}
	return &answers, nil
}

func (p *Profile) decodeCachedAnalytics(ctx context.Context, raw string) (*CachedAnalytics, error) {
	var cached CachedAnalytics
	if err := json.Unmarshal([]byte(raw), &cached); err != nil || len(cached.Payload) == 0 {
		if err == nil {
			err = fmt.Errorf("empty payload")
		}
		return nil, p.dropCorrupt(ctx, KeyCachedAnalytics, err)
	}
	return &cached, nil
}
