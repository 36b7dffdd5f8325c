package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/2beens/easyathlete/internal/session"
)

// OptionalID is an identifier the backend sends either as a string, a
// number or null.
type OptionalID string

func (id *OptionalID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = OptionalID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %s", data)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return err
	}
	*id = OptionalID(n.String())
	return nil
}

type onboardingTurnRequest struct {
	UserID       string            `json:"userId"`
	Conversation []session.Message `json:"conversation"`
}

// OnboardingReply is one assistant turn of the onboarding chat.
type OnboardingReply struct {
	Reply    string `json:"reply"`
	Finished bool   `json:"finished"`
}

func (r *OnboardingReply) validate() error {
	if r.Reply == "" && !r.Finished {
		return invalidResponse(endpointOnboardingBot, "empty reply for unfinished conversation")
	}
	return nil
}

type uploadOnboardingRequest struct {
	UserID         string           `json:"userId"`
	OnboardingData *session.Answers `json:"onboardingData"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	UserID   string `json:"userId"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is the reply of both signup and login.
type AuthResult struct {
	Token        string     `json:"token"`
	UserID       OptionalID `json:"userId"`
	CustomUserID OptionalID `json:"customUserId"`
	StravaID     OptionalID `json:"stravaId"`
}

// AccountID is the canonical account identifier: the backend's userId,
// falling back to customUserId for older accounts.
func (r *AuthResult) AccountID() string {
	if r.UserID != "" {
		return string(r.UserID)
	}
	return string(r.CustomUserID)
}

func (r *AuthResult) validate(endpoint string) error {
	if r.Token == "" {
		return invalidResponse(endpoint, "missing token")
	}
	if r.AccountID() == "" {
		return invalidResponse(endpoint, "missing userId")
	}
	return nil
}

type exchangeRequest struct {
	Code   string `json:"code"`
	UserID string `json:"userId"`
}

type exchangeResponse struct {
	AccessToken string `json:"access_token"`
}

type fetchActivitiesRequest struct {
	AccessToken string `json:"accessToken"`
	UserID      string `json:"userId"`
}

// FetchActivitiesResult carries the number of synced activities when the
// backend reports it.
type FetchActivitiesResult struct {
	Count *int `json:"count"`
}

type scheduleResponse struct {
	Schedule json.RawMessage `json:"schedule"`
}

func (r *scheduleResponse) validate(endpoint string) error {
	if len(r.Schedule) == 0 || bytes.Equal(r.Schedule, []byte("null")) {
		return invalidResponse(endpoint, "missing schedule")
	}
	return nil
}

type generateScheduleRequest struct {
	UserID      string           `json:"userId"`
	AthleteData *session.Answers `json:"athleteData"`
}

type latestURLResponse struct {
	URL string `json:"url"`
}

func (r *latestURLResponse) validate() error {
	u, err := url.Parse(r.URL)
	if err != nil || r.URL == "" {
		return invalidResponse(endpointLatestStravaURL, "missing or malformed url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return invalidResponse(endpointLatestStravaURL, "url scheme must be http(s)")
	}
	return nil
}

type userIDRequest struct {
	UserID string `json:"userId"`
}

type refreshTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type adminInitiateResponse struct {
	AuthURL string `json:"authUrl"`
}

type progressRequest struct {
	UserID       string `json:"userId"`
	ActivityType string `json:"activityType"`
}

type progressResponse struct {
	Trends json.RawMessage `json:"trends"`
}
