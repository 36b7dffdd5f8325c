package flow

import (
	"context"
	"encoding/json"

	"github.com/2beens/easyathlete/internal/backend"
	"github.com/2beens/easyathlete/internal/session"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=flow_test

type backendClient interface {
	OnboardingTurn(ctx context.Context, userID string, conversation []session.Message) (*backend.OnboardingReply, error)
	UploadOnboarding(ctx context.Context, userID string, answers *session.Answers) error
	SignupWithData(ctx context.Context, req backend.SignupRequest) (*backend.AuthResult, error)
	Login(ctx context.Context, email, password string) (*backend.AuthResult, error)
	DeleteAccount(ctx context.Context, userID string) error
	ExchangeStravaCode(ctx context.Context, code, userID string) (string, error)
	FetchActivities(ctx context.Context, accessToken, userID string) (*backend.FetchActivitiesResult, error)
	Schedule(ctx context.Context, userID string) (json.RawMessage, error)
	GenerateSchedule(ctx context.Context, userID string, athleteData *session.Answers) (json.RawMessage, error)
	LatestAnalyticsURL(ctx context.Context, userID string) (string, error)
	AnalyticsPayload(ctx context.Context, payloadURL string) (json.RawMessage, error)
	KPIs(ctx context.Context, userID string, days int, activityType string) (json.RawMessage, error)
	RefreshStravaToken(ctx context.Context, userID string) (string, error)
	AdminInitiateStrava(ctx context.Context, userID string) (string, error)
	AdminRedirectURL(code, state string) string
	ProgressTrends(ctx context.Context, userID, activityType string) (json.RawMessage, error)
}
