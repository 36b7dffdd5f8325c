package flow_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/2beens/easyathlete/internal/backend"
	"github.com/2beens/easyathlete/internal/flow"
	"github.com/2beens/easyathlete/internal/session"
)

const testPayloadURL = "https://storage.example/insights/user_test.json"

func TestMachine_AnalyticsReadThrough(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboarded(t, true)

	env.backend.EXPECT().LatestAnalyticsURL(gomock.Any(), testUserID).Return(testPayloadURL, nil)
	env.backend.EXPECT().
		AnalyticsPayload(gomock.Any(), testPayloadURL).
		Return(json.RawMessage(`{ "vo2max": 52,  "weeklyKm": [30, 34] }`), nil)

	first, err := env.machine.Analytics(ctx, testProfileID)
	require.NoError(t, err)
	assert.Equal(t, flow.AnalyticsSourceNetwork, first.Source)
	assert.Equal(t, env.clock.Now().UnixMilli(), first.FetchedAtEpochMs)

	// within the freshness window no request is made
	env.clock.Advance(10 * time.Minute)
	second, err := env.machine.Analytics(ctx, testProfileID)
	require.NoError(t, err)
	assert.Equal(t, flow.AnalyticsSourceCache, second.Source)
	assert.Equal(t, string(first.Payload), string(second.Payload))
	assert.Equal(t, first.FetchedAtEpochMs, second.FetchedAtEpochMs)

	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.CounterAnalyticsCache.WithLabelValues("network")))
	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.CounterAnalyticsCache.WithLabelValues("cache")))
}

func TestMachine_AnalyticsRefreshAfterWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboarded(t, true)

	env.backend.EXPECT().LatestAnalyticsURL(gomock.Any(), testUserID).Return(testPayloadURL, nil).Times(2)
	gomock.InOrder(
		env.backend.EXPECT().AnalyticsPayload(gomock.Any(), testPayloadURL).Return(json.RawMessage(`{"v":1}`), nil),
		env.backend.EXPECT().AnalyticsPayload(gomock.Any(), testPayloadURL).Return(json.RawMessage(`{"v":2}`), nil),
	)

	_, err := env.machine.Analytics(ctx, testProfileID)
	require.NoError(t, err)

	env.clock.Advance(31 * time.Minute)
	result, err := env.machine.Analytics(ctx, testProfileID)
	require.NoError(t, err)
	assert.Equal(t, flow.AnalyticsSourceNetwork, result.Source)
	assert.JSONEq(t, `{"v":2}`, string(result.Payload))

	cached := env.snapshot(t).CachedAnalytics
	require.NotNil(t, cached)
	assert.Equal(t, env.clock.Now().UnixMilli(), cached.FetchedAtEpochMs)
}

func TestMachine_AnalyticsServesStaleOnError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboarded(t, true)

	fetchedAt := env.clock.Now()
	require.NoError(t, env.profile().SetCachedAnalytics(ctx, &session.CachedAnalytics{
		UserID:           testUserID,
		Payload:          json.RawMessage(`{"v":"old"}`),
		FetchedAtEpochMs: fetchedAt.UnixMilli(),
	}))
	env.clock.Advance(2 * time.Hour)

	env.backend.EXPECT().
		LatestAnalyticsURL(gomock.Any(), testUserID).
		Return("", errors.New("backend down"))

	result, err := env.machine.Analytics(ctx, testProfileID)
	require.NoError(t, err)
	assert.Equal(t, flow.AnalyticsSourceStale, result.Source)
	assert.JSONEq(t, `{"v":"old"}`, string(result.Payload))
	assert.Equal(t, fetchedAt.UnixMilli(), result.FetchedAtEpochMs)
}

func TestMachine_AnalyticsErrorWithoutCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboarded(t, true)

	env.backend.EXPECT().LatestAnalyticsURL(gomock.Any(), testUserID).Return(testPayloadURL, nil)
	env.backend.EXPECT().
		AnalyticsPayload(gomock.Any(), testPayloadURL).
		Return(nil, errors.New("payload gone"))

	_, err := env.machine.Analytics(ctx, testProfileID)
	assert.ErrorIs(t, err, flow.ErrBackend)
	assert.Nil(t, env.snapshot(t).CachedAnalytics)
}

func TestMachine_AnalyticsRequiresUserID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.machine.Analytics(context.Background(), testProfileID)
	assert.ErrorIs(t, err, flow.ErrNoUserID)
}

func TestMachine_AnalyticsCustomWindow(t *testing.T) {
	env := newTestEnv(t, func(params *flow.NewMachineParams) {
		params.AnalyticsFreshness = time.Minute
	})
	ctx := context.Background()
	env.onboarded(t, true)

	require.NoError(t, env.profile().SetCachedAnalytics(ctx, &session.CachedAnalytics{
		UserID:           testUserID,
		Payload:          json.RawMessage(`{}`),
		FetchedAtEpochMs: env.clock.Now().UnixMilli(),
	}))
	env.clock.Advance(2 * time.Minute)

	env.backend.EXPECT().LatestAnalyticsURL(gomock.Any(), testUserID).Return(testPayloadURL, nil)
	env.backend.EXPECT().AnalyticsPayload(gomock.Any(), testPayloadURL).Return(json.RawMessage(`{"v":3}`), nil)

	result, err := env.machine.Analytics(ctx, testProfileID)
	require.NoError(t, err)
	assert.Equal(t, flow.AnalyticsSourceNetwork, result.Source)
}

func TestMachine_KPIsCached(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboarded(t, true)

	env.backend.EXPECT().
		KPIs(gomock.Any(), testUserID, 28, "Run").
		Return(json.RawMessage(`{"distanceKm":120}`), nil).
		Times(1)

	for i := 0; i < 3; i++ {
		kpis, err := env.machine.KPIs(ctx, testProfileID, 28, "Run")
		require.NoError(t, err)
		assert.JSONEq(t, `{"distanceKm":120}`, string(kpis))
	}

	_, err := env.machine.KPIs(ctx, testProfileID, 0, "Run")
	assert.ErrorIs(t, err, flow.ErrInvalidInput)
}

func TestMachine_Progress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.machine.Progress(ctx, testProfileID, "Ride")
	assert.ErrorIs(t, err, flow.ErrNoUserID)

	env.onboarded(t, true)
	env.backend.EXPECT().
		ProgressTrends(gomock.Any(), testUserID, "Ride").
		Return(json.RawMessage(`{"trend":"up"}`), nil)

	progress, err := env.machine.Progress(ctx, testProfileID, "Ride")
	require.NoError(t, err)
	assert.JSONEq(t, `{"trend":"up"}`, string(progress))
}

func TestMachine_AdminRefreshActivities(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	count := 7
	gomock.InOrder(
		env.backend.EXPECT().RefreshStravaToken(gomock.Any(), "user_x").Return("fresh-token", nil),
		env.backend.EXPECT().FetchActivities(gomock.Any(), "fresh-token", "user_x").Return(&backend.FetchActivitiesResult{Count: &count}, nil),
	)

	result, err := env.machine.AdminRefreshActivities(ctx, "user_x")
	require.NoError(t, err)
	assert.Equal(t, 7, *result.Count)

	_, err = env.machine.AdminRefreshActivities(ctx, " ")
	assert.ErrorIs(t, err, flow.ErrInvalidInput)

	env.backend.EXPECT().AdminInitiateStrava(gomock.Any(), "user_x").Return("https://strava.example/authorize", nil)
	authURL, err := env.machine.AdminConnectURL(ctx, "user_x")
	require.NoError(t, err)
	assert.Equal(t, "https://strava.example/authorize", authURL)
}

func TestMachine_AnalyticsDiscardedAfterUserChange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboarded(t, true)

	env.backend.EXPECT().LatestAnalyticsURL(gomock.Any(), testUserID).Return(testPayloadURL, nil)
	env.backend.EXPECT().
		AnalyticsPayload(gomock.Any(), testPayloadURL).
		DoAndReturn(func(ctx context.Context, _ string) (json.RawMessage, error) {
			// a login replaced the user while the payload was downloading
			require.NoError(t, env.profile().SetUserID(ctx, "acc_other"))
			return json.RawMessage(`{"v":1}`), nil
		})

	result, err := env.machine.Analytics(ctx, testProfileID)
	assert.ErrorIs(t, err, flow.ErrStaleResponse)
	assert.Nil(t, result)
	assert.Nil(t, env.snapshot(t).CachedAnalytics)
	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.CounterStaleResponses))
}

func TestMachine_AnalyticsNotSharedAcrossLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboarded(t, true)

	env.backend.EXPECT().LatestAnalyticsURL(gomock.Any(), testUserID).Return(testPayloadURL, nil)
	env.backend.EXPECT().
		AnalyticsPayload(gomock.Any(), testPayloadURL).
		Return(json.RawMessage(`{"owner":"user_test"}`), nil)

	_, err := env.machine.Analytics(ctx, testProfileID)
	require.NoError(t, err)

	env.backend.EXPECT().
		Login(gomock.Any(), "other@example.com", "pw").
		Return(&backend.AuthResult{Token: "jwt", UserID: "acc_other"}, nil)
	_, err = env.machine.Login(ctx, testProfileID, "other@example.com", "pw")
	require.NoError(t, err)

	env.clock.Advance(time.Minute)

	const otherURL = "https://storage.example/insights/acc_other.json"
	env.backend.EXPECT().LatestAnalyticsURL(gomock.Any(), "acc_other").Return(otherURL, nil)
	env.backend.EXPECT().
		AnalyticsPayload(gomock.Any(), otherURL).
		Return(json.RawMessage(`{"owner":"acc_other"}`), nil)

	result, err := env.machine.Analytics(ctx, testProfileID)
	require.NoError(t, err)
	assert.Equal(t, flow.AnalyticsSourceNetwork, result.Source)
	assert.JSONEq(t, `{"owner":"acc_other"}`, string(result.Payload))
	assert.Equal(t, "acc_other", env.snapshot(t).CachedAnalytics.UserID)
}

func TestMachine_AnalyticsNoStaleFallbackForOtherUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboarded(t, true)

	require.NoError(t, env.profile().SetCachedAnalytics(ctx, &session.CachedAnalytics{
		UserID:           "acc_previous",
		Payload:          json.RawMessage(`{"owner":"acc_previous"}`),
		FetchedAtEpochMs: env.clock.Now().UnixMilli(),
	}))

	env.backend.EXPECT().
		LatestAnalyticsURL(gomock.Any(), testUserID).
		Return("", errors.New("backend down"))

	result, err := env.machine.Analytics(ctx, testProfileID)
	assert.ErrorIs(t, err, flow.ErrBackend)
	assert.Nil(t, result)
}
