package flow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/2beens/easyathlete/internal/backend"
	"github.com/2beens/easyathlete/internal/flow"
	"github.com/2beens/easyathlete/internal/session"
)

func TestMachine_Signup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboarded(t, false)

	input := flow.SignupInput{
		Name:     gofakeit.Name(),
		Email:    gofakeit.Email(),
		Password: gofakeit.Password(true, true, true, false, false, 12),
	}
	env.backend.EXPECT().
		SignupWithData(gomock.Any(), backend.SignupRequest{
			Name:     input.Name,
			Email:    input.Email,
			Password: input.Password,
			UserID:   testUserID,
		}).
		Return(&backend.AuthResult{Token: "jwt", UserID: "acc_1", StravaID: "987"}, nil)

	decision, err := env.machine.Signup(ctx, testProfileID, input)
	require.NoError(t, err)
	assert.Equal(t, flow.ScreenConnectAccounts, decision.Screen)

	state := env.snapshot(t)
	assert.Equal(t, "acc_1", state.UserID)
	assert.Equal(t, "jwt", state.AuthToken)
	assert.Equal(t, "987", state.StravaID)
	assert.NotNil(t, state.Answers)
}

func TestMachine_SignupInvalid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.machine.Signup(ctx, testProfileID, flow.SignupInput{Name: "A", Email: "not-an-email", Password: "x"})
	assert.ErrorIs(t, err, flow.ErrInvalidInput)

	_, err = env.machine.Signup(ctx, testProfileID, flow.SignupInput{Name: "A", Email: "a@b.com", Password: "x"})
	assert.ErrorIs(t, err, flow.ErrNoUserID)
}

func TestMachine_SignupBackendError(t *testing.T) {
	env := newTestEnv(t)
	env.onboarded(t, false)

	env.backend.EXPECT().
		SignupWithData(gomock.Any(), gomock.Any()).
		Return(nil, &backend.StatusError{Endpoint: "signup-with-data", StatusCode: 409, Message: "email taken"})

	_, err := env.machine.Signup(context.Background(), testProfileID, flow.SignupInput{Name: "A", Email: "a@b.com", Password: "x"})
	assert.ErrorIs(t, err, flow.ErrBackend)
	assert.True(t, backend.IsStatus(err, 409))
	assert.Equal(t, testUserID, env.snapshot(t).UserID)
}

func TestMachine_Login(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.backend.EXPECT().
		Login(gomock.Any(), "runner@example.com", "pw").
		Return(&backend.AuthResult{Token: "jwt", CustomUserID: "user_returning"}, nil)

	decision, err := env.machine.Login(ctx, testProfileID, " runner@example.com ", "pw")
	require.NoError(t, err)
	// no local onboarding answers on this browser yet
	assert.Equal(t, flow.ScreenDashboard, decision.Requested)
	assert.Equal(t, flow.ScreenOnboarding, decision.Screen)

	state := env.snapshot(t)
	assert.Equal(t, "user_returning", state.UserID)
	assert.Equal(t, "jwt", state.AuthToken)
	assert.Empty(t, state.StravaID)

	_, err = env.machine.Login(ctx, testProfileID, "", "pw")
	assert.ErrorIs(t, err, flow.ErrInvalidInput)
}

func TestMachine_Revoke(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboarded(t, true)
	require.NoError(t, env.profile().SetServiceToken(ctx, "strava-token"))

	env.backend.EXPECT().DeleteAccount(gomock.Any(), testUserID).Return(nil)

	result, err := env.machine.Revoke(ctx, testProfileID)
	require.NoError(t, err)
	assert.Equal(t, flow.ScreenOnboarding, result.Decision.Screen)
	assert.Empty(t, result.BackendError)

	values, err := env.store.All(ctx, testProfileID)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestMachine_RevokeBackendFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboarded(t, true)

	env.backend.EXPECT().
		DeleteAccount(gomock.Any(), testUserID).
		Return(errors.New("connection reset"))

	result, err := env.machine.Revoke(ctx, testProfileID)
	require.NoError(t, err)
	assert.Equal(t, flow.ScreenOnboarding, result.Decision.Screen)
	assert.Equal(t, "connection reset", result.BackendError)
	assert.NotEmpty(t, result.Decision.Error)

	values, err := env.store.All(ctx, testProfileID)
	require.NoError(t, err)
	assert.Empty(t, values)

	decision, err := env.machine.Navigate(ctx, testProfileID, flow.Navigation{Screen: flow.ScreenDashboard})
	require.NoError(t, err)
	assert.Equal(t, flow.ScreenOnboarding, decision.Screen)
}

func TestMachine_RevokeWithoutUserID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.store.Set(ctx, testProfileID, session.KeyTranscript, "[]"))

	result, err := env.machine.Revoke(ctx, testProfileID)
	require.NoError(t, err)
	assert.Equal(t, flow.ScreenOnboarding, result.Decision.Screen)

	values, err := env.store.All(ctx, testProfileID)
	require.NoError(t, err)
	assert.Empty(t, values)
}
