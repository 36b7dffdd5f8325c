package flow

import (
	"context"
	"net/mail"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/2beens/easyathlete/internal/backend"
	"github.com/2beens/easyathlete/internal/session"
	"github.com/2beens/easyathlete/internal/telemetry/tracing"
)

type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in SignupInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || in.Password == "" {
		return ErrInvalidInput
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return ErrInvalidInput
	}
	return nil
}

// Signup creates a backend account for the onboarded user. The account id
// returned by the backend replaces the local user id.
func (m *Machine) Signup(ctx context.Context, profileID string, input SignupInput) (_ *Decision, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "flow.signup")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := input.validate(); err != nil {
		return nil, err
	}

	profile := m.profile(profileID)

	unlock := m.locks.Lock(profileID)
	userID, err := requireUserID(ctx, profile)
	unlock()
	if err != nil {
		return nil, err
	}

	result, err := m.backend.SignupWithData(ctx, backend.SignupRequest{
		Name:     strings.TrimSpace(input.Name),
		Email:    input.Email,
		Password: input.Password,
		UserID:   userID,
	})
	if err != nil {
		log.Errorf("profile [%s]: signup: %s", profileID, err)
		return nil, backendErr(err)
	}

	unlock = m.locks.Lock(profileID)
	defer unlock()

	if err := m.checkCurrent(ctx, profile, userID); err != nil {
		return nil, err
	}
	if err := m.storeAuth(ctx, profile, result); err != nil {
		return nil, err
	}

	return m.decide(ctx, profile, ScreenConnectAccounts)
}

// Login authenticates a returning user and adopts the backend account id.
func (m *Machine) Login(ctx context.Context, profileID, email, password string) (_ *Decision, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "flow.login")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrInvalidInput
	}

	profile := m.profile(profileID)

	unlock := m.locks.Lock(profileID)
	userID, err := profile.UserID(ctx)
	unlock()
	if err != nil {
		return nil, err
	}

	result, err := m.backend.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		log.Warnf("profile [%s]: login: %s", profileID, err)
		return nil, backendErr(err)
	}

	unlock = m.locks.Lock(profileID)
	defer unlock()

	if err := m.checkCurrent(ctx, profile, userID); err != nil {
		return nil, err
	}
	if err := m.storeAuth(ctx, profile, result); err != nil {
		return nil, err
	}

	return m.decide(ctx, profile, ScreenDashboard)
}

func (m *Machine) storeAuth(ctx context.Context, profile *session.Profile, result *backend.AuthResult) error {
	if err := profile.SetUserID(ctx, result.AccountID()); err != nil {
		return err
	}
	if err := profile.SetAuthToken(ctx, result.Token); err != nil {
		return err
	}
	return profile.SetStravaID(ctx, string(result.StravaID))
}

// RevokeResult carries the navigation after a revoke and, separately, the
// reason the backend deletion failed if it did.
type RevokeResult struct {
	Decision     *Decision `json:"decision"`
	BackendError string    `json:"backendError,omitempty"`
}

// Revoke asks the backend to delete the account and then clears the local
// session regardless of the backend outcome.
func (m *Machine) Revoke(ctx context.Context, profileID string) (_ *RevokeResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "flow.revoke")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	profile := m.profile(profileID)

	unlock := m.locks.Lock(profileID)
	userID, err := profile.UserID(ctx)
	unlock()
	if err != nil {
		log.Errorf("profile [%s]: revoke, read user id: %s", profileID, err)
	}

	result := &RevokeResult{
		Decision: &Decision{
			Requested: ScreenOnboarding,
			Screen:    ScreenOnboarding,
		},
	}

	var backendFailure error
	if userID != "" {
		backendFailure = m.backend.DeleteAccount(ctx, userID)
	}
	if backendFailure != nil {
		log.Errorf("profile [%s]: delete account [%s]: %s", profileID, userID, backendFailure)
		result.BackendError = backendFailure.Error()
		result.Decision.Error = "Could not delete your account on the server, local data was removed"
		m.metricsManager.CounterRevokes.WithLabelValues("backend_error").Inc()
	} else {
		m.metricsManager.CounterRevokes.WithLabelValues("ok").Inc()
	}

	unlock = m.locks.Lock(profileID)
	defer unlock()

	if clearErr := profile.Clear(ctx); clearErr != nil {
		return result, multierr.Combine(backendErrOrNil(backendFailure), clearErr)
	}
	m.countDecision(result.Decision)
	log.Infof("profile [%s]: session revoked", profileID)

	return result, nil
}

func backendErrOrNil(err error) error {
	if err == nil {
		return nil
	}
	return backendErr(err)
}
