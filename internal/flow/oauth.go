package flow

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/2beens/easyathlete/internal/backend"
	"github.com/2beens/easyathlete/internal/telemetry/tracing"
)

const (
	statusStravaConnected = "Strava account connected"
	statusAdminFinalizing = "Finalizing Strava connection"
	errorInvalidCallback  = "Invalid state or code"
	errorExchangeFailed   = "Could not connect your Strava account, please try again"
)

// handleOAuthCallback exchanges the authorization code for an access token.
// The state parameter must equal the current user id; on mismatch nothing
// is exchanged nor stored.
func (m *Machine) handleOAuthCallback(ctx context.Context, profileID string, nav Navigation) (*Decision, error) {
	if nav.Screen == ScreenAdminRedirect {
		return m.handleAdminRedirect(profileID, nav), nil
	}

	profile := m.profile(profileID)

	unlock := m.locks.Lock(profileID)
	userID, err := profile.UserID(ctx)
	unlock()
	if err != nil {
		return nil, err
	}

	code := nav.Query.Get("code")
	state := nav.Query.Get("state")
	if oauthErr := nav.Query.Get("error"); oauthErr != "" {
		log.Warnf("profile [%s]: strava authorization failed: %s", profileID, oauthErr)
		code = ""
	}
	if code == "" || state == "" || userID == "" || state != userID {
		log.Warnf("profile [%s]: invalid oauth callback, state [%s] user [%s]", profileID, state, userID)
		decision := &Decision{
			Requested: nav.Screen,
			Screen:    ScreenOnboarding,
			Error:     errorInvalidCallback,
		}
		m.countDecision(decision)
		return decision, nil
	}

	token, err := m.backend.ExchangeStravaCode(ctx, code, userID)
	if err != nil {
		log.Errorf("profile [%s]: exchange strava code: %s", profileID, err)
		decision := (&Decision{
			Requested: nav.Screen,
			Screen:    nav.Screen,
			Error:     errorExchangeFailed,
		}).redirect(ScreenOnboarding, m.redirectDelay)
		m.countDecision(decision)
		return decision, nil
	}

	unlock = m.locks.Lock(profileID)
	defer unlock()

	if err := m.checkCurrent(ctx, profile, userID); err != nil {
		return nil, err
	}
	if err := profile.SetServiceToken(ctx, token); err != nil {
		return nil, err
	}

	decision := &Decision{
		Requested: nav.Screen,
		Screen:    ScreenConnectAccounts,
		Status:    statusStravaConnected,
	}
	m.countDecision(decision)
	return decision, nil
}

// handleAdminRedirect forwards an operator initiated authorization to the
// backend. The state names the athlete being connected, not the operator,
// so it is not checked against this session and nothing is stored here.
func (m *Machine) handleAdminRedirect(profileID string, nav Navigation) *Decision {
	code := nav.Query.Get("code")
	state := nav.Query.Get("state")
	if oauthErr := nav.Query.Get("error"); oauthErr != "" {
		log.Warnf("profile [%s]: admin strava authorization failed: %s", profileID, oauthErr)
		code = ""
	}

	decision := &Decision{Requested: nav.Screen}
	if code == "" || state == "" {
		decision.Screen = ScreenDashboard
		decision.Error = errorInvalidCallback
	} else {
		decision.Screen = ScreenAdminRedirect
		decision.Status = statusAdminFinalizing
		decision.ExternalURL = m.backend.AdminRedirectURL(code, state)
	}
	m.countDecision(decision)
	return decision
}

// ConnectURL builds the Strava authorize URL. The user id is the OAuth
// state, so the callback can verify it belongs to this session.
func (m *Machine) ConnectURL(ctx context.Context, profileID string) (string, error) {
	if m.oauthConfig == nil {
		return "", ErrConnectNotConfigured
	}

	unlock := m.locks.Lock(profileID)
	defer unlock()

	userID, err := requireUserID(ctx, m.profile(profileID))
	if err != nil {
		return "", err
	}

	return m.oauthConfig.AuthCodeURL(
		userID,
		oauth2.SetAuthURLParam("approval_prompt", "force"),
	), nil
}

// SyncActivities asks the backend to import the user's Strava activities
// using the stored access token. Count is nil when the backend omits it.
func (m *Machine) SyncActivities(ctx context.Context, profileID string) (_ *backend.FetchActivitiesResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "flow.syncActivities")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	profile := m.profile(profileID)

	unlock := m.locks.Lock(profileID)
	userID, err := requireUserID(ctx, profile)
	if err != nil {
		unlock()
		return nil, err
	}
	token, err := profile.ServiceToken(ctx)
	unlock()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNotConnected
	}

	result, err := m.backend.FetchActivities(ctx, token, userID)
	if err != nil {
		if backend.IsStatus(err, http.StatusUnauthorized) {
			log.Warnf("profile [%s]: strava token rejected", profileID)
		}
		return nil, backendErr(err)
	}

	unlock = m.locks.Lock(profileID)
	defer unlock()
	if err := m.checkCurrent(ctx, profile, userID); err != nil {
		return nil, err
	}

	return result, nil
}
