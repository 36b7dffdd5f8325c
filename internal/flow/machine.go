package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/coocood/freecache"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"github.com/2beens/easyathlete/internal/session"
	"github.com/2beens/easyathlete/internal/telemetry/metrics"
	"github.com/2beens/easyathlete/internal/telemetry/tracing"
)

const (
	DefaultAnalyticsFreshness = 30 * time.Minute
	DefaultKPIsCacheTTL       = 5 * time.Minute
	DefaultRedirectDelay      = 3 * time.Second

	// 16 MB
	kpisCacheSize = 16 * 1024 * 1024
)

type NewMachineParams struct {
	Store          session.Store
	Backend        backendClient
	MetricsManager *metrics.Manager
	// OAuthConfig builds the Strava authorize URL; nil disables ConnectURL.
	OAuthConfig     *oauth2.Config
	AdminSecretHash string
	// SkipSignup sends finished onboardings straight to schedule generation.
	SkipSignup         bool
	AnalyticsFreshness time.Duration
	KPIsCacheTTL       time.Duration
	RedirectDelay      time.Duration
	// Now and NewUserID default to time.Now and a random "user_" id.
	Now       func() time.Time
	NewUserID func() string
}

// Machine owns every transition of the client session: it decides which
// screen to show and is the only writer of the session store.
type Machine struct {
	store              session.Store
	backend            backendClient
	metricsManager     *metrics.Manager
	oauthConfig        *oauth2.Config
	adminSecretHash    string
	skipSignup         bool
	analyticsFreshness time.Duration
	kpisCacheTTL       time.Duration
	redirectDelay      time.Duration
	now                func() time.Time
	newUserID          func() string

	locks     *keyedMutex
	kpisCache *freecache.Cache
}

func NewMachine(params NewMachineParams) *Machine {
	m := &Machine{
		store:              params.Store,
		backend:            params.Backend,
		metricsManager:     params.MetricsManager,
		oauthConfig:        params.OAuthConfig,
		adminSecretHash:    params.AdminSecretHash,
		skipSignup:         params.SkipSignup,
		analyticsFreshness: params.AnalyticsFreshness,
		kpisCacheTTL:       params.KPIsCacheTTL,
		redirectDelay:      params.RedirectDelay,
		now:                params.Now,
		newUserID:          params.NewUserID,
		locks:              newKeyedMutex(),
		kpisCache:          freecache.NewCache(kpisCacheSize),
	}

	if m.metricsManager == nil {
		m.metricsManager = metrics.NewTestManager()
	}
	if m.analyticsFreshness <= 0 {
		m.analyticsFreshness = DefaultAnalyticsFreshness
	}
	if m.kpisCacheTTL <= 0 {
		m.kpisCacheTTL = DefaultKPIsCacheTTL
	}
	if m.redirectDelay <= 0 {
		m.redirectDelay = DefaultRedirectDelay
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newUserID == nil {
		m.newUserID = func() string {
			return "user_" + uuid.NewString()
		}
	}

	return m
}

func (m *Machine) profile(profileID string) *session.Profile {
	return session.NewProfile(m.store, profileID)
}

// State returns the persisted session of a profile.
func (m *Machine) State(ctx context.Context, profileID string) (*session.SessionState, error) {
	unlock := m.locks.Lock(profileID)
	defer unlock()
	return m.profile(profileID).Snapshot(ctx)
}

// Navigate resolves a navigation request to the screen to render. A payment
// success marker in the query marks the session as paid before routing.
func (m *Machine) Navigate(ctx context.Context, profileID string, nav Navigation) (_ *Decision, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "flow.navigate")
	span.SetAttributes(attribute.String("requested", string(nav.Screen)))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if nav.Screen.IsOAuthCallback() {
		return m.handleOAuthCallback(ctx, profileID, nav)
	}

	unlock := m.locks.Lock(profileID)
	defer unlock()

	profile := m.profile(profileID)
	if IsPaymentSuccess(nav.Query) {
		if _, err := m.markPaid(ctx, profile, PaymentSourceQuery); err != nil {
			return nil, err
		}
	}

	return m.decide(ctx, profile, nav.Screen)
}

// decide must be called with the profile lock held.
func (m *Machine) decide(ctx context.Context, profile *session.Profile, requested Screen) (*Decision, error) {
	state, err := profile.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	decision := &Decision{
		Requested: requested,
		Screen:    Route(state, requested),
	}
	if decision.Screen == ScreenOnboarding {
		decision.Transcript = state.Transcript
	}

	m.countDecision(decision)
	if decision.Screen != requested {
		log.Debugf("profile [%s]: requested [%s], routed to [%s]", profile.ID(), requested, decision.Screen)
	}

	return decision, nil
}

func (m *Machine) countDecision(d *Decision) {
	m.metricsManager.CounterRouteDecisions.WithLabelValues(string(d.Requested), string(d.Screen)).Inc()
}

// ensureUserID returns the user id of the profile, generating and
// persisting one first if absent. Must be called with the profile lock held.
func (m *Machine) ensureUserID(ctx context.Context, profile *session.Profile) (string, error) {
	userID, err := profile.UserID(ctx)
	if err != nil {
		return "", fmt.Errorf("read user id: %w", err)
	}
	if userID != "" {
		return userID, nil
	}

	userID = m.newUserID()
	if err := profile.SetUserID(ctx, userID); err != nil {
		return "", fmt.Errorf("persist user id: %w", err)
	}
	log.Debugf("profile [%s]: new user id [%s]", profile.ID(), userID)

	return userID, nil
}

// requireUserID must be called with the profile lock held.
func requireUserID(ctx context.Context, profile *session.Profile) (string, error) {
	userID, err := profile.UserID(ctx)
	if err != nil {
		return "", fmt.Errorf("read user id: %w", err)
	}
	if userID == "" {
		return "", ErrNoUserID
	}
	return userID, nil
}

// checkCurrent verifies that the profile still belongs to the user id a
// request was issued for. Must be called with the profile lock held.
func (m *Machine) checkCurrent(ctx context.Context, profile *session.Profile, issuedFor string) error {
	userID, err := profile.UserID(ctx)
	if err != nil {
		return fmt.Errorf("read user id: %w", err)
	}
	if userID != issuedFor {
		m.metricsManager.CounterStaleResponses.Inc()
		log.Warnf("profile [%s]: response for user [%s] discarded, current user [%s]", profile.ID(), issuedFor, userID)
		return ErrStaleResponse
	}
	return nil
}

func backendErr(err error) error {
	return fmt.Errorf("%w: %w", ErrBackend, err)
}
