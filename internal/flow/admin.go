package flow

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/easyathlete/internal/backend"
	"github.com/2beens/easyathlete/internal/telemetry/tracing"
)

// AdminSecretValid reports whether secret matches the configured admin
// secret hash.
func (m *Machine) AdminSecretValid(secret string) bool {
	return m.adminSecretValid(secret)
}

// AdminRefreshActivities refreshes the Strava token of any user and
// re-imports their activities. It bypasses the session store.
func (m *Machine) AdminRefreshActivities(ctx context.Context, userID string) (_ *backend.FetchActivitiesResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "flow.admin.refreshActivities")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}

	token, err := m.backend.RefreshStravaToken(ctx, userID)
	if err != nil {
		return nil, backendErr(err)
	}
	result, err := m.backend.FetchActivities(ctx, token, userID)
	if err != nil {
		return nil, backendErr(err)
	}

	log.Infof("admin: refreshed activities of user [%s]", userID)
	return result, nil
}

// AdminConnectURL returns a Strava authorize URL issued on behalf of userID.
func (m *Machine) AdminConnectURL(ctx context.Context, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", ErrInvalidInput
	}

	authURL, err := m.backend.AdminInitiateStrava(ctx, userID)
	if err != nil {
		return "", backendErr(err)
	}
	return authURL, nil
}
