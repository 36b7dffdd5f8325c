package flow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/easyathlete/internal/session"
	"github.com/2beens/easyathlete/internal/telemetry/tracing"
)

type AnalyticsSource string

const (
	AnalyticsSourceCache   AnalyticsSource = "cache"
	AnalyticsSourceNetwork AnalyticsSource = "network"
	// AnalyticsSourceStale is an expired cached payload served because the
	// refresh failed.
	AnalyticsSourceStale AnalyticsSource = "stale"
)

type AnalyticsResult struct {
	Payload          json.RawMessage `json:"payload"`
	FetchedAtEpochMs int64           `json:"fetchedAtEpochMs"`
	Source           AnalyticsSource `json:"source"`
}

// Analytics returns the user's analytics, read through the session cache.
// A cached payload younger than the freshness window is returned without a
// network call. When refreshing fails an expired payload is served instead.
func (m *Machine) Analytics(ctx context.Context, profileID string) (_ *AnalyticsResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "flow.analytics")
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
	cached, err := profile.CachedAnalytics(ctx)
	unlock()
	if err != nil {
		return nil, err
	}
	if cached != nil && !cached.BelongsTo(userID) {
		// fetched for an identity replaced by signup or login
		cached = nil
	}

	if cached.FreshAt(m.now(), m.analyticsFreshness) {
		m.countAnalytics(AnalyticsSourceCache)
		return analyticsResult(cached, AnalyticsSourceCache), nil
	}

	payload, err := m.fetchAnalytics(ctx, userID)
	if err != nil {
		if cached != nil {
			log.Warnf("profile [%s]: refresh analytics failed, serving cache from %s: %s", profileID, cached.FetchedAt(), err)
			m.countAnalytics(AnalyticsSourceStale)
			return analyticsResult(cached, AnalyticsSourceStale), nil
		}
		m.countAnalytics("error")
		return nil, backendErr(err)
	}

	fresh := &session.CachedAnalytics{
		UserID:           userID,
		Payload:          payload,
		FetchedAtEpochMs: m.now().UnixMilli(),
	}

	unlock = m.locks.Lock(profileID)
	defer unlock()

	if err := m.checkCurrent(ctx, profile, userID); err != nil {
		return nil, err
	}
	if err := profile.SetCachedAnalytics(ctx, fresh); err != nil {
		return nil, err
	}

	m.countAnalytics(AnalyticsSourceNetwork)
	return analyticsResult(fresh, AnalyticsSourceNetwork), nil
}

// fetchAnalytics resolves the latest payload url and downloads it. The
// payload is compacted so it reads back byte-identical from the cache.
func (m *Machine) fetchAnalytics(ctx context.Context, userID string) (json.RawMessage, error) {
	payloadURL, err := m.backend.LatestAnalyticsURL(ctx, userID)
	if err != nil {
		return nil, err
	}
	payload, err := m.backend.AnalyticsPayload(ctx, payloadURL)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, payload); err != nil {
		return nil, fmt.Errorf("compact analytics payload: %w", err)
	}
	return buf.Bytes(), nil
}

func (m *Machine) countAnalytics(source AnalyticsSource) {
	m.metricsManager.CounterAnalyticsCache.WithLabelValues(string(source)).Inc()
}

func analyticsResult(cached *session.CachedAnalytics, source AnalyticsSource) *AnalyticsResult {
	return &AnalyticsResult{
		Payload:          cached.Payload,
		FetchedAtEpochMs: cached.FetchedAtEpochMs,
		Source:           source,
	}
}

// KPIs returns the user's key performance indicators over the last days,
// cached in process for a short time.
func (m *Machine) KPIs(ctx context.Context, profileID string, days int, activityType string) (_ json.RawMessage, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "flow.kpis")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if days <= 0 {
		return nil, ErrInvalidInput
	}

	unlock := m.locks.Lock(profileID)
	userID, err := requireUserID(ctx, m.profile(profileID))
	unlock()
	if err != nil {
		return nil, err
	}

	cacheKey := []byte(fmt.Sprintf("%s||%d||%s", userID, days, activityType))
	if cached, err := m.kpisCache.Get(cacheKey); err == nil {
		log.Tracef("kpis for [%s] found in cache", userID)
		return cached, nil
	} else if !errors.Is(err, freecache.ErrNotFound) {
		log.Errorf("kpis cache get: %s", err)
	}

	kpis, err := m.backend.KPIs(ctx, userID, days, activityType)
	if err != nil {
		return nil, backendErr(err)
	}

	if err := m.kpisCache.Set(cacheKey, kpis, int(m.kpisCacheTTL.Seconds())); err != nil {
		log.Errorf("kpis cache set: %s", err)
	}

	return kpis, nil
}

// Progress returns the user's progress trends for an activity type.
func (m *Machine) Progress(ctx context.Context, profileID, activityType string) (_ json.RawMessage, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "flow.progress")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	unlock := m.locks.Lock(profileID)
	userID, err := requireUserID(ctx, m.profile(profileID))
	unlock()
	if err != nil {
		return nil, err
	}

	progress, err := m.backend.ProgressTrends(ctx, userID, activityType)
	if err != nil {
		return nil, backendErr(err)
	}
	return progress, nil
}
