package flow

import (
	"context"
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/easyathlete/internal/backend"
	"github.com/2beens/easyathlete/internal/session"
	"github.com/2beens/easyathlete/internal/telemetry/tracing"
)

type ScheduleResult struct {
	Decision *Decision       `json:"decision"`
	Schedule json.RawMessage `json:"schedule,omitempty"`
}

// GenerateSchedule asks the backend for a training schedule based on the
// onboarding answers. It requires finished onboarding and payment; when a
// precondition fails the result routes to the screen that resolves it.
func (m *Machine) GenerateSchedule(ctx context.Context, profileID string) (_ *ScheduleResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "flow.generateSchedule")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	profile := m.profile(profileID)

	unlock := m.locks.Lock(profileID)
	state, result, err := m.scheduleAllowed(ctx, profile, ScreenGeneratingSchedule)
	unlock()
	if err != nil {
		return result, err
	}

	schedule, err := m.backend.GenerateSchedule(ctx, state.UserID, state.Answers)
	if err != nil {
		log.Errorf("profile [%s]: generate schedule: %s", profileID, err)
		result.Decision.Error = "Could not generate your schedule, please try again"
		return result, backendErr(err)
	}

	unlock = m.locks.Lock(profileID)
	defer unlock()

	if err := m.checkCurrent(ctx, profile, state.UserID); err != nil {
		return nil, err
	}
	if err := profile.SetSchedule(ctx, schedule); err != nil {
		return nil, err
	}

	decision, err := m.decide(ctx, profile, ScreenSchedule)
	if err != nil {
		return nil, err
	}
	return &ScheduleResult{
		Decision: decision,
		Schedule: schedule,
	}, nil
}

// Schedule returns the stored schedule, loading it from the backend when
// none is stored yet. A missing schedule routes to schedule generation.
func (m *Machine) Schedule(ctx context.Context, profileID string) (_ *ScheduleResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "flow.schedule")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	profile := m.profile(profileID)

	unlock := m.locks.Lock(profileID)
	state, result, err := m.scheduleAllowed(ctx, profile, ScreenSchedule)
	unlock()
	if err != nil {
		return result, err
	}
	if len(state.Schedule) > 0 {
		result.Schedule = state.Schedule
		return result, nil
	}

	schedule, err := m.backend.Schedule(ctx, state.UserID)
	if err != nil {
		if backend.IsStatus(err, http.StatusNotFound) {
			result.Decision = &Decision{
				Requested: ScreenSchedule,
				Screen:    ScreenGeneratingSchedule,
			}
			m.countDecision(result.Decision)
			return result, nil
		}
		log.Errorf("profile [%s]: load schedule: %s", profileID, err)
		return result, backendErr(err)
	}

	unlock = m.locks.Lock(profileID)
	defer unlock()

	if err := m.checkCurrent(ctx, profile, state.UserID); err != nil {
		return nil, err
	}
	if err := profile.SetSchedule(ctx, schedule); err != nil {
		return nil, err
	}

	result.Schedule = schedule
	return result, nil
}

// scheduleAllowed routes requested and returns an error when the routing
// did not allow it. Must be called with the profile lock held.
func (m *Machine) scheduleAllowed(ctx context.Context, profile *session.Profile, requested Screen) (*session.SessionState, *ScheduleResult, error) {
	state, err := profile.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}

	decision := &Decision{
		Requested: requested,
		Screen:    Route(state, requested),
	}
	m.countDecision(decision)
	result := &ScheduleResult{Decision: decision}

	switch decision.Screen {
	case requested:
		return state, result, nil
	case ScreenPaywall:
		return state, result, ErrPaymentRequired
	default:
		if state.UserID == "" {
			return state, result, ErrNoUserID
		}
		decision.Transcript = state.Transcript
		return state, result, ErrNoAnswers
	}
}
