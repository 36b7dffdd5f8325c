package flow

import (
	"context"
	"slices"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/easyathlete/internal/session"
	"github.com/2beens/easyathlete/internal/telemetry/tracing"
)

// TurnResult is the outcome of one onboarding chat turn.
type TurnResult struct {
	Reply    string    `json:"reply"`
	Finished bool      `json:"finished"`
	Decision *Decision `json:"decision"`
}

// SubmitUtterance sends the user's message together with the transcript so
// far to the onboarding assistant. On an unfinished reply both messages are
// appended to the transcript. On a finished reply the conversation becomes
// the onboarding answers, the transcript is cleared and the flow moves on.
// The store is left untouched when the backend fails.
func (m *Machine) SubmitUtterance(ctx context.Context, profileID, utterance string) (_ *TurnResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "flow.onboardingTurn")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		m.countTurn("empty")
		return nil, ErrEmptyUtterance
	}

	profile := m.profile(profileID)

	unlock := m.locks.Lock(profileID)
	userID, err := m.ensureUserID(ctx, profile)
	if err != nil {
		unlock()
		return nil, err
	}
	transcript, err := profile.Transcript(ctx)
	unlock()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.Int("transcript.len", len(transcript)),
	)

	conversation := append(slices.Clone(transcript), session.Message{
		Role:    session.RoleUser,
		Content: utterance,
	})
	reply, err := m.backend.OnboardingTurn(ctx, userID, conversation)
	if err != nil {
		m.countTurn("backend_error")
		log.Errorf("profile [%s]: onboarding turn: %s", profileID, err)
		return nil, backendErr(err)
	}
	if reply.Reply != "" {
		conversation = append(conversation, session.Message{
			Role:    session.RoleAssistant,
			Content: reply.Reply,
		})
	}

	var answers *session.Answers
	if reply.Finished {
		answers = &session.Answers{
			Transcript:  conversation,
			CompletedAt: m.now().UTC(),
		}
		if err := m.backend.UploadOnboarding(ctx, userID, answers); err != nil {
			m.countTurn("backend_error")
			log.Errorf("profile [%s]: upload onboarding: %s", profileID, err)
			return nil, backendErr(err)
		}
	}

	unlock = m.locks.Lock(profileID)
	defer unlock()

	if err := m.checkCurrent(ctx, profile, userID); err != nil {
		m.countTurn("stale")
		return nil, err
	}
	current, err := profile.Transcript(ctx)
	if err != nil {
		return nil, err
	}
	if len(current) != len(transcript) {
		m.metricsManager.CounterStaleResponses.Inc()
		m.countTurn("stale")
		log.Warnf("profile [%s]: transcript changed during onboarding turn, reply discarded", profileID)
		return nil, ErrStaleResponse
	}

	if !reply.Finished {
		if err := profile.SetTranscript(ctx, conversation); err != nil {
			return nil, err
		}
		m.countTurn("continued")
		return &TurnResult{
			Reply: reply.Reply,
			Decision: &Decision{
				Requested:  ScreenOnboarding,
				Screen:     ScreenOnboarding,
				Transcript: conversation,
			},
		}, nil
	}

	if err := profile.SetAnswers(ctx, answers); err != nil {
		return nil, err
	}
	if err := profile.ClearTranscript(ctx); err != nil {
		return nil, err
	}
	m.countTurn("finished")
	log.Debugf("profile [%s]: onboarding finished after %d messages", profileID, len(conversation))

	next := ScreenSignupPrompt
	if m.skipSignup {
		next = ScreenGeneratingSchedule
	}
	decision, err := m.decide(ctx, profile, next)
	if err != nil {
		return nil, err
	}

	return &TurnResult{
		Reply:    reply.Reply,
		Finished: true,
		Decision: decision,
	}, nil
}

func (m *Machine) countTurn(outcome string) {
	m.metricsManager.CounterOnboardingTurns.WithLabelValues(outcome).Inc()
}
