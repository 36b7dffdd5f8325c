package flow

import (
	"net/url"
	"time"

	"github.com/2beens/easyathlete/internal/session"
)

// Navigation is a request to show a screen, with the query of the page URL.
type Navigation struct {
	Screen Screen
	Query  url.Values
}

// Decision is the screen the presentation layer must render.
type Decision struct {
	Requested Screen `json:"requested"`
	Screen    Screen `json:"screen"`
	Status    string `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
	// RedirectTo is set when Screen only shows a status before moving on.
	RedirectTo      Screen `json:"redirectTo,omitempty"`
	RedirectAfterMs int64  `json:"redirectAfterMs,omitempty"`
	// ExternalURL is a page outside the app the browser must load.
	ExternalURL string `json:"externalUrl,omitempty"`
	// Transcript re-hydrates a resumed onboarding conversation.
	Transcript []session.Message `json:"transcript,omitempty"`
}

func (d *Decision) redirect(to Screen, after time.Duration) *Decision {
	d.RedirectTo = to
	d.RedirectAfterMs = after.Milliseconds()
	return d
}

// Route applies the entry rules to a persisted state, first match wins:
//  1. OAuth callbacks are handled by the code exchange and pass through here
//  2. cold start (no user id, no transcript) goes to Onboarding
//  3. no finalized answers goes to Onboarding to resume the conversation
//  4. unpaid requests for schedule screens go to Paywall
//  5. anything else is allowed verbatim
//
// Login is reachable at any time so a returning user on a fresh browser
// can sign in.
func Route(state *session.SessionState, requested Screen) Screen {
	switch {
	case requested.IsOAuthCallback():
		return requested
	case requested == ScreenLogin:
		return ScreenLogin
	case state.UserID == "" && !state.TranscriptStarted():
		return ScreenOnboarding
	case state.Answers == nil:
		return ScreenOnboarding
	case !state.HasPaid && requested.ProducesSchedule():
		return ScreenPaywall
	default:
		return requested
	}
}
