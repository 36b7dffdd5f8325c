package flow

import "errors"

var (
	ErrEmptyUtterance       = errors.New("empty utterance")
	ErrNoUserID             = errors.New("no user id, onboarding not started")
	ErrNoAnswers            = errors.New("onboarding not finished")
	ErrPaymentRequired      = errors.New("payment required")
	ErrNotConnected         = errors.New("strava account not connected")
	ErrUnknownPaymentSignal = errors.New("unrecognized payment signal")
	ErrForbidden            = errors.New("forbidden")
	ErrConnectNotConfigured = errors.New("strava connect not configured")
	ErrInvalidInput         = errors.New("invalid input")
	// ErrBackend wraps every failure of the external backend.
	ErrBackend = errors.New("backend error")
	// ErrStaleResponse is returned when a backend reply arrived after the
	// session identity changed; its effects were discarded.
	ErrStaleResponse = errors.New("stale response discarded")
)

// IsValidation reports whether err is a precondition failure that is
// resolved by re-routing to an earlier screen.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrEmptyUtterance,
		ErrNoUserID,
		ErrNoAnswers,
		ErrPaymentRequired,
		ErrNotConnected,
		ErrUnknownPaymentSignal,
		ErrInvalidInput,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
