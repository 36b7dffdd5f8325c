package flow

import "strings"

// Screen identifies what the presentation layer should render.
type Screen string

const (
	ScreenOnboarding         Screen = "Onboarding"
	ScreenSignupPrompt       Screen = "SignupPrompt"
	ScreenConnectAccounts    Screen = "ConnectAccounts"
	ScreenGeneratingSchedule Screen = "GeneratingSchedule"
	ScreenSchedule           Screen = "Schedule"
	ScreenInsights           Screen = "Insights"
	ScreenDashboard          Screen = "Dashboard"
	ScreenPaywall            Screen = "Paywall"
	ScreenLogin              Screen = "Login"
	ScreenAdminRedirect      Screen = "AdminRedirect"
	ScreenOAuthCallback      Screen = "OAuthCallback"
)

var allScreens = []Screen{
	ScreenOnboarding,
	ScreenSignupPrompt,
	ScreenConnectAccounts,
	ScreenGeneratingSchedule,
	ScreenSchedule,
	ScreenInsights,
	ScreenDashboard,
	ScreenPaywall,
	ScreenLogin,
	ScreenAdminRedirect,
	ScreenOAuthCallback,
}

// ParseScreen matches s case-insensitively, also accepting the kebab-case
// route names used by the front-end (e.g. "strava-redirect").
func ParseScreen(s string) (Screen, bool) {
	normalized := strings.ReplaceAll(strings.TrimSpace(s), "-", "")
	switch strings.ToLower(normalized) {
	case "stravaredirect":
		return ScreenOAuthCallback, true
	case "stravaadminredirect":
		return ScreenAdminRedirect, true
	}
	for _, screen := range allScreens {
		if strings.EqualFold(string(screen), normalized) {
			return screen, true
		}
	}
	return "", false
}

// IsOAuthCallback reports whether the screen is an OAuth redirect target.
func (s Screen) IsOAuthCallback() bool {
	return s == ScreenOAuthCallback || s == ScreenAdminRedirect
}

// ProducesSchedule reports whether reaching the screen requires payment.
func (s Screen) ProducesSchedule() bool {
	return s == ScreenSchedule || s == ScreenGeneratingSchedule
}
