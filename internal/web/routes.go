package web

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/2beens/easyathlete/internal/middleware"
	"github.com/2beens/easyathlete/pkg"
)

type RoutesParams struct {
	Router       *mux.Router
	FlowHandler  *FlowHandler
	AdminHandler *AdminHandler
	AdminAuth    *middleware.AdminAuthHandler
	// LoginRateLimit wraps the signup and login routes; nil disables it.
	LoginRateLimit mux.MiddlewareFunc
	SecureCookies  bool
}

// SetupRoutes registers the presentation API and the admin API.
func SetupRoutes(params RoutesParams) {
	flowRouter := params.Router.PathPrefix("/flow").Subrouter()
	flowRouter.Use(ProfileCookie(params.SecureCookies))

	h := params.FlowHandler
	flowRouter.HandleFunc("/state", h.handleState).Methods("GET", "OPTIONS").Name("flow-state")
	flowRouter.HandleFunc("/navigate/{screen}", h.handleNavigate).Methods("GET", "OPTIONS").Name("flow-navigate")
	flowRouter.HandleFunc("/onboarding/turn", h.handleOnboardingTurn).Methods("POST", "OPTIONS").Name("flow-onboarding-turn")
	flowRouter.HandleFunc("/payment/confirm", h.handlePaymentConfirm).Methods("POST", "OPTIONS").Name("flow-payment-confirm")
	flowRouter.HandleFunc("/payment/bypass", h.handlePaymentBypass).Methods("POST", "OPTIONS").Name("flow-payment-bypass")
	flowRouter.HandleFunc("/revoke", h.handleRevoke).Methods("POST", "OPTIONS").Name("flow-revoke")
	flowRouter.HandleFunc("/connect/url", h.handleConnectURL).Methods("GET", "OPTIONS").Name("flow-connect-url")
	flowRouter.HandleFunc("/activities/sync", h.handleSyncActivities).Methods("POST", "OPTIONS").Name("flow-activities-sync")
	flowRouter.HandleFunc("/schedule/generate", h.handleGenerateSchedule).Methods("POST", "OPTIONS").Name("flow-schedule-generate")
	flowRouter.HandleFunc("/schedule", h.handleSchedule).Methods("GET", "OPTIONS").Name("flow-schedule")
	flowRouter.HandleFunc("/analytics", h.handleAnalytics).Methods("GET", "OPTIONS").Name("flow-analytics")
	flowRouter.HandleFunc("/insights/kpis", h.handleKPIs).Methods("GET", "OPTIONS").Name("flow-kpis")
	flowRouter.HandleFunc("/progress", h.handleProgress).Methods("GET", "OPTIONS").Name("flow-progress")

	authRouter := flowRouter.PathPrefix("/auth").Subrouter()
	if params.LoginRateLimit != nil {
		authRouter.Use(params.LoginRateLimit)
	}
	authRouter.HandleFunc("/signup", h.handleSignup).Methods("POST", "OPTIONS").Name("flow-signup")
	authRouter.HandleFunc("/login", h.handleLogin).Methods("POST", "OPTIONS").Name("flow-login")

	if params.AdminHandler == nil || params.AdminAuth == nil {
		return
	}
	adminRouter := params.Router.PathPrefix("/admin").Subrouter()
	adminRouter.Use(params.AdminAuth.AuthCheck())
	adminRouter.HandleFunc("/strava/{userId}/refresh", params.AdminHandler.handleRefreshActivities).Methods("POST", "OPTIONS").Name("admin-strava-refresh")
	adminRouter.HandleFunc("/strava/{userId}/connect", params.AdminHandler.handleConnectURL).Methods("GET", "OPTIONS").Name("admin-strava-connect")
}

func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "ok")
}
