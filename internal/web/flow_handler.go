package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/2beens/easyathlete/internal/backend"
	"github.com/2beens/easyathlete/internal/flow"
	"github.com/2beens/easyathlete/internal/session"
)

const defaultKPIsDays = 28

type flowMachine interface {
	State(ctx context.Context, profileID string) (*session.SessionState, error)
	Navigate(ctx context.Context, profileID string, nav flow.Navigation) (*flow.Decision, error)
	SubmitUtterance(ctx context.Context, profileID, utterance string) (*flow.TurnResult, error)
	ConfirmPayment(ctx context.Context, profileID, message string) (bool, error)
	BypassPayment(ctx context.Context, profileID, secret string) (bool, error)
	Signup(ctx context.Context, profileID string, input flow.SignupInput) (*flow.Decision, error)
	Login(ctx context.Context, profileID, email, password string) (*flow.Decision, error)
	Revoke(ctx context.Context, profileID string) (*flow.RevokeResult, error)
	ConnectURL(ctx context.Context, profileID string) (string, error)
	SyncActivities(ctx context.Context, profileID string) (*backend.FetchActivitiesResult, error)
	GenerateSchedule(ctx context.Context, profileID string) (*flow.ScheduleResult, error)
	Schedule(ctx context.Context, profileID string) (*flow.ScheduleResult, error)
	Analytics(ctx context.Context, profileID string) (*flow.AnalyticsResult, error)
	KPIs(ctx context.Context, profileID string, days int, activityType string) (json.RawMessage, error)
	Progress(ctx context.Context, profileID, activityType string) (json.RawMessage, error)
}

type FlowHandler struct {
	machine flowMachine
}

func NewFlowHandler(machine flowMachine) *FlowHandler {
	return &FlowHandler{
		machine: machine,
	}
}

// stateView is the session as exposed to the presentation layer; tokens
// are reduced to flags.
type stateView struct {
	UserID           string            `json:"userId,omitempty"`
	Transcript       []session.Message `json:"transcript,omitempty"`
	OnboardingDone   bool              `json:"onboardingDone"`
	HasPaid          bool              `json:"hasPaid"`
	StravaConnected  bool              `json:"stravaConnected"`
	LoggedIn         bool              `json:"loggedIn"`
	StravaID         string            `json:"stravaId,omitempty"`
	HasSchedule      bool              `json:"hasSchedule"`
	AnalyticsFetched int64             `json:"analyticsFetchedAtEpochMs,omitempty"`
}

func newStateView(state *session.SessionState) stateView {
	view := stateView{
		UserID:          state.UserID,
		Transcript:      state.Transcript,
		OnboardingDone:  state.Answers != nil,
		HasPaid:         state.HasPaid,
		StravaConnected: state.ServiceToken != "",
		LoggedIn:        state.AuthToken != "",
		StravaID:        state.StravaID,
		HasSchedule:     len(state.Schedule) > 0,
	}
	if state.CachedAnalytics != nil {
		view.AnalyticsFetched = state.CachedAnalytics.FetchedAtEpochMs
	}
	return view
}

func (h *FlowHandler) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := h.machine.State(r.Context(), ProfileIDFromContext(r.Context()))
	if err != nil {
		respond(w, r, nil, err)
		return
	}
	respond(w, r, newStateView(state), nil)
}

func (h *FlowHandler) handleNavigate(w http.ResponseWriter, r *http.Request) {
	screen, ok := flow.ParseScreen(mux.Vars(r)["screen"])
	if !ok {
		respond(w, r, nil, fmt.Errorf("%w: unknown screen [%s]", flow.ErrInvalidInput, mux.Vars(r)["screen"]))
		return
	}

	decision, err := h.machine.Navigate(r.Context(), ProfileIDFromContext(r.Context()), flow.Navigation{
		Screen: screen,
		Query:  r.URL.Query(),
	})
	respond(w, r, decision, err)
}

type turnRequest struct {
	Message string `json:"message"`
}

func (h *FlowHandler) handleOnboardingTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := decodeBody(r, &req); err != nil {
		respond(w, r, nil, err)
		return
	}

	result, err := h.machine.SubmitUtterance(r.Context(), ProfileIDFromContext(r.Context()), req.Message)
	respond(w, r, result, err)
}

type paymentRequest struct {
	Message string `json:"message"`
	Secret  string `json:"secret"`
}

type paymentResponse struct {
	HasPaid bool `json:"hasPaid"`
	Changed bool `json:"changed"`
}

func (h *FlowHandler) handlePaymentConfirm(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeBody(r, &req); err != nil {
		respond(w, r, nil, err)
		return
	}

	changed, err := h.machine.ConfirmPayment(r.Context(), ProfileIDFromContext(r.Context()), req.Message)
	if err != nil {
		respond(w, r, nil, err)
		return
	}
	respond(w, r, paymentResponse{HasPaid: true, Changed: changed}, nil)
}

func (h *FlowHandler) handlePaymentBypass(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeBody(r, &req); err != nil {
		respond(w, r, nil, err)
		return
	}

	changed, err := h.machine.BypassPayment(r.Context(), ProfileIDFromContext(r.Context()), req.Secret)
	if err != nil {
		respond(w, r, nil, err)
		return
	}
	respond(w, r, paymentResponse{HasPaid: true, Changed: changed}, nil)
}

func (h *FlowHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var input flow.SignupInput
	if err := decodeBody(r, &input); err != nil {
		respond(w, r, nil, err)
		return
	}

	decision, err := h.machine.Signup(r.Context(), ProfileIDFromContext(r.Context()), input)
	respond(w, r, decision, err)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *FlowHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respond(w, r, nil, err)
		return
	}

	decision, err := h.machine.Login(r.Context(), ProfileIDFromContext(r.Context()), req.Email, req.Password)
	respond(w, r, decision, err)
}

func (h *FlowHandler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	result, err := h.machine.Revoke(r.Context(), ProfileIDFromContext(r.Context()))
	respond(w, r, result, err)
}

type urlResponse struct {
	URL string `json:"url"`
}

func (h *FlowHandler) handleConnectURL(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.machine.ConnectURL(r.Context(), ProfileIDFromContext(r.Context()))
	if err != nil {
		respond(w, r, nil, err)
		return
	}
	respond(w, r, urlResponse{URL: authURL}, nil)
}

func (h *FlowHandler) handleSyncActivities(w http.ResponseWriter, r *http.Request) {
	result, err := h.machine.SyncActivities(r.Context(), ProfileIDFromContext(r.Context()))
	respond(w, r, result, err)
}

func (h *FlowHandler) handleGenerateSchedule(w http.ResponseWriter, r *http.Request) {
	result, err := h.machine.GenerateSchedule(r.Context(), ProfileIDFromContext(r.Context()))
	respond(w, r, result, err)
}

func (h *FlowHandler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	result, err := h.machine.Schedule(r.Context(), ProfileIDFromContext(r.Context()))
	respond(w, r, result, err)
}

func (h *FlowHandler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	result, err := h.machine.Analytics(r.Context(), ProfileIDFromContext(r.Context()))
	respond(w, r, result, err)
}

func (h *FlowHandler) handleKPIs(w http.ResponseWriter, r *http.Request) {
	days := defaultKPIsDays
	if daysParam := r.URL.Query().Get("days"); daysParam != "" {
		parsed, err := strconv.Atoi(daysParam)
		if err != nil {
			respond(w, r, nil, fmt.Errorf("%w: days NaN", flow.ErrInvalidInput))
			return
		}
		days = parsed
	}

	kpis, err := h.machine.KPIs(r.Context(), ProfileIDFromContext(r.Context()), days, r.URL.Query().Get("type"))
	respond(w, r, kpis, err)
}

func (h *FlowHandler) handleProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.machine.Progress(r.Context(), ProfileIDFromContext(r.Context()), r.URL.Query().Get("type"))
	respond(w, r, progress, err)
}
