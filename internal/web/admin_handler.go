package web

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/2beens/easyathlete/internal/backend"
)

type adminMachine interface {
	AdminRefreshActivities(ctx context.Context, userID string) (*backend.FetchActivitiesResult, error)
	AdminConnectURL(ctx context.Context, userID string) (string, error)
}

// AdminHandler serves operator endpoints acting on any user id. Routes are
// expected behind middleware.AdminAuthHandler.
type AdminHandler struct {
	machine adminMachine
}

func NewAdminHandler(machine adminMachine) *AdminHandler {
	return &AdminHandler{
		machine: machine,
	}
}

func (h *AdminHandler) handleRefreshActivities(w http.ResponseWriter, r *http.Request) {
	result, err := h.machine.AdminRefreshActivities(r.Context(), mux.Vars(r)["userId"])
	respond(w, r, result, err)
}

func (h *AdminHandler) handleConnectURL(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.machine.AdminConnectURL(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond(w, r, nil, err)
		return
	}
	respond(w, r, urlResponse{URL: authURL}, nil)
}
