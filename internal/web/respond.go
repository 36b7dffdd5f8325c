package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/easyathlete/internal/backend"
	"github.com/2beens/easyathlete/internal/flow"
	"github.com/2beens/easyathlete/pkg"
)

// 1 MB
const maxRequestBodySize = 1 << 20

type errorBody struct {
	Error  string `json:"error"`
	Result any    `json:"result,omitempty"`
}

type discardedBody struct {
	Discarded bool `json:"discarded"`
}

// respond writes result, or maps err to a status code. Results returned
// together with an error carry the screen that resolves it and are
// included in the error body.
func respond(w http.ResponseWriter, r *http.Request, result any, err error) {
	if err == nil {
		pkg.SendJsonResponse(w, http.StatusOK, result)
		return
	}

	if errors.Is(err, flow.ErrStaleResponse) {
		pkg.SendJsonResponse(w, http.StatusAccepted, discardedBody{Discarded: true})
		return
	}

	body := errorBody{Error: err.Error()}
	if !isNil(result) {
		body.Result = result
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("%s %s: %s", r.Method, r.URL.Path, err)
	} else {
		log.Debugf("%s %s: %s", r.Method, r.URL.Path, err)
	}
	if status == http.StatusBadGateway {
		body.Error = backendErrorText(err)
	}
	if status == http.StatusInternalServerError {
		body.Error = "internal error"
	}

	pkg.SendJsonResponse(w, status, body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, flow.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, flow.ErrNoUserID),
		errors.Is(err, flow.ErrNoAnswers),
		errors.Is(err, flow.ErrPaymentRequired),
		errors.Is(err, flow.ErrNotConnected):
		return http.StatusConflict
	case flow.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, flow.ErrConnectNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, flow.ErrBackend):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// backendErrorText is the inline status text shown for a failed backend call.
func backendErrorText(err error) string {
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		return statusErr.Message
	}
	if errors.Is(err, backend.ErrInvalidResponse) {
		return "unexpected response from server"
	}
	return "server unavailable, please try again"
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: empty body", flow.ErrInvalidInput)
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodySize)).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", flow.ErrInvalidInput, err)
	}
	return nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
