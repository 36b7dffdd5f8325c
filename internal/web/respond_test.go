package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/easyathlete/internal/backend"
	"github.com/2beens/easyathlete/internal/flow"
)

func TestRespond_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		result     any
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "ok",
			result:     map[string]string{"a": "b"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "stale",
			err:        flow.ErrStaleResponse,
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "empty utterance",
			err:        flow.ErrEmptyUtterance,
			wantStatus: http.StatusBadRequest,
			wantError:  flow.ErrEmptyUtterance.Error(),
		},
		{
			name:       "payment required",
			result:     &flow.ScheduleResult{Decision: &flow.Decision{Screen: flow.ScreenPaywall}},
			err:        flow.ErrPaymentRequired,
			wantStatus: http.StatusConflict,
			wantError:  flow.ErrPaymentRequired.Error(),
		},
		{
			name:       "forbidden",
			err:        flow.ErrForbidden,
			wantStatus: http.StatusForbidden,
			wantError:  flow.ErrForbidden.Error(),
		},
		{
			name:       "backend status with message",
			err:        fmt.Errorf("%w: %w", flow.ErrBackend, &backend.StatusError{Endpoint: "login", StatusCode: 401, Message: "Invalid credentials"}),
			wantStatus: http.StatusBadGateway,
			wantError:  "Invalid credentials",
		},
		{
			name:       "backend unreachable",
			err:        fmt.Errorf("%w: %w", flow.ErrBackend, errors.New("dial tcp: connection refused")),
			wantStatus: http.StatusBadGateway,
			wantError:  "server unavailable, please try again",
		},
		{
			name:       "internal",
			err:        errors.New("redis: connection pool timeout"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/flow/test", nil)

			respond(rr, req, tt.result, tt.err)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var body map[string]any
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			switch {
			case tt.wantStatus == http.StatusAccepted:
				assert.Equal(t, true, body["discarded"])
			case tt.wantError != "":
				assert.Equal(t, tt.wantError, body["error"])
				_, hasResult := body["result"]
				assert.Equal(t, tt.result != nil, hasResult)
			}
		})
	}
}

func TestRespond_TypedNilResult(t *testing.T) {
	rr := httptest.NewRecorder()
	var decision *flow.Decision

	respond(rr, httptest.NewRequest(http.MethodGet, "/", nil), decision, flow.ErrNoUserID)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.NotContains(t, rr.Body.String(), "result")
}
