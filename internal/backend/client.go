package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/easyathlete/internal/session"
	"github.com/2beens/easyathlete/internal/telemetry/metrics"
	"github.com/2beens/easyathlete/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	endpointOnboardingBot       = "onboarding-bot"
	endpointUploadOnboarding    = "upload-onboarding"
	endpointSignup              = "signup-with-data"
	endpointLogin               = "login"
	endpointDeleteAccount       = "delete-account"
	endpointStravaExchange      = "strava-exchange"
	endpointFetchActivities     = "strava-fetch-activities"
	endpointAIPrompt            = "ai-prompt"
	endpointGenerateSchedule    = "generate-training-schedule"
	endpointLatestStravaURL     = "latest-strava-url"
	endpointAnalyticsPayload    = "analytics-payload"
	endpointKPIs                = "insights-kpis"
	endpointStravaRefreshToken  = "strava-refresh-token"
	endpointStravaAdminInitiate = "strava-admin-initiate"
	endpointProgress            = "ml-progress"
)

const maxResponseBytes = 16 << 20

// Client talks to the external coaching backend. Calls are never retried;
// a failed call is surfaced and repeated only on explicit resubmission.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	metricsManager *metrics.Manager
}

type NewClientParams struct {
	BaseURL        string
	HTTPClient     *http.Client
	MetricsManager *metrics.Manager
}

func NewClient(params NewClientParams) *Client {
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:        strings.TrimRight(params.BaseURL, "/"),
		httpClient:     httpClient,
		metricsManager: params.MetricsManager,
	}
}

func (c *Client) OnboardingTurn(ctx context.Context, userID string, conversation []session.Message) (*OnboardingReply, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidArgument)
	}

	var reply OnboardingReply
	if err := c.call(ctx, endpointOnboardingBot, http.MethodPost, c.baseURL+"/onboarding-bot",
		onboardingTurnRequest{UserID: userID, Conversation: conversation}, &reply,
	); err != nil {
		return nil, err
	}
	if err := reply.validate(); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *Client) UploadOnboarding(ctx context.Context, userID string, answers *session.Answers) error {
	if userID == "" || answers == nil {
		return fmt.Errorf("%w: user id and onboarding data required", ErrInvalidArgument)
	}
	return c.call(ctx, endpointUploadOnboarding, http.MethodPost, c.baseURL+"/upload-onboarding",
		uploadOnboardingRequest{UserID: userID, OnboardingData: answers}, nil,
	)
}

func (c *Client) SignupWithData(ctx context.Context, req SignupRequest) (*AuthResult, error) {
	if req.Email == "" || req.Password == "" || req.UserID == "" {
		return nil, fmt.Errorf("%w: email, password and user id required", ErrInvalidArgument)
	}

	var res AuthResult
	if err := c.call(ctx, endpointSignup, http.MethodPost, c.baseURL+"/auth/signup-with-data", req, &res); err != nil {
		return nil, err
	}
	if err := res.validate(endpointSignup); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrInvalidArgument)
	}

	var res AuthResult
	if err := c.call(ctx, endpointLogin, http.MethodPost, c.baseURL+"/auth/login",
		loginRequest{Email: email, Password: password}, &res,
	); err != nil {
		return nil, err
	}
	if err := res.validate(endpointLogin); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) DeleteAccount(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", ErrInvalidArgument)
	}
	return c.call(ctx, endpointDeleteAccount, http.MethodDelete, c.baseURL+"/auth/"+url.PathEscape(userID), nil, nil)
}

func (c *Client) ExchangeStravaCode(ctx context.Context, code, userID string) (string, error) {
	if code == "" || userID == "" {
		return "", fmt.Errorf("%w: code and user id required", ErrInvalidArgument)
	}

	var res exchangeResponse
	if err := c.call(ctx, endpointStravaExchange, http.MethodPost, c.baseURL+"/strava/exchange",
		exchangeRequest{Code: code, UserID: userID}, &res,
	); err != nil {
		return "", err
	}
	if res.AccessToken == "" {
		return "", invalidResponse(endpointStravaExchange, "missing access_token")
	}
	return res.AccessToken, nil
}

func (c *Client) FetchActivities(ctx context.Context, accessToken, userID string) (*FetchActivitiesResult, error) {
	if accessToken == "" || userID == "" {
		return nil, fmt.Errorf("%w: access token and user id required", ErrInvalidArgument)
	}

	var res FetchActivitiesResult
	if err := c.call(ctx, endpointFetchActivities, http.MethodPost, c.baseURL+"/strava/fetch-activities",
		fetchActivitiesRequest{AccessToken: accessToken, UserID: userID}, &res,
	); err != nil {
		return nil, err
	}
	if res.Count != nil && *res.Count < 0 {
		return nil, invalidResponse(endpointFetchActivities, "negative count")
	}
	return &res, nil
}

// Schedule returns the latest generated schedule of the user.
func (c *Client) Schedule(ctx context.Context, userID string) (json.RawMessage, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidArgument)
	}

	var res scheduleResponse
	if err := c.call(ctx, endpointAIPrompt, http.MethodGet, c.baseURL+"/ai-prompt/"+url.PathEscape(userID), nil, &res); err != nil {
		return nil, err
	}
	if err := res.validate(endpointAIPrompt); err != nil {
		return nil, err
	}
	return res.Schedule, nil
}

func (c *Client) GenerateSchedule(ctx context.Context, userID string, athleteData *session.Answers) (json.RawMessage, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidArgument)
	}

	var res scheduleResponse
	if err := c.call(ctx, endpointGenerateSchedule, http.MethodPost, c.baseURL+"/generate-training-schedule",
		generateScheduleRequest{UserID: userID, AthleteData: athleteData}, &res,
	); err != nil {
		return nil, err
	}
	if err := res.validate(endpointGenerateSchedule); err != nil {
		return nil, err
	}
	return res.Schedule, nil
}

// LatestAnalyticsURL returns the pointer to the user's latest cached
// analytics payload.
func (c *Client) LatestAnalyticsURL(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: empty user id", ErrInvalidArgument)
	}

	var res latestURLResponse
	if err := c.call(ctx, endpointLatestStravaURL, http.MethodGet, c.baseURL+"/latest-strava-url/"+url.PathEscape(userID), nil, &res); err != nil {
		return "", err
	}
	if err := res.validate(); err != nil {
		return "", err
	}
	return res.URL, nil
}

// AnalyticsPayload follows the pointer returned by LatestAnalyticsURL and
// returns the JSON document as received.
func (c *Client) AnalyticsPayload(ctx context.Context, payloadURL string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.call(ctx, endpointAnalyticsPayload, http.MethodGet, payloadURL, nil, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, invalidResponse(endpointAnalyticsPayload, "empty payload")
	}
	return raw, nil
}

// KPIs returns the insights KPI record for the last days of activityType.
func (c *Client) KPIs(ctx context.Context, userID string, days int, activityType string) (json.RawMessage, error) {
	if userID == "" || days <= 0 {
		return nil, fmt.Errorf("%w: user id and positive days required", ErrInvalidArgument)
	}

	query := url.Values{}
	query.Set("days", strconv.Itoa(days))
	if activityType != "" {
		query.Set("type", activityType)
	}
	reqURL := c.baseURL + "/insights/kpis/" + url.PathEscape(userID) + "?" + query.Encode()

	var raw json.RawMessage
	if err := c.call(ctx, endpointKPIs, http.MethodGet, reqURL, nil, &raw); err != nil {
		return nil, err
	}
	if !isJSONObject(raw) {
		return nil, invalidResponse(endpointKPIs, "kpis must be an object")
	}
	return raw, nil
}

func (c *Client) RefreshStravaToken(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: empty user id", ErrInvalidArgument)
	}

	var res refreshTokenResponse
	if err := c.call(ctx, endpointStravaRefreshToken, http.MethodPost, c.baseURL+"/strava/refresh-token",
		userIDRequest{UserID: userID}, &res,
	); err != nil {
		return "", err
	}
	if res.AccessToken == "" {
		return "", invalidResponse(endpointStravaRefreshToken, "missing accessToken")
	}
	return res.AccessToken, nil
}

// AdminInitiateStrava asks the backend for an authorize URL that links the
// Strava account to userID on the backend side.
// AdminRedirectURL is where the browser finishes an operator initiated
// Strava connect. The backend exchanges the code for the user in state.
func (c *Client) AdminRedirectURL(code, state string) string {
	query := url.Values{}
	query.Set("code", code)
	query.Set("state", state)
	return c.baseURL + "/strava/admin-redirect?" + query.Encode()
}

func (c *Client) AdminInitiateStrava(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: empty user id", ErrInvalidArgument)
	}

	var res adminInitiateResponse
	if err := c.call(ctx, endpointStravaAdminInitiate, http.MethodPost, c.baseURL+"/strava/auth/admin-initiate",
		userIDRequest{UserID: userID}, &res,
	); err != nil {
		return "", err
	}
	if _, err := url.ParseRequestURI(res.AuthURL); err != nil {
		return "", invalidResponse(endpointStravaAdminInitiate, "missing or malformed authUrl")
	}
	return res.AuthURL, nil
}

func (c *Client) ProgressTrends(ctx context.Context, userID, activityType string) (json.RawMessage, error) {
	if userID == "" || activityType == "" {
		return nil, fmt.Errorf("%w: user id and activity type required", ErrInvalidArgument)
	}

	var res progressResponse
	if err := c.call(ctx, endpointProgress, http.MethodPost, c.baseURL+"/ml/progress",
		progressRequest{UserID: userID, ActivityType: activityType}, &res,
	); err != nil {
		return nil, err
	}
	if len(res.Trends) == 0 || bytes.Equal(res.Trends, []byte("null")) {
		return nil, invalidResponse(endpointProgress, "missing trends")
	}
	return res.Trends, nil
}

// call performs one request. reqBody is JSON encoded when not nil; the
// response is decoded into respBody when not nil.
func (c *Client) call(ctx context.Context, endpoint, method, reqURL string, reqBody, respBody any) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "backend."+endpoint)
	span.SetAttributes(attribute.String("http.method", method))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	start := time.Now()
	defer func() {
		c.observe(endpoint, start, err)
	}()

	var body io.Reader
	if reqBody != nil {
		payload, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", endpoint, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warnf("close %s response body: %s", endpoint, closeErr)
		}
	}()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", endpoint, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(endpoint, resp.StatusCode, respBytes)
	}

	if respBody == nil {
		return nil
	}
	if err := json.Unmarshal(respBytes, respBody); err != nil {
		return fmt.Errorf("%w: %s: %s", ErrInvalidResponse, endpoint, err)
	}
	return nil
}

func (c *Client) observe(endpoint string, start time.Time, err error) {
	if c.metricsManager == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		log.Debugf("backend call [%s] failed: %s", endpoint, err)
	}
	c.metricsManager.CounterBackendCalls.WithLabelValues(endpoint, outcome).Inc()
	c.metricsManager.HistogramBackendDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 1 && trimmed[0] == '{' && json.Valid(trimmed)
}
