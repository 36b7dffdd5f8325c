package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"
	"golang.org/x/oauth2"

	"github.com/2beens/easyathlete/internal/backend"
	"github.com/2beens/easyathlete/internal/config"
	"github.com/2beens/easyathlete/internal/db"
	"github.com/2beens/easyathlete/internal/flow"
	"github.com/2beens/easyathlete/internal/middleware"
	"github.com/2beens/easyathlete/internal/session"
	"github.com/2beens/easyathlete/internal/telemetry/metrics"
	"github.com/2beens/easyathlete/internal/telemetry/tracing"
	"github.com/2beens/easyathlete/internal/web"
)

const stravaAuthURL = "https://www.strava.com/oauth/authorize"

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	store       session.Store
	machine     *flow.Machine
	janitor     *session.Janitor

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	RedisPassword           string
	PostgresPassword        string
	AdminSecretHash         string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	s := &Server{
		config: cfg,
	}

	var extraCollectors []prometheus.Collector
	if cfg.SessionStore == config.SessionStorePostgres {
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBPassword:     params.PostgresPassword,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
		s.dbPool = dbPool
		extraCollectors = append(extraCollectors, pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		))
	}

	s.promRegistry = metrics.SetupPrometheus(extraCollectors...)
	s.metricsManager = metrics.NewManager("easyathlete", "flow", s.promRegistry)
	s.metricsManager.GaugeLifeSignal.Set(0)

	if cfg.RedisHost != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: params.RedisPassword,
			DB:       0, // use default DB
		})
		if params.HoneycombTracingEnabled {
			rdb.AddHook(redisotel.NewTracingHook())
		}

		rdbStatus := rdb.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			log.Errorf("--> failed to ping redis: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}
		s.redisClient = rdb
	}

	storeOpts := []session.StoreOption{
		session.WithSQLitePath(cfg.SQLitePath),
		session.WithTTL(cfg.SessionTTL()),
	}
	if s.redisClient != nil {
		storeOpts = append(storeOpts, session.WithRedisClient(s.redisClient))
	}
	if s.dbPool != nil {
		storeOpts = append(storeOpts, session.WithPostgresPool(s.dbPool))
	}
	store, err := session.NewStore(ctx, session.StoreType(cfg.SessionStore), storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("new session store [%s]: %w", cfg.SessionStore, err)
	}
	s.store = store
	log.Infof("session store: %s", cfg.SessionStore)

	// use honeycomb distro to setup OpenTelemetry SDK
	s.otelShutdown, err = tracing.HoneycombSetup(params.HoneycombTracingEnabled, "easyathlete-flow")
	if err != nil {
		return nil, err
	}

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   cfg.BackendTimeout(),
	}

	var oauthConfig *oauth2.Config
	if cfg.StravaClientID != "" {
		oauthConfig = &oauth2.Config{
			ClientID:    cfg.StravaClientID,
			RedirectURL: cfg.StravaRedirectURI,
			Scopes:      cfg.StravaScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL: stravaAuthURL,
			},
		}
	} else {
		log.Warnln("strava client id not set, connect url disabled")
	}

	s.machine = flow.NewMachine(flow.NewMachineParams{
		Store: store,
		Backend: backend.NewClient(backend.NewClientParams{
			BaseURL:        cfg.BackendURL,
			HTTPClient:     tracedHttpClient,
			MetricsManager: s.metricsManager,
		}),
		MetricsManager:     s.metricsManager,
		OAuthConfig:        oauthConfig,
		AdminSecretHash:    params.AdminSecretHash,
		SkipSignup:         cfg.SkipSignup,
		AnalyticsFreshness: cfg.AnalyticsFreshness(),
		KPIsCacheTTL:       cfg.KPIsCacheTTL(),
		RedirectDelay:      cfg.OAuthRedirectDelay(),
	})

	s.janitor = session.NewJanitor(store, cfg.SessionTTL(), cfg.SessionSweepCron, s.metricsManager)

	return s, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("easyathlete-router"))

	r.HandleFunc("/health", web.HandleHealth).Methods("GET").Name("health")

	var loginRateLimit mux.MiddlewareFunc
	if s.redisClient != nil {
		reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
		loginRateLimit = middleware.RateLimit(reqRateLimiter, s.metricsManager, "login", s.config.LoginRateLimitAllowedPerMin)
	} else {
		log.Warnln("redis not configured, login rate limiting disabled")
	}

	web.SetupRoutes(web.RoutesParams{
		Router:         r,
		FlowHandler:    web.NewFlowHandler(s.machine),
		AdminHandler:   web.NewAdminHandler(s.machine),
		AdminAuth:      middleware.NewAdminAuthHandler(s.machine),
		LoginRateLimit: loginRateLimit,
		SecureCookies:  s.config.Environment == "production",
	})

	// all the rest - unhandled paths
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	if s.config.PrometheusMetricsPort != "" {
		go func() {
			log.Debugf(" > metrics listening on: [%s]", metricsAddr)
			err := s.metricsHttpServer.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("metrics service, listen and serve: %s", err)
			}
		}()
	}

	if s.janitor != nil {
		if err := s.janitor.Start(ctx); err != nil {
			log.Errorf("failed to start session janitor: %s", err)
		}
	}

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	var shutdownErr error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			shutdownErr = multierr.Append(shutdownErr, fmt.Errorf("http server: %w", err))
		}
		log.Warnln("server shut down")
	}
	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			shutdownErr = multierr.Append(shutdownErr, fmt.Errorf("metrics http server: %w", err))
		}
		log.Warnln("metrics server shut down")
	}

	if s.janitor != nil {
		s.janitor.Stop()
	}

	if s.otelShutdown != nil {
		s.otelShutdown()
		log.Trace("otel shut down ...")
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			shutdownErr = multierr.Append(shutdownErr, fmt.Errorf("session store: %w", err))
		}
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			shutdownErr = multierr.Append(shutdownErr, fmt.Errorf("redis client: %w", err))
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	for _, err := range multierr.Errors(shutdownErr) {
		log.Errorf(" >>> graceful shutdown: %s", err)
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}
