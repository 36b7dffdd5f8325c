package integration_testing

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/2beens/easyathlete/internal"
	"github.com/2beens/easyathlete/internal/config"

	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

const (
	serverPort = 9000
	serverHost = "localhost"

	testDBName          = "easyathlete"
	testLoginRateLimit  = 3
	testDockerMaxWait   = 2 * time.Minute
	testPostgresUserPwd = "postgres"
)

var serverEndpoint = fmt.Sprintf("http://%s:%d", serverHost, serverPort)

type Suite struct {
	DB          *sql.DB
	dockerPool  *dockertest.Pool
	server      *internal.Server
	backend     *httptest.Server
	redisPort   string
	postgresDSN string
	teardown    []func()
}

func newSuite(ctx context.Context) *Suite {
	var err error
	s := &Suite{
		teardown: make([]func(), 0),
	}

	// uses a sensible default on windows (tcp/http) and linux/osx (socket)
	s.dockerPool, err = dockertest.NewPool("")
	if err != nil {
		log.Fatalf("could not create new dockertest pool: %s", err)
	}
	s.dockerPool.MaxWait = testDockerMaxWait

	// uses pool to try to connect to Docker
	if err = s.dockerPool.Client.Ping(); err != nil {
		log.Fatalf("could not ping dockertest pool: %s", err)
	}

	s.redisPort, err = s.redisSetup()
	if err != nil {
		s.cleanup()
		log.Fatalf("failed to setup redis: %s", err.Error())
	}

	pgPort, err := s.postgresSetup()
	if err != nil {
		s.cleanup()
		log.Fatalf("failed to setup postgres: %s", err)
	}

	s.backend = httptest.NewServer(http.HandlerFunc(fakeBackendHandler))
	s.teardown = append(s.teardown, s.backend.Close)

	cfg := getTestConfig(s.redisPort, pgPort, s.backend.URL)
	s.server, err = internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			RedisPassword:           "",
			PostgresPassword:        testPostgresUserPwd,
			HoneycombTracingEnabled: false,
		},
	)
	if err != nil {
		s.cleanup()
		log.Fatalf("new server: %s", err)
	}

	s.server.Serve(ctx, cfg.Host, cfg.Port)

	if err := waitForServer(); err != nil {
		s.cleanup()
		log.Fatalf("server not ready: %s", err)
	}

	return s
}

func (s *Suite) cleanup() {
	if s.server != nil {
		s.server.GracefulShutdown()
	}
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			log.Printf("test suite db close error: %s", err)
		}
	}
	for _, teardown := range s.teardown {
		teardown()
	}
}

func getTestConfig(redisPort, postgresPort, backendURL string) *config.Config {
	return &config.Config{
		Host:                        serverHost,
		Port:                        serverPort,
		Environment:                 "development",
		LogLevel:                    "debug",
		BackendURL:                  backendURL,
		BackendTimeoutSec:           5,
		SessionStore:                config.SessionStorePostgres,
		SessionTTLHours:             24,
		SessionSweepCron:            "@every 1h",
		RedisHost:                   "localhost",
		RedisPort:                   redisPort,
		PostgresHost:                "localhost",
		PostgresPort:                postgresPort,
		PostgresDBName:              testDBName,
		AnalyticsFreshnessMin:       30,
		KPIsCacheTTLSec:             60,
		OAuthRedirectDelaySec:       3,
		LoginRateLimitAllowedPerMin: testLoginRateLimit,
	}
}

func waitForServer() error {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(serverEndpoint + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("no healthy response from %s", serverEndpoint)
}

func (s *Suite) redisSetup() (string, error) {
	redisResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Name:       "easyathlete-redis",
		Tag:        "7.2",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	if err != nil {
		return "", fmt.Errorf("run redis: %s", err)
	}

	s.teardown = append(s.teardown, func() {
		redisResource.Close()
	})

	redisPort := redisResource.GetPort("6379/tcp")
	return redisPort, nil
}

func (s *Suite) postgresSetup() (string, error) {
	pgResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=" + testPostgresUserPwd,
			"POSTGRES_DB=" + testDBName,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return "", fmt.Errorf("dockerpool run postgres: %s", err)
	}

	s.teardown = append(s.teardown, func() {
		pgResource.Close()
	})

	pgPort := pgResource.GetPort("5432/tcp")
	s.postgresDSN = fmt.Sprintf(
		"postgres://postgres:%s@localhost:%s/%s?sslmode=disable",
		testPostgresUserPwd, pgPort, testDBName,
	)

	if err := s.dockerPool.Retry(func() error {
		db, err := sql.Open("postgres", s.postgresDSN)
		if err != nil {
			return err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return err
		}
		s.DB = db
		return nil
	}); err != nil {
		return "", fmt.Errorf("wait for postgres: %s", err)
	}

	return pgPort, nil
}

// fakeBackendHandler finishes the onboarding on the second user turn.
func fakeBackendHandler(w http.ResponseWriter, r *http.Request) {
	reply := func(status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}

	switch {
	case r.URL.Path == "/onboarding-bot":
		body, _ := io.ReadAll(r.Body)
		if strings.Count(string(body), `"role":"user"`) >= 2 {
			reply(http.StatusOK, `{"reply":"All set!","finished":true}`)
			return
		}
		reply(http.StatusOK, `{"reply":"What is your goal?","finished":false}`)
	case r.URL.Path == "/upload-onboarding":
		reply(http.StatusOK, `{"ok":true}`)
	case r.URL.Path == "/generate-training-schedule":
		reply(http.StatusOK, `{"schedule":{"weeks":[]}}`)
	case r.URL.Path == "/auth/login":
		reply(http.StatusOK, `{"token":"jwt","userId":"acc_1","stravaId":null}`)
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/auth/"):
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}
