package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/2beens/easyathlete/internal"
	"github.com/2beens/easyathlete/internal/config"
	"github.com/2beens/easyathlete/internal/logging"
	"github.com/2beens/easyathlete/pkg"

	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

// secrets are never kept in the TOML config
type secrets struct {
	SentryDSN        string `env:"SENTRY_DSN"`
	RedisPassword    string `env:"EASYATHLETE_REDIS_PASS"`
	PostgresPassword string `env:"EASYATHLETE_POSTGRES_PASS"`
	AdminSecretHash  string `env:"EASYATHLETE_ADMIN_SECRET_HASH"`
	OtelServiceName  string `env:"OTEL_SERVICE_NAME"`
	HoneycombEnabled bool   `env:"HONEYCOMB_ENABLED, default=false"`
	HoneycombAPIKey  string `env:"HONEYCOMB_API_KEY"`
}

func main() {
	fmt.Println("starting ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	log.Warnf("---->> running in [%s] environment", *env)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	var sec secrets
	if err := envconfig.Process(ctx, &sec); err != nil {
		panic(fmt.Errorf("process env: %w", err))
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        sec.SentryDSN,
		SentryServerName: "easyathlete-service",
	})

	log.Debugf("using port: %d", cfg.Port)
	log.Debugf("using server logs path: [%s]", cfg.LogsPath)
	log.Debugf("using session store: [%s]", cfg.SessionStore)
	log.Debugf("using backend: [%s]", cfg.BackendURL)

	versionInfo, err := tryGetLastCommitHash()
	if err != nil {
		log.Tracef("failed to get last commit hash / version info: %s", err)
	} else {
		log.Tracef("running version: %s", versionInfo)
	}

	if sec.AdminSecretHash == "" {
		log.Errorf("admin secret hash not set, admin API will reject all requests. use EASYATHLETE_ADMIN_SECRET_HASH")
	}
	if cfg.RedisHost != "" && sec.RedisPassword == "" {
		log.Warnln("redis password not set. use EASYATHLETE_REDIS_PASS")
	}
	if cfg.SessionStore == config.SessionStorePostgres && sec.PostgresPassword == "" {
		log.Warnln("postgres password not set. use EASYATHLETE_POSTGRES_PASS")
	}
	if cfg.StravaClientID == "" {
		log.Warnln("strava client id not set, account connect is disabled")
	}

	if sec.OtelServiceName == "" {
		log.Warnln("OTEL_SERVICE_NAME env var not set")
	}
	if sec.HoneycombEnabled {
		if sec.HoneycombAPIKey == "" {
			log.Warnln("HONEYCOMB_API_KEY env var not set")
		}
	} else {
		log.Debugln("honeycomb tracing disabled")
	}

	if cfg.SessionStore == config.SessionStoreSQLite {
		sqliteDir := filepath.Dir(cfg.SQLitePath)
		dirExists, err := pkg.PathExists(sqliteDir, true)
		if err != nil {
			log.Fatalf("check sqlite session store dir: %s", err)
		}
		if !dirExists {
			log.Fatalf("sqlite session store dir does not exist: %s", sqliteDir)
		}
		log.Debugf("sqlite session store: %s", cfg.SQLitePath)
	}

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	server, err := internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			RedisPassword:           sec.RedisPassword,
			PostgresPassword:        sec.PostgresPassword,
			AdminSecretHash:         sec.AdminSecretHash,
			HoneycombTracingEnabled: sec.HoneycombEnabled,
		},
	)
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	server.Serve(ctx, cfg.Host, cfg.Port)

	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, killing everything ...", receivedSig)
	cancel()

	server.GracefulShutdown()
}

// tryGetLastCommitHash will try to get the last commit hash
// assumes that the built main executable is in project root
func tryGetLastCommitHash() (string, error) {
	cmd := exec.Command("/usr/bin/git", "rev-parse", "HEAD")
	stdout, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return pkg.BytesToString(stdout), nil
}
