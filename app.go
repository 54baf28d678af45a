package nexus

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/sessions"
	"github.com/nasermirzaei89/env"
	"github.com/nasermirzaei89/nexus/authorization"
	"github.com/nasermirzaei89/nexus/authorization/casbin"
	"github.com/nasermirzaei89/nexus/contents"
	"github.com/nasermirzaei89/nexus/db/sqlite3"
	"github.com/nasermirzaei89/nexus/expansion"
	"github.com/nasermirzaei89/nexus/moderation"
	"github.com/nasermirzaei89/nexus/random"
	"github.com/nasermirzaei89/nexus/server"
	"github.com/nasermirzaei89/nexus/web"
	"github.com/nats-io/nats.go"
)

const defaultDSN = "file::memory:?cache=shared"

type App struct {
	server   *server.Server
	handler  *web.Handler
	db       *sql.DB
	redis    *expansion.RedisStore
	natsConn *nats.Conn
}

//go:embed policy.csv
var defaultAuthorizationPolicyContent string

func NewApp(ctx context.Context) (_ *App, err error) {
	app := &App{
		server: newServer(),
	}

	defer func() {
		if err != nil {
			app.close(ctx)
		}
	}()

	app.db, err = sqlite3.NewDB(ctx, env.GetString("DB_DSN", defaultDSN))
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	err = sqlite3.MigrateUp(ctx, app.db)
	if err != nil {
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	queue, err := app.newModerationQueue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create moderation queue: %w", err)
	}

	storeOpts := []contents.Option{contents.WithModerationQueue(queue)}

	if env.GetBool("PERSISTENCE_ENABLED", true) {
		storeOpts = append(storeOpts, contents.WithRepository(sqlite3.NewPostRepository(app.db)))
	}

	store := contents.NewStore(storeOpts...)

	err = store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}

	expansionStore, err := app.newExpansionStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create expansion store: %w", err)
	}

	authzProvider, err := newAuthorizationProvider(ctx, app.db)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorization provider: %w", err)
	}

	authzSvc, err := authorization.NewService(authzProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorization service: %w", err)
	}

	authzClient := authorization.NewClient(authzSvc)
	contentsSvc := contents.NewAuthorizationMiddleware(authzClient, store)

	sessionName := env.GetString("SESSION_NAME", "nexus-"+random.String(4))
	sessionKey := env.GetString("SESSION_KEY", random.String(32))
	cookieStore := sessions.NewCookieStore([]byte(sessionKey))

	app.handler, err = web.NewHandler(
		contentsSvc,
		expansionStore,
		authzClient,
		cookieStore,
		sessionName,
		app.healthChecks(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP handler: %w", err)
	}

	return app, nil
}

func (app *App) newModerationQueue(ctx context.Context) (moderation.Queue, error) {
	natsURL := env.GetString("NATS_URL", "")
	if natsURL == "" {
		slog.InfoContext(ctx, "NATS_URL is not set, keeping reports in memory")

		return moderation.NewMemoryQueue(), nil
	}

	nc, err := moderation.Connect(natsURL)
	if err != nil {
		return nil, err
	}

	app.natsConn = nc

	return moderation.NewNATSQueue(nc, env.GetString("NATS_REPORT_SUBJECT", moderation.DefaultSubject)), nil
}

func (app *App) newExpansionStore(ctx context.Context) (expansion.Store, error) {
	redisURL := env.GetString("REDIS_URL", "")
	if redisURL == "" {
		slog.InfoContext(ctx, "REDIS_URL is not set, keeping view state in memory")

		return expansion.NewMemory(), nil
	}

	store, err := expansion.NewRedisStore(ctx, redisURL, expansion.DefaultTTL)
	if err != nil {
		return nil, err
	}

	app.redis = store

	return store, nil
}

func (app *App) healthChecks() map[string]web.HealthCheck {
	checks := map[string]web.HealthCheck{
		"database": app.db.PingContext,
	}

	if app.redis != nil {
		checks["redis"] = app.redis.Ping
	}

	if app.natsConn != nil {
		checks["nats"] = func(context.Context) error {
			if !app.natsConn.IsConnected() {
				return errors.New("not connected")
			}

			return nil
		}
	}

	return checks
}

func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer app.close(context.WithoutCancel(ctx))

	err := app.server.Run(ctx, app.handler)
	if err != nil {
		return fmt.Errorf("failed to run server: %w", err)
	}

	return nil
}

func (app *App) close(ctx context.Context) {
	if app.natsConn != nil {
		err := app.natsConn.Drain()
		if err != nil {
			slog.ErrorContext(ctx, "failed to drain nats connection", "error", err)
		}
	}

	if app.redis != nil {
		err := app.redis.Shutdown()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close redis client", "error", err)
		}
	}

	if app.db != nil {
		err := app.db.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close database", "error", err)
		}
	}
}

// Migrate opens the configured database and applies or reverts every migration.
func Migrate(ctx context.Context, up bool) error {
	db, err := sqlite3.NewDB(ctx, env.GetString("DB_DSN", defaultDSN))
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	defer func() {
		err := db.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close database", "error", err)
		}
	}()

	if up {
		err = sqlite3.MigrateUp(ctx, db)
	} else {
		err = sqlite3.MigrateDown(ctx, db)
	}

	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

func newServer() *server.Server {
	server := &server.Server{
		Port: env.GetString("PORT", server.DefaultPort),
		Host: env.GetString("HOST", ""),
		TLS: server.ServerTLS{
			Enabled: env.GetBool("TLS_ENABLED", false),
			Mode:    env.GetString("TLS_MODE", server.DefaultTLSMode),
			AutoCert: &server.ServerTLSAutoCert{
				CacheDir: env.GetString("TLS_AUTOCERT_CACHE_DIR", "./cert-cache"),
				Domains:  env.GetStringSlice("TLS_AUTOCERT_DOMAINS", []string{}),
				Email:    env.GetString("TLS_AUTOCERT_EMAIL", ""),
			},
			CertFile: env.GetString("TLS_CERT_FILE", ""),
			KeyFile:  env.GetString("TLS_KEY_FILE", ""),
		},
	}

	return server
}

func GetLogLevelFromEnv() slog.Level {
	levelStr := env.GetString("LOG_LEVEL", "info")
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("unknown log level, defaulting to info", "level", levelStr)

		return slog.LevelInfo
	}
}

func newAuthorizationProvider(ctx context.Context, db *sql.DB) (*casbin.AuthorizationProvider, error) {
	adapter, err := casbin.NewSQLAdapter(db, "sqlite3", casbin.DefaultTableName)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorization adapter: %w", err)
	}

	provider, err := casbin.NewAuthorizationProvider(adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorization provider: %w", err)
	}

	policyContent, err := loadPolicyContent()
	if err != nil {
		return nil, fmt.Errorf("failed to load authorization policy content: %w", err)
	}

	err = provider.AddPolicyFromCSV(ctx, policyContent)
	if err != nil {
		return nil, fmt.Errorf("failed to add authorization policy from csv: %w", err)
	}

	return provider, nil
}

func loadPolicyContent() (string, error) {
	policyFilePath := env.GetString("AUTHORIZATION_POLICY_FILE", "")

	if policyFilePath == "" {
		return defaultAuthorizationPolicyContent, nil
	}

	content, err := os.ReadFile(policyFilePath) // nolint:gosec
	if err != nil {
		return "", fmt.Errorf("failed to read policy file %q: %w", policyFilePath, err)
	}

	return string(content), nil
}
