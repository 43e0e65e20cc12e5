package haven

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/sessions"
	"github.com/havenforum/haven/api"
	"github.com/havenforum/haven/auth"
	"github.com/havenforum/haven/cache"
	"github.com/havenforum/haven/db/sqlite3"
	"github.com/havenforum/haven/discuss"
	"github.com/havenforum/haven/forum"
	"github.com/havenforum/haven/notifications"
	"github.com/havenforum/haven/random"
	"github.com/havenforum/haven/screening"
	"github.com/havenforum/haven/server"
	"github.com/havenforum/haven/votes"
	"github.com/nasermirzaei89/env"
)

type App struct {
	server    *server.Server
	handler   *api.Handler
	db        *sql.DB
	screening *screening.Pipeline
}

const feedCacheTTL = 30 * time.Second

func NewApp(ctx context.Context) (*App, error) {
	db, err := sqlite3.NewDB(ctx, env.GetString("DB_DSN", "file::memory:?cache=shared"))
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	err = sqlite3.MigrateUp(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	userRepo := sqlite3.NewUserRepository(db)
	sessionRepo := sqlite3.NewSessionRepository(db)
	postRepo := sqlite3.NewPostRepository(db)
	commentRepo := sqlite3.NewCommentRepository(db)
	voteRepo := sqlite3.NewVoteRepository(db)
	notificationRepo := sqlite3.NewNotificationRepository(db)

	authSvc := auth.NewService(userRepo, sessionRepo)

	err = authSvc.LoadBloomFilter(ctx, 10_000, 0.01)
	if err != nil {
		return nil, fmt.Errorf("failed to load bloom filter: %w", err)
	}

	notificationsSvc := notifications.NewService(notificationRepo)

	feedCache := cache.New[*forum.FeedPage](feedCacheTTL)

	// The screener is wired in after the pipeline exists; see below.
	forumSvc := forum.NewService(postRepo, nil, feedCache)

	classifier := screening.NewKeywordClassifier()
	pipeline := screening.NewPipeline(
		classifier,
		forumSvc,
		notificationsSvc,
		env.GetInt("SCREENING_QUEUE_SIZE", 64),
	)

	forumSvc = forum.NewService(postRepo, pipeline, feedCache)

	discussSvc := discuss.NewService(commentRepo, forumSvc, notificationsSvc)
	votesSvc := votes.NewService(voteRepo, notificationsSvc)

	sessionName := env.GetString("SESSION_NAME", "haven-"+random.String(4))
	sessionKey := env.GetString("SESSION_KEY", random.String(32))
	cookieStore := sessions.NewCookieStore([]byte(sessionKey))

	handler := api.NewHandler(
		authSvc,
		forumSvc,
		discussSvc,
		votesSvc,
		notificationsSvc,
		cookieStore,
		sessionName,
	)

	app := &App{
		server:    newServer(),
		handler:   handler,
		db:        db,
		screening: pipeline,
	}

	return app, nil
}

func (app *App) Run(ctx context.Context) error {
	// Handle SIGINT (CTRL+C) gracefully.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	defer func() {
		if app.screening != nil {
			app.screening.Close()
		}

		if app.db != nil {
			err := app.db.Close()
			if err != nil {
				slog.ErrorContext(ctx, "failed to close database", "error", err)
			}
		}
	}()

	err := app.server.Run(ctx, app.handler)
	if err != nil {
		return fmt.Errorf("failed to run server: %w", err)
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
