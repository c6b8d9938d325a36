package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	cryptostoreadapter "github.com/commitdigest/commitdigest/internal/adapter/driven/cryptostore"
	geminiadapter "github.com/commitdigest/commitdigest/internal/adapter/driven/gemini"
	githubadapter "github.com/commitdigest/commitdigest/internal/adapter/driven/github"
	memoryadapter "github.com/commitdigest/commitdigest/internal/adapter/driven/memory"
	sqliteadapter "github.com/commitdigest/commitdigest/internal/adapter/driven/sqlite"
	httphandler "github.com/commitdigest/commitdigest/internal/adapter/driving/http"
	"github.com/commitdigest/commitdigest/internal/application"
	"github.com/commitdigest/commitdigest/internal/auth"
	"github.com/commitdigest/commitdigest/internal/config"
	"github.com/commitdigest/commitdigest/internal/crypto"
	"github.com/commitdigest/commitdigest/internal/domain/port/driven"
	"github.com/commitdigest/commitdigest/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"store", cfg.Store,
		"llm_provider", cfg.LLMProvider,
		"frontend_url", cfg.FrontendURL,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Build the token cipher from the configured key.
	cipher, err := crypto.NewTokenCipher(cfg.EncryptionKey)
	if err != nil {
		return err
	}

	// 4. Open the selected store profile and wrap the user store with the
	// encrypting decorator. Everything above this line sees plaintext tokens;
	// everything below sees envelopes.
	var userStore driven.UserStore
	var reportStore driven.ReportStore

	switch cfg.Store {
	case config.StoreSQLite:
		db, err := sqliteadapter.NewDB(cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		slog.Info("database opened", "path", cfg.DBPath)

		if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			return err
		}
		slog.Info("migrations complete")

		userStore = sqliteadapter.NewUserRepo(db)
		reportStore = sqliteadapter.NewReportRepo(db)

	case config.StoreMemory:
		slog.Warn("using in-memory store, all data is lost on restart")
		userStore = memoryadapter.NewUserRepo()
		reportStore = memoryadapter.NewReportRepo()
	}

	users := cryptostoreadapter.NewUserStore(userStore, cipher)

	// 5. Wire auth, LLM and GitHub.
	sessions := auth.NewSessions(cfg.JWTSecret, cfg.SessionLifetime)
	oauth := auth.NewGitHubOAuth(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubCallbackURL)

	generator := geminiadapter.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)

	clientFactory := driven.GitHubClientFactory(func(token string) driven.GitHubClient {
		return githubadapter.NewClient(token)
	})

	m := metrics.New("commitdigest")

	authSvc := application.NewAuthService(users, sessions)
	reportSvc := application.NewReportService(reportStore, generator, clientFactory, m)

	// 6. HTTP server.
	apiHandler := httphandler.NewHandler(authSvc, reportSvc, oauth, clientFactory, cfg.FrontendURL, m, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, m, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second, // report generation holds the response open
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("commitdigest started",
		"listen_addr", cfg.ListenAddr,
		"gemini_model", cfg.GeminiModel,
	)

	// 7. Wait for shutdown signal, then drain.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
