package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/scrap-exchange/internal/ai"
	"github.com/shinyyama/scrap-exchange/internal/config"
	"github.com/shinyyama/scrap-exchange/internal/db"
	"github.com/shinyyama/scrap-exchange/internal/media"
	appmw "github.com/shinyyama/scrap-exchange/internal/middleware"
	"github.com/shinyyama/scrap-exchange/internal/server"
)

var (
	gitSha    = "dev"
	buildTime = ""
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("auto migrate error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := server.Deps{Sha: gitSha, BuildTime: buildTime}
	if cfg.FirebaseProjectID != "" {
		authMw, err := appmw.NewAuthMiddleware(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
		if err != nil {
			log.Fatalf("failed to init firebase auth: %v", err)
		}
		deps.Auth = authMw.RequireAuth
	} else if cfg.Env == "prod" {
		log.Fatalf("FIREBASE_PROJECT_ID is required when APP_ENV=prod")
	} else {
		log.Printf("FIREBASE_PROJECT_ID not set; trusting X-User-ID header")
	}
	if cfg.StorageBucket != "" {
		store, err := media.NewGCSStore(ctx, cfg.StorageBucket, cfg.SignedURLTTL)
		if err != nil {
			log.Fatalf("failed to init storage: %v", err)
		}
		defer store.Close()
		deps.Images = store
	}
	if cfg.GeminiAPIKey != "" {
		deps.CO2 = ai.NewCO2Client(cfg.GeminiAPIKey, cfg.GeminiModel)
	}

	srv := server.New(cfg, conn, deps)
	go srv.RunSweeper(ctx, cfg.SweepInterval)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Printf("starting server on %s", addr)
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server stopped: %v", err)
		}
	case <-ctx.Done():
		log.Printf("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
