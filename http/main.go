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
	"github.com/tnqbao/gau-media-storage/config"
	"github.com/tnqbao/gau-media-storage/http/controller"
	routes "github.com/tnqbao/gau-media-storage/http/route"
	infraPkg "github.com/tnqbao/gau-media-storage/infra"
	"github.com/tnqbao/gau-media-storage/repository"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.NewConfig()
	infra, err := infraPkg.InitInfra(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize infra: %v", err)
	}

	var repo *repository.Repository
	if infra.Postgres != nil {
		repo = repository.InitRepository(infra.Postgres.DB)
	}

	ctrl, err := controller.NewController(cfg, infra, repo)
	if err != nil {
		log.Fatalf("Failed to initialize controller: %v", err)
	}

	router := routes.SetupRouter(ctrl)
	srv := &http.Server{
		Addr:              cfg.EnvConfig.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		infra.Logger.InfoWithContextf(ctx, "HTTP Server started on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	infra.Close(shutdownCtx)
}
