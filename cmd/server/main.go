package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/studylink/gateway/internal/adapters/http"
	"github.com/studylink/gateway/internal/adapters/social"
	"github.com/studylink/gateway/internal/adapters/store"
	"github.com/studylink/gateway/internal/app"
	"github.com/studylink/gateway/internal/config"
	"github.com/studylink/gateway/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var membership core.MembershipStore
	if cfg.MembershipDB != "" {
		db, err := store.OpenSQLite(cfg.MembershipDB)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.MembershipDB).Msg("failed to open membership store")
		}
		defer db.Close()
		membership = db
		log.Info().Str("path", cfg.MembershipDB).Msg("membership store: sqlite")
	} else {
		membership = store.NewMemory()
		log.Warn().Msg("membership store: in-memory, admissions will not survive a restart")
	}

	graph := social.NewClient(cfg.SocialGraphURL)
	admission := app.NewAdmissionController(membership, graph, cfg.UpstreamTimeout)
	reg := app.NewRegistry()

	orch := &app.Orchestrator{
		Registry:  reg,
		Admission: admission,
	}

	r := router.SetupRouter(ctx, cfg, orch)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("signaling gateway started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
