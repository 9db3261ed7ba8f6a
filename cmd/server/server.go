package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"tangent-server/internal/config"
	"tangent-server/internal/domain/auth"
	"tangent-server/internal/domain/conversation"
	"tangent-server/internal/domain/session"
	"tangent-server/internal/infrastructure/crontab"
	"tangent-server/internal/infrastructure/database"
	"tangent-server/internal/infrastructure/database/repository/branchrepo"
	"tangent-server/internal/infrastructure/database/repository/conversationrepo"
	"tangent-server/internal/infrastructure/database/repository/messagerepo"
	"tangent-server/internal/infrastructure/database/repository/userrepo"
	"tangent-server/internal/infrastructure/inference"
	"tangent-server/internal/infrastructure/logger"
	"tangent-server/internal/infrastructure/observability"
	"tangent-server/internal/interfaces/httpserver"
	"tangent-server/internal/interfaces/httpserver/handlers/authhandler"
	"tangent-server/internal/interfaces/httpserver/handlers/chathandler"
	"tangent-server/internal/interfaces/httpserver/handlers/conversationhandler"
)

func main() {
	bootLog := logger.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("configure logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("initialize observability")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("shutdown telemetry")
			}
		}()
	}

	db, err := database.NewDB(cfg.DatabaseURL, cfg.DatabaseReadURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	if cfg.AutoMigrate {
		if err := database.Migration(db); err != nil {
			log.Fatal().Err(err).Msg("run migrations")
		}
	}

	userRepo := userrepo.NewRepository(db)
	convRepo := conversationrepo.NewRepository(db)
	branchRepo := branchrepo.NewRepository(db)
	messageRepo := messagerepo.NewRepository(db)

	responder := inference.NewOpenAIResponder(cfg)

	branchService := conversation.NewBranchService(convRepo, branchRepo)
	messageService := conversation.NewMessageService(convRepo, branchRepo, messageRepo, responder)
	sessions := session.NewManager(branchService, messageService)
	janitor := conversation.NewJanitor(convRepo, cfg.OrphanMinAge)

	authService := auth.NewService(userRepo, auth.Config{
		JWTSecret:       []byte(cfg.JWTSecret),
		TokenTTL:        cfg.TokenTTL,
		Issuer:          cfg.TokenIssuer,
		BcryptCost:      cfg.BcryptCost,
		MinPasswordSize: cfg.MinPasswordSize,
	})

	httpServer := httpserver.NewHTTPServer(
		cfg,
		log,
		authService,
		authhandler.NewAuthHandler(authService, sessions),
		conversationhandler.NewConversationHandler(branchService, messageService, sessions),
		chathandler.NewChatHandler(responder),
	)

	ctab := crontab.NewCrontab(janitor)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var eg errgroup.Group
	eg.Go(func() error {
		err := httpServer.Run(runCtx)
		if err != nil {
			cancel()
		}
		return err
	})
	eg.Go(func() error {
		err := ctab.Run(runCtx)
		if err != nil {
			cancel()
		}
		return err
	})
	eg.Go(func() error {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler: mux,
		}
		go func() {
			<-runCtx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = server.Shutdown(shutdownCtx)
		}()
		log.Info().Int("port", cfg.MetricsPort).Msg("metrics server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			cancel()
			return err
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
