package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	httpctx "github.com/kboni/auth-server/internal/api/http/context"
	"github.com/kboni/auth-server/internal/api/http/handler"
	"github.com/kboni/auth-server/internal/api/http/router"
	httpServer "github.com/kboni/auth-server/internal/api/http/server"
	"github.com/kboni/auth-server/internal/config"
	"github.com/kboni/auth-server/internal/logger"
	"github.com/kboni/auth-server/internal/mail"
	"github.com/kboni/auth-server/internal/model"
	"github.com/kboni/auth-server/internal/repository/postgres"
	"github.com/kboni/auth-server/internal/server"
	"github.com/kboni/auth-server/internal/service"
	storage "github.com/kboni/auth-server/internal/storage/redis"
	"github.com/kboni/auth-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.Log.Level, cfg.Log.Format)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize database", "error", err)
	}
	defer db.Close()

	redisClient, err := storage.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("failed to initialize staging store", "error", err)
	}
	defer redisClient.Close()
	staging := storage.NewStagingStore(redisClient, cfg.Redis.KeyPrefix)

	clock := model.SystemClock{}
	stagingCodec, err := token.NewStagingCodec(cfg.Token.RegistrationSecret, clock)
	if err != nil {
		logger.Fatal("failed to create staging codec", "error", err)
	}
	sessionCodec, err := token.NewSessionCodec(cfg.Token.SessionSecret, clock)
	if err != nil {
		logger.Fatal("failed to create session codec", "error", err)
	}

	userRepo := postgres.NewUserRepository(db)
	hasher := service.BcryptHasher{Cost: cfg.Password.BcryptCost}
	flowCfg := service.FlowConfig{TTL: cfg.Token.StagingTTL}

	registration := service.NewRegistrationFlow(stagingCodec, staging, userRepo, hasher, flowCfg, logger)
	recovery := service.NewRecoveryFlow(stagingCodec, staging, userRepo, hasher, flowCfg, logger)
	sessions := service.NewSessions(sessionCodec, userRepo, hasher, service.SessionConfig{
		AccessTTL:  cfg.Token.AccessTTL,
		RefreshTTL: cfg.Token.RefreshTTL,
	}, logger)
	accounts := service.NewAccounts(userRepo, hasher, logger)

	mailer, err := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		TLS:      cfg.SMTP.TLS,
		From:     cfg.Mail.From,
	}, logger)
	if err != nil {
		logger.Fatal("failed to create mailer", "error", err)
	}

	r := router.New(router.Services{
		Registration: registration,
		Recovery:     recovery,
		Sessions:     sessions,
		Accounts:     accounts,
		Mailer:       mailer,
		Templates: handler.Templates{
			Registration: mail.Template{Subject: cfg.Mail.RegistrationSubject, Body: cfg.Mail.RegistrationBody},
			Recovery:     mail.Template{Subject: cfg.Mail.RecoverySubject, Body: cfg.Mail.RecoveryBody},
		},
		Checks: map[string]model.Pinger{
			"postgres": db,
			"redis":    staging,
		},
	}, httpctx.NewManager(), logger)

	srv := httpServer.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))
	sl := server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address(), "https", cfg.HTTP.EnableHTTPS)
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}(srv)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
