package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"branchdesk/internal/config"
	"branchdesk/internal/crypto"
	"branchdesk/internal/logger"
	"branchdesk/internal/metrics"
	"branchdesk/internal/repository"
	"branchdesk/internal/server"
	"branchdesk/internal/service"
	"branchdesk/internal/token"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yml", "path to the YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		bootLogger, _ := zap.NewDevelopment()
		bootLogger.Fatal("Failed to load config", zap.Error(err))
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync() // Flushes buffer, if any
	}()

	// Database connection
	db, err := repository.NewPostgresDB(cfg.Database.URL, repository.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := repository.MigrateDB(db, cfg.Database.MigrationsPath, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	tokens, err := token.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, token.WithTTL(cfg.JWT.TTL))
	if err != nil {
		log.Fatal("Failed to initialize token manager", zap.Error(err))
	}

	m := metrics.New()
	repos := repository.NewManager(db, log)
	rules := service.NewCounterRules(repos, m, log)
	hasher := crypto.NewPasswordHasher(crypto.DefaultArgon2Params)

	services := server.Services{
		Auth:     service.NewAuthService(repos, hasher, tokens, rules, m, log),
		Members:  service.NewMemberService(repos, rules, log),
		Branches: service.NewBranchService(repos, log),
		Alumni:   service.NewAlumniService(repos, rules, log),
	}

	srv := server.NewServer(cfg.Server, services, tokens, m, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return
	}
	log.Info("Server stopped")
}
