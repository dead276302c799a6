// Command reconcile recomputes every branch's member and alumni counters
// from the rows that reference the branch. It is safe to run against a live
// database.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"branchdesk/internal/config"
	"branchdesk/internal/logger"
	"branchdesk/internal/repository"
	"branchdesk/internal/service"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yml", "path to the YAML config file")
	flag.Parse()

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
		_ = log.Sync()
	}()

	db, err := repository.NewPostgresDB(cfg.Database.URL, repository.PoolConfig{MaxOpenConns: 1}, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	branches := service.NewBranchService(repository.NewManager(db, log), log)
	changed, err := branches.Reconcile(ctx)
	if err != nil {
		log.Error("Reconcile failed", zap.Error(err))
		return
	}
	log.Info("Reconcile finished", zap.Int64("branches_changed", changed))
}
