package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/herculanodebiasi/funcionarios/internal/config"
	"github.com/herculanodebiasi/funcionarios/internal/logging"
	"github.com/herculanodebiasi/funcionarios/internal/repository/sqlite"
	"github.com/herculanodebiasi/funcionarios/internal/seed"
	"github.com/herculanodebiasi/funcionarios/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	fixture := flag.String("fixture", cfg.Seed.File, "YAML fixture with sample employees (embedded sample when empty)")
	dbPath := flag.String("db", cfg.Database.Path, "sqlite database path")
	flag.Parse()

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		logrus.Fatalf("setup logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(*dbPath)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	employeeRepo := sqlite.NewEmployeeRepository(db)
	if err := employeeRepo.Init(ctx); err != nil {
		logger.Fatalf("init employee repository: %v", err)
	}

	sample, err := seed.Load(*fixture)
	if err != nil {
		logger.Fatalf("load fixture: %v", err)
	}

	inserted, err := service.NewEmployeeService(employeeRepo).Seed(ctx, sample)
	if err != nil {
		logger.Fatalf("seed employees: %v", err)
	}
	if inserted == 0 {
		logger.Info("table already populated, nothing to seed")
		return
	}
	logger.Infof("seeded %d employees into %s", inserted, *dbPath)
}
