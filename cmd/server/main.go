package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/herculanodebiasi/funcionarios/internal/config"
	apphttp "github.com/herculanodebiasi/funcionarios/internal/http"
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

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		logrus.Fatalf("setup logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	employeeRepo := sqlite.NewEmployeeRepository(db)
	if err := employeeRepo.Init(ctx); err != nil {
		logger.Fatalf("init employee repository: %v", err)
	}

	employeeService := service.NewEmployeeService(employeeRepo)

	if cfg.Seed.OnStartup {
		seedDatabase(ctx, logger, employeeService, cfg.Seed.File)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "funcionarios"),
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		employeeService,
		logger,
		apphttp.CORSOptions{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			AllowedMethods: cfg.CORS.AllowedMethods,
			AllowedHeaders: cfg.CORS.AllowedHeaders,
		},
		registry,
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func seedDatabase(ctx context.Context, logger *logrus.Logger, employees service.EmployeeService, fixture string) {
	sample, err := seed.Load(fixture)
	if err != nil {
		logger.Warnf("load seed fixture: %v", err)
		return
	}
	inserted, err := employees.Seed(ctx, sample)
	if err != nil {
		logger.Warnf("seed employees: %v", err)
		return
	}
	if inserted > 0 {
		logger.Infof("seeded %d employees", inserted)
	}
}
