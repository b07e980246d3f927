package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/herculanodebiasi/funcionarios/internal/config"
	"github.com/herculanodebiasi/funcionarios/internal/logging"
	"github.com/herculanodebiasi/funcionarios/internal/repository/sqlite"
	"github.com/herculanodebiasi/funcionarios/internal/service"
	"github.com/herculanodebiasi/funcionarios/internal/storage"
)

const usage = "usage: snapshot [export | list | delete <key> | prune <keep>]"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		logrus.Fatalf("setup logger: %v", err)
	}

	command := "export"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	var arg string
	switch command {
	case "export", "list":
	case "delete", "prune":
		if len(os.Args) != 3 {
			logger.Fatal(usage)
		}
		arg = os.Args[2]
	default:
		logger.Fatal(usage)
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

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	snapshots := service.NewSnapshotService(service.SnapshotConfig{
		Bucket:    cfg.Storage.Bucket,
		KeyPrefix: cfg.Storage.KeyPrefix,
	}, employeeRepo, storageSvc)

	switch command {
	case "export":
		snap, err := snapshots.Export(ctx)
		if err != nil {
			logger.Fatalf("export snapshot: %v", err)
		}
		logger.WithFields(logrus.Fields{
			"location":  snap.Location,
			"employees": snap.Employees,
		}).Info("snapshot exported")
		if cfg.Storage.Keep > 0 {
			prune(ctx, snapshots, cfg.Storage.Keep, logger)
		}
	case "list":
		objects, err := snapshots.List(ctx)
		if err != nil {
			logger.Fatalf("list snapshots: %v", err)
		}
		for _, obj := range objects {
			modified := ""
			if obj.LastModified != nil {
				modified = obj.LastModified.Format(time.RFC3339)
			}
			fmt.Printf("%s\t%d\t%s\n", obj.Key, obj.Size, modified)
		}
	case "delete":
		if err := snapshots.Delete(ctx, arg); err != nil {
			logger.Fatalf("delete snapshot: %v", err)
		}
		logger.WithField("key", arg).Info("snapshot deleted")
	case "prune":
		keep, err := strconv.Atoi(arg)
		if err != nil || keep < 0 {
			logger.Fatalf("invalid keep %q: %s", arg, usage)
		}
		prune(ctx, snapshots, keep, logger)
	}
}

func prune(ctx context.Context, snapshots service.SnapshotService, keep int, logger *logrus.Logger) {
	deleted, err := snapshots.Prune(ctx, keep)
	for _, key := range deleted {
		logger.WithField("key", key).Info("snapshot deleted")
	}
	if err != nil {
		logger.Fatalf("prune snapshots: %v", err)
	}
	logger.WithFields(logrus.Fields{
		"kept":    keep,
		"deleted": len(deleted),
	}).Info("snapshots pruned")
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
