package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/filedrop/internal/buildinfo"
	"github.com/dmitrijs2005/filedrop/internal/infra"
	"github.com/dmitrijs2005/filedrop/internal/infra/config"
	"github.com/dmitrijs2005/filedrop/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.New(os.Stderr, cfg.LogLevel, logging.FormatJSON)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error(ctx, "provisioning failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	stack, err := infra.LoadStack(cfg.StackFile)
	if err != nil {
		return err
	}
	logger.Info(ctx, "stack loaded", "file", cfg.StackFile, "name", stack.Name, "bucket", stack.Bucket.Name)

	s3c, cfc, err := infra.NewClients(ctx, infra.AWSSettings{
		Region:       cfg.Region,
		AccessKey:    cfg.AccessKey,
		SecretKey:    cfg.SecretKey,
		BaseEndpoint: cfg.BaseEndpoint,
	})
	if err != nil {
		return err
	}

	out, err := infra.NewProvisioner(s3c, cfc, cfg.Region, logger).Apply(ctx, stack)
	if err != nil {
		return err
	}

	if err := out.Print(os.Stdout); err != nil {
		return err
	}
	if cfg.OutputsFile != "" {
		if err := out.WriteFile(cfg.OutputsFile); err != nil {
			return err
		}
		logger.Info(ctx, "outputs written", "file", cfg.OutputsFile)
	}
	return nil
}
