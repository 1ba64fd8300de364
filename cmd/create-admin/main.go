package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pribylovaa/go-crm/internal/config"
	"github.com/pribylovaa/go-crm/internal/pkg/log"
	"github.com/pribylovaa/go-crm/internal/provision"
	"github.com/pribylovaa/go-crm/internal/service"
	"github.com/pribylovaa/go-crm/internal/storage/mongo"
)

func main() {
	var configPath, seedPath string
	flag.StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	flag.StringVar(&seedPath, "file", "", "YAML file with users to create; interactive admin prompt if empty")
	flag.Parse()

	cfg := config.MustLoadProvision(configPath)

	lg := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(lg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx = log.Into(ctx, lg)

	if err := run(ctx, cfg, seedPath); err != nil {
		cancel()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cancel()
}

func run(ctx context.Context, cfg *config.ProvisionConfig, seedPath string) error {
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	store, err := mongo.New(dbCtx, cfg.DB)
	dbCancel()
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		_ = store.Close(closeCtx)
	}()

	svc := service.New(store, cfg.AuthConfig())

	if seedPath != "" {
		n, err := provision.FromFile(ctx, svc, seedPath)
		if err != nil {
			return err
		}

		fmt.Printf("Created %d user(s) from %s.\n", n, seedPath)
		return nil
	}

	p, err := provision.Interactive(ctx, svc, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Printf("Admin user %s %s created successfully.\n", p.FirstName, p.LastName)
	return nil
}
