package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HerbHall/markstash/internal/api"
	"github.com/HerbHall/markstash/internal/server"
	"github.com/HerbHall/markstash/internal/services"
	"github.com/HerbHall/markstash/internal/store"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

// openStore opens the configured database and brings its schema current.
func (a *app) openStore(ctx context.Context) (*store.SQLiteStore, error) {
	db, err := store.New(a.settings.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := services.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (a *app) serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := a.logger
	s := a.settings

	db, err := a.openStore(ctx)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("path", s.Database.Path), zap.Error(err))
		return err
	}
	defer db.Close()
	logger.Info("database ready", zap.String("path", s.Database.Path))

	handler := api.NewHandler(
		services.NewSQLiteFavoriteRepository(db.DBx(), services.WithMaxPerPage(s.Pagination.MaxPerPage)),
		services.NewSQLiteCategoryRepository(db.DBx()),
		services.NewSQLiteTagRepository(db.DBx()),
		logger,
	)
	srv := server.New(s.Server.Addr(), db, logger, server.Options{
		RateLimitRPS:   s.RateLimit.RPS,
		RateLimitBurst: s.RateLimit.Burst,
		AllowedOrigins: s.CORS.AllowedOrigins,
	}, handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("markstash stopped")
	return err
}
