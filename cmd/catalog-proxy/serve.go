package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/catalog-client/pkg/catalog"
	"github.com/Sternrassler/catalog-client/pkg/config"
	"github.com/Sternrassler/catalog-client/pkg/graphql"
	"github.com/Sternrassler/catalog-client/pkg/logging"
	"github.com/Sternrassler/catalog-client/pkg/notify"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(load func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the books list over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
}

func newGraphQLClient(cfg config.Config) (*graphql.Client, error) {
	gqlCfg := graphql.DefaultConfig(cfg.GraphQL.Endpoint)
	gqlCfg.AdminSecret = cfg.GraphQL.AdminSecret
	gqlCfg.Timeout = cfg.GraphQL.Timeout
	if cfg.GraphQL.UserAgent != "" {
		gqlCfg.UserAgent = cfg.GraphQL.UserAgent
	}
	return graphql.New(gqlCfg)
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger := logging.NewLogger("catalog-proxy")

	gqlClient, err := newGraphQLClient(cfg)
	if err != nil {
		return fmt.Errorf("create graphql client: %w", err)
	}

	view, err := lookupCollection(cfg.List.Collection)
	if err != nil {
		return err
	}
	list, err := view.newController(gqlClient, cfg.List.PageSize)
	if err != nil {
		return err
	}
	defer list.Close()

	changes := notify.NewFanout(list)

	var (
		redisClient *redis.Client
		subscriber  *notify.RedisSubscriber
	)
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")

		publisher := notify.NewRedisPublisher(redisClient, cfg.Redis.Channel, logging.NewLogger("notify"))
		changes.Add(publisher)

		subscriber = notify.NewRedisSubscriber(redisClient, cfg.Redis.Channel, list, logging.NewLogger("notify"))
		subscriber.SkipOrigin(publisher.Origin())
	}

	srv := &server{
		list:   list,
		view:   view,
		redis:  redisClient,
		logger: logger,
	}
	if view.name == catalog.BooksCollection {
		if srv.creator, err = catalog.NewBookCreator(gqlClient, changes); err != nil {
			return err
		}
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	list.LoadInitial()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str("addr", cfg.Server.Addr).
			Str("endpoint", cfg.GraphQL.Endpoint).
			Str("collection", view.name).
			Int("page_size", cfg.List.PageSize).
			Msg("Starting catalog proxy server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info().Msg("Shutting down catalog proxy server")
		return httpServer.Shutdown(shutdownCtx)
	})
	if subscriber != nil {
		g.Go(func() error {
			return subscriber.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server failed")
		return err
	}
	return nil
}
