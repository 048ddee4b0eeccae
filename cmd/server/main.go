package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ougirez/boptest/internal/api"
	"github.com/ougirez/boptest/internal/pkg/cache"
	"github.com/ougirez/boptest/internal/pkg/config"
	"github.com/ougirez/boptest/internal/pkg/constants"
	"github.com/ougirez/boptest/internal/pkg/logger"
	"github.com/ougirez/boptest/internal/pkg/store"
	"github.com/ougirez/boptest/internal/pkg/store/xpgx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

func main() {
	configPath := flag.String("config", "", "path to a config file")
	flag.Parse()

	if err := config.Load(*configPath); err != nil {
		panic(err)
	}
	if err := logger.Init(viper.GetString(constants.ViperLogLevelKey), viper.GetBool(constants.ViperLogDevelopmentKey)); err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if viper.GetString(constants.ViperSecretKey) == "" {
		logger.Fatalf(ctx, "%s must be set", constants.ViperSecretKey)
	}

	pool, err := xpgx.Connect(ctx, viper.GetString(constants.ViperDBDSNKey), viper.GetInt32(constants.ViperDBMaxConnsKey))
	if err != nil {
		logger.Fatal(ctx, err)
	}
	defer pool.Close()

	if err := store.Migrate(ctx, pool); err != nil {
		logger.Fatal(ctx, err)
	}

	facetCache := newFacetCache(ctx)

	svc, err := api.NewAPIService(store.NewStore(pool), facetCache)
	if err != nil {
		logger.Fatal(ctx, err)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- svc.Serve(viper.GetString(constants.ViperServerAddrKey))
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Fatal(ctx, err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), viper.GetDuration(constants.ViperShutdownTimeoutKey))
	defer cancel()
	if err := svc.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(shutdownCtx, "shutdown: %s", err.Error())
	}
	logger.Info(shutdownCtx, "server stopped")
}

// newFacetCache uses Redis when it is configured and reachable.
func newFacetCache(ctx context.Context) cache.FacetCache {
	addr := viper.GetString(constants.ViperRedisAddrKey)
	if addr == "" {
		return cache.NewNopFacetCache()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    viper.GetString(constants.ViperRedisPasswordKey),
		DB:          viper.GetInt(constants.ViperRedisDBKey),
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warnf(ctx, "redis %s unavailable, facet cache disabled: %s", addr, err.Error())
		_ = rdb.Close()
		return cache.NewNopFacetCache()
	}

	return cache.NewRedisFacetCache(rdb, viper.GetDuration(constants.ViperFacetCacheTTLKey))
}
