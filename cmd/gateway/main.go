package main

import (
	"context"
	"log"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oasislabs/web3-gateway/config"
	"github.com/oasislabs/web3-gateway/pkg/gateway"
	"github.com/oasislabs/web3-gateway/pkg/logger"
	"github.com/oasislabs/web3-gateway/pkg/metrics"
	"github.com/oasislabs/web3-gateway/pkg/runtime"
	"github.com/oasislabs/web3-gateway/pkg/statedb"
	"github.com/oasislabs/web3-gateway/pkg/utils"
)

func main() {
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Logger.Development)

	provider, err := statedb.NewLevelDBProvider(cfg.Database.Path)
	if err != nil {
		logger.Sugar.Fatalw("failed to open chain database", "path", cfg.Database.Path, "error", err)
	}
	defer provider.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The runtime may come up after the gateway, keep dialing.
	rt, err := utils.RequestResourceWithRetries(ctx, logger.Sugar, func() (runtime.Client, error) {
		return runtime.Dial(ctx, cfg.Runtime.URL)
	}, "connect to runtime", utils.RetryConfig{
		MaxRetries: 30,
		Delay:      2 * time.Second,
		Logger:     logger.Sugar,
	})
	if err != nil {
		logger.Sugar.Fatalw("failed to connect to runtime", "url", cfg.Runtime.URL, "error", err)
	}

	client := gateway.NewClient(rt, provider, gateway.NewRuntimeExecutor(rt), big.NewInt(cfg.Runtime.ChainID))

	if cfg.Metrics.Addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			logger.Sugar.Infow("serving metrics", "addr", cfg.Metrics.Addr)
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil && err != http.ErrServerClosed {
				logger.Sugar.Errorw("metrics server stopped", "error", err)
			}
		}()
	}

	interval := time.Duration(cfg.Notifier.IntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Sugar.Infow("gateway started",
		"runtime", cfg.Runtime.URL,
		"chain_id", cfg.Runtime.ChainID,
		"db", cfg.Database.Path)

	for {
		select {
		case <-sigCh:
			logger.Sugar.Info("received shutdown signal, stopping gateway")
			return
		case <-ticker.C:
			client.NewBlocks()
		}
	}
}
