package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crowdledger/config"
	"crowdledger/core/events"
	"crowdledger/core/state"
	coretypes "crowdledger/core/types"
	"crowdledger/native/activity"
	"crowdledger/native/content"
	"crowdledger/native/platform"
	"crowdledger/native/token"
	"crowdledger/observability/logging"
	"crowdledger/rpc"
	"crowdledger/storage"
)

// logEmitter forwards workflow events into the structured log stream.
type logEmitter struct {
	logger *slog.Logger
}

func (e logEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	attrs := []any{slog.String("event", evt.EventType())}
	if env, ok := evt.(interface{ Event() *coretypes.Event }); ok {
		if raw := env.Event(); raw != nil {
			for key, value := range raw.Attributes {
				attrs = append(attrs, slog.String(key, value))
			}
		}
	}
	e.logger.Info("workflow event", attrs...)
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	env := os.Getenv("CROWDLEDGER_ENV")
	logger := logging.Setup("crowdledgerd", env, cfg.LogFile)
	logger.Info("starting",
		slog.String("network", cfg.NetworkName),
		slog.String("rpc", cfg.RPCAddress),
		slog.Int64("genesis", cfg.GenesisTimestamp),
	)

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	ledger, tracker, err := state.Load(db, cfg.GenesisTimestamp)
	if err != nil {
		logger.Error("failed to restore state", slog.Any("error", err))
		os.Exit(1)
	}

	// Standalone mode runs against the in-process token ledger. A hosted
	// deployment swaps in the external account-balance service here.
	tokenLedger := token.NewMemoryLedger(cfg.FeeVault())

	engine := platform.NewEngine(ledger, tracker, tokenLedger)
	engine.SetAdmin(cfg.Admin())
	engine.SetFeeVault(cfg.FeeVault())
	engine.SetEmitter(logEmitter{logger: logger})

	server := rpc.NewServer(engine)
	httpServer := &http.Server{Addr: cfg.RPCAddress, Handler: server.Handler()}
	go func() {
		logger.Info("serving JSON-RPC", slog.String("addr", cfg.RPCAddress))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("rpc server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	snapshotTicker := time.NewTicker(time.Duration(cfg.SnapshotIntervalSeconds) * time.Second)
	defer snapshotTicker.Stop()

	// Snapshots go through the engine so they never observe a workflow
	// mid-flight.
	checkpoint := func(l *content.Ledger, tr *activity.Tracker) error {
		return state.Save(db, l, tr)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-snapshotTicker.C:
			if err := engine.Snapshot(checkpoint); err != nil {
				logger.Error("snapshot failed", slog.Any("error", err))
			}
		case sig := <-stop:
			logger.Info("shutting down", slog.String("signal", sig.String()))
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := httpServer.Shutdown(ctx); err != nil {
				logger.Error("rpc shutdown failed", slog.Any("error", err))
			}
			cancel()
			if err := engine.Snapshot(checkpoint); err != nil {
				logger.Error("final snapshot failed", slog.Any("error", err))
			}
			return
		}
	}
}
