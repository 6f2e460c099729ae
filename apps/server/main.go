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

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"taash29/apps/server/internal/auth"
	"taash29/apps/server/internal/config"
	"taash29/apps/server/internal/gateway"
	"taash29/apps/server/internal/lobby"
	"taash29/apps/server/internal/logging"
	"taash29/apps/server/internal/room"
	"taash29/apps/server/internal/wallet"
	"taash29/twentynine/bot"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	authService, err := auth.NewService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}
	defer authService.Close()

	walletService, err := wallet.NewService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init wallet: %w", err)
	}
	defer walletService.Close()

	bots, err := bot.NewManager(bot.ManagerConfig{
		Brain:      cfg.BotBrain,
		ThinkDelay: cfg.BotThinkDelay,
		Jitter:     cfg.BotThinkJitter,
	}, log)
	if err != nil {
		return fmt.Errorf("init bots: %w", err)
	}

	if _, err := walletService.Ensure(ctx, cfg.HouseIdentity, 0, true); err != nil {
		return fmt.Errorf("house wallet: %w", err)
	}

	policy, trump, err := cfg.Deal()
	if err != nil {
		return err
	}
	hub := gateway.NewHub(log)
	lby := lobby.New(room.Config{
		BackfillDelay:      cfg.BackfillDelay,
		Bid:                cfg.DefaultBid,
		TrumpPolicy:        policy,
		Trump:              trump,
		HouseIdentity:      cfg.HouseIdentity,
		BotTakeoverOnLeave: cfg.BotTakeoverOnLeave,
	}, hub, walletService, bots, log)
	defer lby.Shutdown()

	gw := gateway.New(hub, lby, authService, log)
	openWallet := func(ctx context.Context, username string) error {
		_, err := walletService.Ensure(ctx, username, cfg.StartingCoins, false)
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/api/rooms", gw.HandleRooms)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	auth.NewHTTPHandler(authService, openWallet, log).RegisterRoutes(mux)
	wallet.NewHTTPHandler(authService, walletService, log).RegisterRoutes(mux)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("auth_mode", cfg.AuthMode),
			zap.String("wallet_mode", cfg.WalletMode),
			zap.String("trump_policy", string(policy)),
			zap.Duration("backfill", cfg.BackfillDelay))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
