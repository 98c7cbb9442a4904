package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/chatroom/config"
	"github.com/cwrk-planet/chatroom/internal/repository"
	badgerrepo "github.com/cwrk-planet/chatroom/internal/repository/badger"
	"github.com/cwrk-planet/chatroom/internal/repository/postgres"
	"github.com/cwrk-planet/chatroom/internal/service"
	grpcx "github.com/cwrk-planet/chatroom/internal/transport/grpc"
	httpx "github.com/cwrk-planet/chatroom/internal/transport/http"
	"github.com/cwrk-planet/chatroom/internal/transport/ws"
	"github.com/cwrk-planet/chatroom/pkg/logger"

	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

type store struct {
	participants repository.ParticipantRepository
	messages     repository.MessageRepository
	pinger       repository.Pinger
	io.Closer
}

func openStore(ctx context.Context, cfg config.Storage) (*store, error) {
	switch cfg.Driver {
	case config.DriverBadger:
		db, err := badgerrepo.Open(badgerrepo.Config{
			Path:      cfg.URI,
			Namespace: cfg.Database,
			InMemory:  cfg.InMemory,
		})
		if err != nil {
			return nil, err
		}
		return &store{
			participants: badgerrepo.NewParticipantRepository(db),
			messages:     badgerrepo.NewMessageRepository(db),
			pinger:       db,
			Closer:       db,
		}, nil
	default:
		db, err := postgres.New(ctx, postgres.Config{
			DSN:             cfg.URI,
			Database:        cfg.Database,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
			ApplicationName: "chatroom",
		})
		if err != nil {
			return nil, err
		}
		return &store{
			participants: postgres.NewParticipantRepository(db.Pool),
			messages:     postgres.NewMessageRepository(db.Pool),
			pinger:       db,
			Closer:       db,
		}, nil
	}
}

func run() error {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	log := logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     level,
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	log.Info("starting chatroom",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version, "storage", cfg.Storage.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- storage ---
	st, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn("store close failed", "err", err)
		}
	}()

	// --- services ---
	opts := service.Options{
		Broadcast:  cfg.Chat.Broadcast,
		JoinText:   cfg.Chat.JoinText,
		LeaveText:  cfg.Chat.LeaveText,
		TimeLayout: cfg.Chat.TimeLayout,
		StaleAfter: cfg.Chat.StaleAfter,
		Logger:     log,
	}
	hub := ws.NewHub(cfg.Chat.Broadcast)
	ledger := service.NewMessageService(st.messages, st.participants, hub, opts)
	presence := service.NewPresenceService(st.participants, ledger, opts)
	sweeper := service.NewSweeper(presence, cfg.Chat.SweepInterval, log)

	// --- HTTP ---
	wsServer := ws.NewServer(hub, presence, cfg.Chat.WSPingEvery, log)
	handler := httpx.NewHandler(presence, ledger, st.pinger)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      httpx.NewRouter(handler, wsServer.HandleWS),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// --- run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		hub.Close()
		return httpSrv.Shutdown(shCtx)
	})

	g.Go(func() error {
		if err := sweeper.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if cfg.GRPC.Addr != "" {
		ops := grpcx.NewServer(grpcx.Config{Addr: cfg.GRPC.Addr, CheckEvery: cfg.GRPC.CheckEvery}, st.pinger, log)
		g.Go(func() error {
			return ops.Run(gctx)
		})
	}

	err = g.Wait()
	if err != nil {
		log.Error("server error", slog.Any("err", err))
	}
	log.Info("stopped")
	return err
}
