// Package grpcx exposes the standard gRPC health service for the chat
// server, backed by periodic store checks.
package grpcx

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/cwrk-planet/chatroom/internal/repository"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service key reported alongside the overall "" key.
const ServiceName = "chatroom.v1.Chat"

type Config struct {
	Addr       string
	CheckEvery time.Duration
}

type Server struct {
	cfg    Config
	store  repository.Pinger
	log    *slog.Logger
	grpc   *grpc.Server
	health *health.Server
}

func NewServer(cfg Config, store repository.Pinger, log *slog.Logger) *Server {
	if cfg.CheckEvery <= 0 {
		cfg.CheckEvery = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(UnaryServerInterceptor(log)),
		grpc.ChainStreamInterceptor(StreamServerInterceptor(log)),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	return &Server{cfg: cfg, store: store, log: log, grpc: gs, health: hs}
}

// CheckStore pings the store once and publishes the result.
func (s *Server) CheckStore(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	if err := s.store.Ping(ctx); err != nil {
		s.log.Warn("store check failed", "err", err)
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
	return st
}

// Serve runs on lis until ctx ends, then marks everything NOT_SERVING and
// stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.CheckStore(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.grpc.Serve(lis)
	}()

	ticker := time.NewTicker(s.cfg.CheckEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			s.grpc.GracefulStop()
			return nil
		case err := <-errCh:
			return err
		case <-ticker.C:
			s.CheckStore(ctx)
		}
	}
}

// Run listens on cfg.Addr and serves until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.log.Info("grpc listen", "addr", s.cfg.Addr)
	return s.Serve(ctx, lis)
}
