package grpcx_test

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	grpcx "github.com/cwrk-planet/chatroom/internal/transport/grpc"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type flakyStore struct{ down atomic.Bool }

func (s *flakyStore) Ping(context.Context) error {
	if s.down.Load() {
		return errors.New("store unreachable")
	}
	return nil
}

func Test_Health_Follows_Store_And_Shutdown(t *testing.T) {
	req := require.New(t)
	store := &flakyStore{}
	srv := grpcx.NewServer(grpcx.Config{CheckEvery: 20 * time.Millisecond}, store, nil)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	req.NoError(err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	check := func() healthpb.HealthCheckResponse_ServingStatus {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: grpcx.ServiceName})
		if err != nil {
			return healthpb.HealthCheckResponse_UNKNOWN
		}
		return resp.GetStatus()
	}

	req.Eventually(func() bool { return check() == healthpb.HealthCheckResponse_SERVING }, 2*time.Second, 10*time.Millisecond)

	store.down.Store(true)
	req.Eventually(func() bool { return check() == healthpb.HealthCheckResponse_NOT_SERVING }, 2*time.Second, 10*time.Millisecond)

	store.down.Store(false)
	req.Eventually(func() bool { return check() == healthpb.HealthCheckResponse_SERVING }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(2 * time.Second):
		t.Fatal("grpc server did not stop")
	}
}

func Test_CheckStore_Reports_Status(t *testing.T) {
	store := &flakyStore{}
	srv := grpcx.NewServer(grpcx.Config{}, store, nil)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, srv.CheckStore(context.Background()))
	store.down.Store(true)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, srv.CheckStore(context.Background()))
}
