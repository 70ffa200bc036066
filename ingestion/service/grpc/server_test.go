package grpc

import (
	"context"
	"io"
	"log"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
)

func startServer(t *testing.T) (*Server, healthpb.HealthClient) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(log.New(io.Discard, "", 0))
	gs := grpclib.NewServer()
	srv.Register(gs)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpclib.NewClient("passthrough:///bufnet",
		grpclib.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpclib.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return srv, healthpb.NewHealthClient(conn)
}

func check(t *testing.T, c healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := c.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealth_IngestionAlwaysServing(t *testing.T) {
	_, c := startServer(t)
	resp, err := c.Check(context.Background(), &healthpb.HealthCheckRequest{Service: IngestionService})
	require.NoError(t, err)
	assert.True(t, proto.Equal(&healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, resp))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, c, ""))
}

func TestHealth_RemoteFollowsProbe(t *testing.T) {
	srv, c := startServer(t)
	assert.Equal(t, healthpb.HealthCheckResponse_UNKNOWN, check(t, c, RemoteService))

	srv.SetRemoteReachable(true)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, c, RemoteService))

	srv.SetRemoteReachable(false)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, c, RemoteService))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, c, IngestionService))
}

func TestHealth_UnknownServiceIsNotFound(t *testing.T) {
	_, c := startServer(t)
	_, err := c.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "reqsync.Nope"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestHealth_ShutdownStopsServing(t *testing.T) {
	srv, c := startServer(t)
	srv.Shutdown()
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, c, IngestionService))
}
