package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sfdaemon/dapi/rpc/common"
	"github.com/sfdaemon/dapi/rpc/daemon"
	"github.com/sfdaemon/dapi/rpc/serializer"
	"github.com/sfdaemon/dapi/rpc/transport"
	"github.com/sfdaemon/dapi/rpc/transport/tcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler func(*common.Message) (*common.Message, error)) *DaemonClient {
	t.Helper()
	s := serializer.NewBinarySerializer()

	server := tcp.NewTCPServerTransport(s, 5, 0)
	require.NoError(t, server.Listen("127.0.0.1:0"))
	go server.Serve(handler)
	t.Cleanup(func() { server.Close() })

	c := NewDaemonClient(tcp.NewTCPClientTransport(common.ClientConfig{
		Endpoint:       server.Addr().String(),
		MaxConnections: 2,
		TimeoutSecond:  5,
		Transport:      common.ClientTransportConfig{TCPConf: common.TCPConf{TCPLingerSec: -1}},
	}, s))
	t.Cleanup(func() { c.Close() })
	return c
}

func TestDaemonClientOperations(t *testing.T) {
	emulator := daemon.NewEmulator("web", "db")
	c := newTestClient(t, emulator.Handle)
	ctx := context.Background()

	state, err := c.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, "running", state.StatusMessage)

	services, err := c.ListServices(ctx)
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, "db", services[0].ID)

	require.NoError(t, c.StartService(ctx, "web"))
	svc, err := c.ServiceState(ctx, "web")
	require.NoError(t, err)
	assert.Equal(t, daemon.StatusRunning, svc.Status)

	require.NoError(t, c.StopService(ctx, "web"))
	svc, err = c.ServiceState(ctx, "web")
	require.NoError(t, err)
	assert.Equal(t, daemon.StatusStopped, svc.Status)

	require.NoError(t, c.StopDaemon(ctx))
	select {
	case <-emulator.Stopped():
	case <-time.After(2 * time.Second):
		t.Fatal("stop request not received")
	}
}

func TestDaemonClientRemoteError(t *testing.T) {
	c := newTestClient(t, daemon.NewEmulator("web").Handle)

	_, err := c.ServiceState(context.Background(), "missing")

	var remote *transport.RemoteProtocolError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, daemon.ErrCodeServiceNotFound, remote.Code)
	assert.Equal(t, "service missing not found", remote.Message)
}

func TestDaemonClientUnexpectedResponse(t *testing.T) {
	c := newTestClient(t, func(*common.Message) (*common.Message, error) {
		return common.NewAckResponse(), nil
	})

	_, err := c.State(context.Background())

	var unexpected *transport.UnexpectedResponseError
	require.True(t, errors.As(err, &unexpected))
	assert.Equal(t, common.MsgCodeAck, unexpected.Code)
	assert.Equal(t, common.MsgCodeState, unexpected.Expected)
}

func TestDaemonClientMissingPayload(t *testing.T) {
	c := newTestClient(t, func(*common.Message) (*common.Message, error) {
		return &common.Message{Code: common.MsgCodeServiceList}, nil
	})

	_, err := c.ListServices(context.Background())
	assert.EqualError(t, err, "ServiceList response without service list payload")
}
