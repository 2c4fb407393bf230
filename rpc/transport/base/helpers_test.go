package base

import (
	"context"
	"encoding/binary"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sfdaemon/dapi/rpc/common"
	"github.com/sfdaemon/dapi/rpc/serializer"
)

// frameOf prefixes the payload with its length
func frameOf(payload []byte) []byte {
	out := make([]byte, frameHeaderSize+len(payload))
	binary.BigEndian.PutUint32(out, uint32(len(payload)))
	copy(out[frameHeaderSize:], payload)
	return out
}

// pipeConnector connects to an in-memory daemon answering with handler
type pipeConnector struct {
	server  *ServerTransport
	handler ServerHandleFunc
	dials   atomic.Int32
}

func newPipeConnector(t *testing.T, s serializer.IRPCSerializer, handler ServerHandleFunc) *pipeConnector {
	c := &pipeConnector{
		server:  NewBaseServerTransport(nil, s, 0, 0),
		handler: handler,
	}
	t.Cleanup(func() { c.server.Close() })
	return c
}

func (c *pipeConnector) Connect(_ context.Context, _ string) (net.Conn, error) {
	client, server := net.Pipe()
	c.dials.Add(1)
	go c.server.ServeConn(server, c.handler)
	return client, nil
}

func (c *pipeConnector) GetName() string { return "pipe" }

func (c *pipeConnector) UpgradeConnection(net.Conn, common.ClientConfig) error { return nil }

// rawConnector hands the daemon end of every connection to the test
type rawConnector struct {
	peers chan net.Conn
}

func newRawConnector() *rawConnector {
	return &rawConnector{peers: make(chan net.Conn, 4)}
}

func (c *rawConnector) Connect(_ context.Context, _ string) (net.Conn, error) {
	client, server := net.Pipe()
	c.peers <- server
	return client, nil
}

func (c *rawConnector) GetName() string { return "raw" }

func (c *rawConnector) UpgradeConnection(net.Conn, common.ClientConfig) error { return nil }

var errDialRefused = errors.New("dial refused")

// failingConnector never connects
type failingConnector struct {
	mu    sync.Mutex
	dials int
}

func (c *failingConnector) Connect(context.Context, string) (net.Conn, error) {
	c.mu.Lock()
	c.dials++
	c.mu.Unlock()
	return nil, errDialRefused
}

func (c *failingConnector) GetName() string { return "failing" }

func (c *failingConnector) UpgradeConnection(net.Conn, common.ClientConfig) error { return nil }

// echoState answers every request with a state response
func echoState(*common.Message) (*common.Message, error) {
	return common.NewStateResponse(common.DaemonState{StatusCode: 1, StatusMessage: "running", Version: "1.2.0"}), nil
}
