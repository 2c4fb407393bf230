package base

import (
	"errors"
	"fmt"
	"github.com/sfdaemon/dapi/rpc/common"
	"github.com/sfdaemon/dapi/rpc/serializer"
	"io"
	"net"
	"sync"
	"time"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener on the endpoint and returns it
	Listen(endpoint string) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// ServerHandleFunc answers one decoded request.
// A nil response sends nothing back. An error closes the connection of the request.
type ServerHandleFunc func(req *common.Message) (*common.Message, error)

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// ServerTransport speaks the daemon side of the framed protocol.
//
// Requests of one connection are handled one after another, in the order
// they were received, since the protocol has no correlation ids. It is used
// to emulate a daemon in tests and during development.
type ServerTransport struct {
	connector    IServerConnector
	serializer   serializer.IRPCSerializer
	timeout      time.Duration
	maxFrameSize int

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
	wg       sync.WaitGroup
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new server transport with the specified connector
func NewBaseServerTransport(connector IServerConnector, s serializer.IRPCSerializer, timeoutSecond int, maxFrameSize int) *ServerTransport {
	if maxFrameSize <= 0 {
		maxFrameSize = common.DefaultMaxFrameSize
	}
	return &ServerTransport{
		connector:    connector,
		serializer:   s,
		timeout:      time.Duration(timeoutSecond) * time.Second,
		maxFrameSize: maxFrameSize,
		conns:        make(map[net.Conn]struct{}),
	}
}

// --------------------------------------------------------------------------
// Methods
// --------------------------------------------------------------------------

// Listen binds the endpoint. It must be called once before Serve.
func (t *ServerTransport) Listen(endpoint string) error {
	listener, err := t.connector.Listen(endpoint)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		listener.Close()
		return net.ErrClosed
	}
	t.listener = listener
	return nil
}

// Addr returns the bound address, nil before Listen
func (t *ServerTransport) Addr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener == nil {
		return nil
	}
	return t.listener.Addr()
}

// Serve accepts connections until Close is called and answers their requests with handler.
// It returns nil after Close.
func (t *ServerTransport) Serve(handler ServerHandleFunc) error {
	t.mu.Lock()
	listener := t.listener
	t.mu.Unlock()
	if listener == nil {
		return errors.New("server transport is not listening")
	}

	Logger.Infof("Starting %s server on %s", t.connector.GetName(), listener.Addr())

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			Logger.Errorf("Accept error: %v", err)
			return err
		}

		// Handle the connection in a goroutine
		go t.ServeConn(conn, handler)
	}
}

// ServeConn answers the requests of a single accepted connection until it fails or is closed
func (t *ServerTransport) ServeConn(conn net.Conn, handler ServerHandleFunc) {
	if !t.track(conn) {
		conn.Close()
		return
	}
	defer t.untrack(conn)

	for {
		data, err := readFrame(conn, t.maxFrameSize)
		if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
			Logger.Debugf("Connection closed by client")
			return
		}
		if err != nil {
			Logger.Errorf("Error reading request: %v", err)
			return
		}

		var req common.Message
		if err := t.serializer.Deserialize(data, &req); err != nil {
			Logger.Errorf("Failed to decode request: %v", err)
			return
		}

		start := time.Now()
		resp, err := handler(&req)
		Logger.Debugf("Processed %s request in %s", req.Code, time.Since(start))
		if err != nil {
			Logger.Warningf("Dropping connection after %s request: %v", req.Code, err)
			return
		}
		if resp == nil {
			continue
		}

		payload, err := t.serializer.Serialize(*resp)
		if err != nil {
			Logger.Errorf("Failed to encode response: %v", err)
			return
		}

		if t.timeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(t.timeout)); err != nil {
				Logger.Errorf("Failed to set write deadline: %v", err)
				return
			}
		}
		if err := writeFrame(conn, payload); err != nil {
			Logger.Errorf("Failed to write response: %v", err)
			return
		}
	}
}

// Close stops accepting, closes every open connection and waits for the handlers to return
func (t *ServerTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	var err error
	if t.listener != nil {
		err = t.listener.Close()
	}
	for conn := range t.conns {
		conn.Close()
	}
	t.mu.Unlock()

	t.wg.Wait()
	return err
}

// CloseConnections closes all accepted connections but keeps listening
func (t *ServerTransport) CloseConnections() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for conn := range t.conns {
		conn.Close()
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (t *ServerTransport) track(conn net.Conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.conns[conn] = struct{}{}
	t.wg.Add(1)
	return true
}

func (t *ServerTransport) untrack(conn net.Conn) {
	t.mu.Lock()
	delete(t.conns, conn)
	t.mu.Unlock()
	conn.Close()
	t.wg.Done()
}
