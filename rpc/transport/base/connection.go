package base

import (
	"context"
	"errors"
	"fmt"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/sfdaemon/dapi/rpc/common"
	"github.com/sfdaemon/dapi/rpc/serializer"
	"github.com/sfdaemon/dapi/rpc/transport"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var Logger = logger.GetLogger("transport/rpc")

// defaultReadChunkSize is used when no socket read buffer size is configured
const defaultReadChunkSize = 32 * 1024

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint
	Connect(ctx context.Context, endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------

// ConnectionState is the lifecycle state of a Connection
type ConnectionState int32

const (
	StateUnopened ConnectionState = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// exchangeResult is the outcome of one request/response cycle
type exchangeResult struct {
	msg *common.Message
	err error
}

// exchange is a one-shot waiter for the next inbound message.
// The channel has capacity one and receives exactly one result.
type exchange struct {
	ch chan exchangeResult
}

var connectionIDs atomic.Uint64

// Connection is a single framed stream connection to the daemon.
//
// A Connection is single use: it is opened once and, once closed, never
// reopened. Outbound messages are written as length-prefixed frames. Inbound
// data is reassembled by a dedicated read loop which hands each decoded
// message to the pending exchange, if any.
type Connection struct {
	id         uint64
	config     common.ClientConfig
	connector  IClientConnector
	serializer serializer.IRPCSerializer

	state atomic.Int32

	connMu sync.Mutex // Protects conn
	conn   net.Conn

	writeMu sync.Mutex // Serializes frame writes

	pending atomic.Pointer[exchange]

	closeOnce sync.Once
	done      chan struct{}
	err       error // Set before done is closed

	// onClose is called once after the connection is closed, err is nil for a clean close
	onClose func(c *Connection, err error)
}

// NewConnection creates an unopened connection
func NewConnection(config common.ClientConfig, connector IClientConnector, s serializer.IRPCSerializer) *Connection {
	return &Connection{
		id:         connectionIDs.Add(1),
		config:     config,
		connector:  connector,
		serializer: s,
		done:       make(chan struct{}),
	}
}

// ID returns the process wide unique id of the connection
func (c *Connection) ID() uint64 {
	return c.id
}

// State returns the current lifecycle state
func (c *Connection) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// Done is closed once the connection is closed
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that closed the connection.
// It is nil while the connection is not closed and after a clean close.
func (c *Connection) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Open connects to the configured endpoint and starts the read loop.
// It fails with ErrAlreadyConfigured if the connection was opened before.
func (c *Connection) Open(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(StateUnopened), int32(StateConnecting)) {
		return transport.ErrAlreadyConfigured
	}

	if c.config.TimeoutSecond > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.config.TimeoutSecond)*time.Second)
		defer cancel()
	}

	conn, err := c.connector.Connect(ctx, c.config.Endpoint)
	if err != nil {
		err = fmt.Errorf("failed to connect to %s: %w", c.config.Endpoint, err)
		c.shutdown(err)
		return err
	}

	// Upgrade the connection with protocol-specific settings
	if err := c.connector.UpgradeConnection(conn, c.config); err != nil {
		conn.Close()
		err = fmt.Errorf("failed to upgrade connection to %s: %w", c.config.Endpoint, err)
		c.shutdown(err)
		return err
	}

	c.connMu.Lock()
	c.conn = conn
	if !c.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen)) {
		// closed while connecting
		c.conn = nil
		c.connMu.Unlock()
		conn.Close()
		return transport.ErrConnectionClosed
	}
	c.connMu.Unlock()

	Logger.Infof("Connection %d opened to %s using %s transport", c.id, c.config.Endpoint, c.connector.GetName())

	go c.readLoop(conn)
	return nil
}

// Send serializes the message and writes it as one frame.
// It returns once the write completed locally, which is no delivery guarantee.
// A write failure closes the connection.
func (c *Connection) Send(msg *common.Message) error {
	if c.State() != StateOpen {
		return transport.ErrNotConnected
	}

	payload, err := c.serializer.Serialize(*msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %w", err)
	}

	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return transport.ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.config.TimeoutSecond > 0 {
		timeout := time.Duration(c.config.TimeoutSecond) * time.Second
		if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			c.shutdown(err)
			return err
		}
	}

	if err := writeFrame(conn, payload); err != nil {
		if errors.Is(err, transport.ErrFrameTooLarge) {
			// nothing was written, the stream is intact
			return err
		}
		err = fmt.Errorf("failed to write frame: %w", err)
		c.shutdown(err)
		return err
	}
	return nil
}

// Exchange sends the message and waits for the next inbound message.
//
// The waiter is installed before the frame is written so a response arriving
// immediately is never lost. Only one exchange may be pending per connection.
// If ctx ends first the connection is closed, since a late response could
// otherwise be taken for the answer of a later exchange.
func (c *Connection) Exchange(ctx context.Context, msg *common.Message) (*common.Message, error) {
	if c.State() != StateOpen {
		return nil, transport.ErrNotConnected
	}

	ex := &exchange{ch: make(chan exchangeResult, 1)}
	if !c.pending.CompareAndSwap(nil, ex) {
		return nil, transport.ErrExchangeInFlight
	}
	defer c.pending.CompareAndSwap(ex, nil)

	if err := c.Send(msg); err != nil {
		return nil, err
	}

	return c.await(ctx, ex)
}

// Close closes the connection. Closing twice is a no-op.
func (c *Connection) Close() error {
	c.shutdown(nil)
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// readLoop reads from the socket until it fails and feeds the data to the frame decoder
func (c *Connection) readLoop(conn net.Conn) {
	size := c.config.Transport.ReadBufferSize
	if size <= 0 {
		size = defaultReadChunkSize
	}
	buf := make([]byte, size)
	decoder := newFrameDecoder(c.config.MaxFrameSize)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if ferr := decoder.feed(buf[:n], c.dispatch); ferr != nil {
				c.shutdown(ferr)
				return
			}
		}
		if err != nil {
			switch {
			case c.State() == StateClosed:
				// closed locally
			case errors.Is(err, io.EOF) && decoder.awaitingPrefix():
				c.shutdown(nil)
			case errors.Is(err, io.EOF):
				c.shutdown(io.ErrUnexpectedEOF)
			default:
				c.shutdown(err)
			}
			return
		}
	}
}

// await waits for the result of ex. When ctx ends first the connection is
// closed, unless the waiter was already claimed by dispatch or shutdown: then
// the result is on its way and is returned instead.
func (c *Connection) await(ctx context.Context, ex *exchange) (*common.Message, error) {
	select {
	case result := <-ex.ch:
		return result.msg, result.err
	case <-ctx.Done():
		if !c.pending.CompareAndSwap(ex, nil) {
			result := <-ex.ch
			return result.msg, result.err
		}
		c.shutdown(ctx.Err())
		return nil, ctx.Err()
	}
}

// dispatch decodes one frame and resolves the pending exchange with it
func (c *Connection) dispatch(payload []byte) error {
	var msg common.Message
	err := c.serializer.Deserialize(payload, &msg)

	ex := c.pending.Swap(nil)
	if ex == nil {
		if err != nil {
			Logger.Warningf("Connection %d: dropping undecodable unsolicited frame: %v", c.id, err)
		} else {
			Logger.Warningf("Connection %d: dropping unsolicited %s message", c.id, msg.Code)
		}
		return nil
	}

	if err != nil {
		// framing is intact, only this message is lost
		ex.ch <- exchangeResult{err: fmt.Errorf("failed to decode response: %w", err)}
		return nil
	}
	ex.ch <- exchangeResult{msg: &msg}
	return nil
}

// shutdown closes the connection exactly once, fails the pending exchange and calls onClose
func (c *Connection) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		c.err = err

		c.connMu.Lock()
		conn := c.conn
		c.conn = nil
		c.connMu.Unlock()
		if conn != nil {
			conn.Close()
		}

		if ex := c.pending.Swap(nil); ex != nil {
			cause := transport.ErrConnectionClosed
			if err != nil {
				cause = fmt.Errorf("%w: %w", transport.ErrConnectionClosed, err)
			}
			ex.ch <- exchangeResult{err: cause}
		}

		close(c.done)

		if err != nil {
			Logger.Warningf("Connection %d to %s closed after error: %v", c.id, c.config.Endpoint, err)
		} else {
			Logger.Infof("Connection %d to %s closed", c.id, c.config.Endpoint)
		}

		if c.onClose != nil {
			c.onClose(c, err)
		}
	})
}
