package base

import (
	"context"
	"errors"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rcrowley/go-metrics"
	"github.com/sfdaemon/dapi/rpc/common"
	"github.com/sfdaemon/dapi/rpc/serializer"
	"github.com/sfdaemon/dapi/rpc/transport"
	"sync"
	"time"
)

// Metric names registered in the registry returned by Pool.Metrics
const (
	MetricConnectionsCreated = "pool.connections.created"
	MetricConnectionsEvicted = "pool.connections.evicted"
	MetricPoolExhausted      = "pool.exhausted"
	MetricExchange           = "pool.exchange"
)

// PoolStats is a snapshot of the pool bookkeeping
type PoolStats struct {
	Idle       int
	Total      int
	Connecting int
	Max        int
}

// Pool hands out framed connections for exclusive request/response cycles.
//
// Connections are created lazily up to the configured maximum, returned to the
// idle set after every successful cycle and evicted on failure. Admission
// counts both open and still connecting connections, so concurrent callers can
// never push the pool beyond its maximum. Invariant: Idle <= Total and
// Total+Connecting <= Max.
type Pool struct {
	config     common.ClientConfig
	connector  IClientConnector
	serializer serializer.IRPCSerializer

	mu         sync.Mutex
	idle       []*Connection // LIFO
	total      int
	connecting int
	closed     bool

	// live holds every opened connection not yet evicted, guarded by mu like total
	live *xsync.MapOf[uint64, *Connection]

	registry  metrics.Registry
	created   metrics.Counter
	evicted   metrics.Counter
	exhausted metrics.Counter
	exchanges metrics.Timer
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewPool creates an empty pool, no connection is opened before the first request
func NewPool(config common.ClientConfig, connector IClientConnector, s serializer.IRPCSerializer) *Pool {
	registry := metrics.NewRegistry()
	return &Pool{
		config:     config.WithDefaults(),
		connector:  connector,
		serializer: s,
		live:       xsync.NewMapOf[uint64, *Connection](),
		registry:   registry,
		created:    metrics.GetOrRegisterCounter(MetricConnectionsCreated, registry),
		evicted:    metrics.GetOrRegisterCounter(MetricConnectionsEvicted, registry),
		exhausted:  metrics.GetOrRegisterCounter(MetricPoolExhausted, registry),
		exchanges:  metrics.GetOrRegisterTimer(MetricExchange, registry),
	}
}

// NewBaseClientTransport creates a pooled client transport with the specified connector
func NewBaseClientTransport(config common.ClientConfig, connector IClientConnector, s serializer.IRPCSerializer) transport.IRPCClientTransport {
	return NewPool(config, connector, s)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (p *Pool) Send(ctx context.Context, msg *common.Message) error {
	conn, err := p.getConnection(ctx)
	if err != nil {
		return err
	}
	err = conn.Send(msg)
	p.release(conn)
	return err
}

func (p *Pool) SendAndWait(ctx context.Context, msg *common.Message) (*common.Message, error) {
	conn, err := p.getConnection(ctx)
	if err != nil {
		return nil, err
	}

	if _, ok := ctx.Deadline(); !ok && p.config.TimeoutSecond > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(p.config.TimeoutSecond)*time.Second)
		defer cancel()
	}

	start := time.Now()
	resp, err := conn.Exchange(ctx, msg)
	p.exchanges.UpdateSince(start)
	p.release(conn)

	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, transport.NewRemoteProtocolError(resp)
	}
	return resp, nil
}

func (p *Pool) SendAndWaitAck(ctx context.Context, msg *common.Message) error {
	resp, err := p.SendAndWait(ctx, msg)
	if err != nil {
		return err
	}
	if resp.Code != common.MsgCodeAck {
		return &transport.UnexpectedResponseError{Code: resp.Code, Expected: common.MsgCodeAck}
	}
	return nil
}

// Close closes every connection and rejects all later requests.
// Connections currently in use are closed too, their callers get an error.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.idle = nil
	conns := make([]*Connection, 0, p.live.Size())
	p.live.Range(func(_ uint64, c *Connection) bool {
		conns = append(conns, c)
		return true
	})
	p.mu.Unlock()

	// closing evicts, which needs the lock
	for _, c := range conns {
		c.Close()
	}
	Logger.Infof("Connection pool to %s closed (%d connections)", p.config.Endpoint, len(conns))
	return nil
}

// --------------------------------------------------------------------------
// Introspection
// --------------------------------------------------------------------------

// Stats returns a consistent snapshot of the pool counters
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{
		Idle:       len(p.idle),
		Total:      p.total,
		Connecting: p.connecting,
		Max:        p.config.MaxConnections,
	}
}

// Metrics returns the registry holding the pool counters and the exchange timer
func (p *Pool) Metrics() metrics.Registry {
	return p.registry
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// getConnection pops an idle connection or opens a new one if the pool has capacity left
func (p *Pool) getConnection(ctx context.Context) (*Connection, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, transport.ErrPoolClosed
	}
	if n := len(p.idle); n > 0 {
		conn := p.idle[n-1]
		p.idle[n-1] = nil
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return conn, nil
	}
	if p.total+p.connecting >= p.config.MaxConnections {
		p.mu.Unlock()
		p.exhausted.Inc(1)
		Logger.Debugf("Connection pool to %s exhausted (%d connections)", p.config.Endpoint, p.config.MaxConnections)
		return nil, transport.ErrPoolExhausted
	}
	p.connecting++
	p.mu.Unlock()

	conn := NewConnection(p.config, p.connector, p.serializer)
	conn.onClose = p.evict

	err := conn.Open(ctx)

	p.mu.Lock()
	p.connecting--
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	if p.closed {
		p.mu.Unlock()
		conn.Close()
		return nil, transport.ErrPoolClosed
	}
	if conn.State() != StateOpen {
		// failed right after opening, before it was registered
		p.mu.Unlock()
		return nil, errors.Join(transport.ErrConnectionClosed, conn.Err())
	}
	p.live.Store(conn.ID(), conn)
	p.total++
	total := p.total
	p.mu.Unlock()

	p.created.Inc(1)
	Logger.Debugf("Connection %d added to pool (%d/%d)", conn.ID(), total, p.config.MaxConnections)
	return conn, nil
}

// release returns a connection to the idle set if it is still open and owned by the pool
func (p *Pool) release(conn *Connection) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		conn.Close()
		return
	}
	if conn.State() != StateOpen {
		p.mu.Unlock()
		return
	}
	if _, ok := p.live.Load(conn.ID()); !ok {
		p.mu.Unlock()
		return
	}
	p.idle = append(p.idle, conn)
	p.mu.Unlock()
}

// evict removes a closed connection from the pool bookkeeping.
// It runs as the close hook of every pooled connection and is idempotent.
func (p *Pool) evict(conn *Connection, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.live.LoadAndDelete(conn.ID()); !ok {
		return
	}
	p.total--

	for i, c := range p.idle {
		if c == conn {
			p.idle = append(p.idle[:i], p.idle[i+1:]...)
			break
		}
	}

	p.evicted.Inc(1)
	if err != nil {
		Logger.Warningf("Connection %d evicted from pool (%d/%d): %v", conn.ID(), p.total, p.config.MaxConnections, err)
	} else {
		Logger.Debugf("Connection %d evicted from pool (%d/%d)", conn.ID(), p.total, p.config.MaxConnections)
	}
}
