// Package base provides the framed stream transport towards the service daemon,
// independent of the specific network protocol (TCP, Unix sockets). It is
// extended with protocol-specific connectors by the tcp and unix packages.
//
// Wire format: every message is one frame, a 4 byte big endian length
// followed by that many bytes of serialized message. There are no request
// ids, so a connection carries at most one request/response exchange at a
// time and the next inbound message is the response.
//
// Key Components:
//
//   - frameDecoder: Rebuilds frames from arbitrarily chunked stream data.
//     A chunk may end inside the length prefix, inside a body, or contain
//     several frames. Frames larger than MaxFrameSize close the connection.
//
//   - Connection: A single-use connection (Unopened, Connecting, Open, Closed)
//     with a read loop that resolves a one-shot waiter per exchange.
//     Messages arriving without a waiter are logged and dropped.
//
//   - Pool: Creates connections lazily up to MaxConnections, reuses idle
//     ones and evicts connections once they close. When all connections are
//     busy a request fails with transport.ErrPoolExhausted instead of waiting.
//
//   - ServerTransport: The daemon side of the protocol, used to emulate a
//     daemon in tests and for local development.
//
// Thread Safety:
//
//	Pool and Connection are safe for concurrent use. The pool bookkeeping is
//	guarded by a mutex, frame writes of a connection are serialized.
package base
