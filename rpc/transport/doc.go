// Package transport defines how callers talk to the daemon without managing
// sockets themselves.
//
// Key Components:
//
//   - IRPCClientTransport: Request/response contract implemented by the
//     connection pool in transport/base. Offers fire-and-forget (Send),
//     request/response (SendAndWait) and acknowledge-only (SendAndWaitAck)
//     operations.
//
//   - Errors: ErrPoolExhausted (admission control), ErrNotConnected,
//     RemoteProtocolError (Error response of the daemon) and
//     UnexpectedResponseError (wrong response kind). All of them reach the
//     caller unchanged, nothing is retried.
//
// The concrete transports live in the subpackages:
//
//   - base: framed connection and connection pool, independent of the socket type
//   - tcp: TCP connector
//   - unix: Unix domain socket connector
package transport
