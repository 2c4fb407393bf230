// Package tcp implements the TCP socket transport towards the service daemon.
// It provides the connectors plugged into the base package, which holds the
// framing, the connection lifecycle and the pool.
//
// Key Components:
//
//   - clientConnector: Dials the daemon and applies TCPConf and SocketConf
//     options (no delay, keep-alive, linger, socket buffers)
//
//   - serverConnector: Listens for the daemon side, used by the mock daemon
package tcp
