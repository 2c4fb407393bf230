// Package rpc provides the communication layer between dapi and the service
// daemon, and the HTTP API built on top of it.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Message protocol, configuration structures, and logging.
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB)
//     for converting between Message objects and byte arrays.
//
//   - transport: The framed stream transport with its connection pool and
//     pluggable connectors (TCP, Unix sockets).
//
//   - client: A typed client for the daemon operations.
//
//   - daemon: An in-memory daemon emulation for tests and local development.
//
//   - server: The JSON HTTP API exposing the daemon.
package rpc
