// Package common provides the data structures shared by every layer of dapi.
//
// The package focuses on:
//   - The message envelope exchanged with the daemon
//   - Configuration structures for the connection pool and the HTTP API
//   - Custom logging implementation integrated with Dragonboat's logger facade
//
// Key Components:
//
//   - Message: Envelope with a Code discriminator and optional typed payloads
//     (ErrorInfo, DaemonState, ServiceList, ServiceID, ServiceState).
//     Factory functions build the requests the daemon understands.
//
//   - MessageCode: Enumeration of all message kinds. Encodes to JSON by name.
//
//   - ClientConfig: Settings of the connection pool (endpoint, admission
//     ceiling, timeouts, frame limit, socket tuning).
//
//   - ServerConfig: Settings of the JSON HTTP API.
//
//   - Logger: Custom logging implementation plugged into dragonboat's
//     logger.SetLoggerFactory so that all packages share one format.
package common
