// Package cmd implements the command-line interface of dapi. It provides a
// hierarchical command structure for running the HTTP API and for talking to
// the service daemon directly.
//
// The package is organized into several subpackages:
//
//   - serve: Starts the JSON HTTP API in front of the daemon
//   - services: Service operations (list, get, start, stop) and a perf tool
//   - daemon: Daemon operations (state, stop)
//   - mockdaemon: Runs an emulated daemon for local development
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can be set by an environment variable DAPI_<FLAG> (e.g.
// DAPI_DAEMON_ENDPOINT=localhost:2341), also read from .env and .env.local.
//
// See dapi -help for a list of all commands.
package cmd
