// Package daemon provides an in-memory emulation of the service daemon, used
// by the tests of the client and the HTTP API and by the mock-daemon command.
package daemon
