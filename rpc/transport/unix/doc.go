// Package unix implements the transport towards a service daemon listening on a
// Unix domain socket, for daemons running on the same machine.
//
// This package only provides the connectors, framing and pooling are
// inherited from the base package.
package unix
