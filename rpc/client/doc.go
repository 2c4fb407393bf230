// Package client implements a typed client for the service daemon.
// It turns the daemon operations into request messages, sends them over a
// transport.IRPCClientTransport and checks the kind of every response.
//
// Usage Example:
//
//	config := common.ClientConfig{Endpoint: "localhost:2341", MaxConnections: 10}
//	c := client.NewDaemonClient(tcp.NewTCPClientTransport(config, serializer.NewBinarySerializer()))
//	defer c.Close()
//
//	services, err := c.ListServices(ctx)
//
// Error responses of the daemon are returned as *transport.RemoteProtocolError,
// responses of the wrong kind as *transport.UnexpectedResponseError.
package client
