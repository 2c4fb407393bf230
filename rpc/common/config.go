package common

import (
	"fmt"
	"strconv"
	"strings"
)

// Defaults taken over from the daemon deployment
const (
	DefaultDaemonEndpoint = "localhost:2341"
	DefaultAPIEndpoint    = "0.0.0.0:1840"
	DefaultMaxConnections = 10
	DefaultMaxFrameSize   = 16 * 1024 * 1024
)

// --------------------------------------------------------------------------
// Shared transport configuration
// --------------------------------------------------------------------------

// SocketConf holds socket buffer settings (in bytes, 0 keeps the OS default)
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP specific socket options
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// ClientTransportConfig groups the socket level settings of the client
type ClientTransportConfig struct {
	SocketConf
	TCPConf
}

// --------------------------------------------------------------------------
// Client (pool) configuration struct
// --------------------------------------------------------------------------

// ClientConfig configures the connection pool towards the daemon
type ClientConfig struct {
	// Endpoint is the daemon address (host:port for tcp, a path for unix)
	Endpoint string
	// MaxConnections is the admission ceiling of the pool
	MaxConnections int
	// TimeoutSecond bounds connect and write operations (0 disables)
	TimeoutSecond int
	// MaxFrameSize is the largest inbound frame accepted
	MaxFrameSize int

	Transport ClientTransportConfig
}

// WithDefaults returns a copy of the configuration with unset values replaced by defaults
func (c ClientConfig) WithDefaults() ClientConfig {
	if c.Endpoint == "" {
		c.Endpoint = DefaultDaemonEndpoint
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = DefaultMaxConnections
	}
	if c.MaxFrameSize <= 0 {
		c.MaxFrameSize = DefaultMaxFrameSize
	}
	return c
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Daemon Connection Pool")
	addField("Endpoint", c.Endpoint)
	addField("Max Connections", strconv.Itoa(c.MaxConnections))
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Max Frame Size", fmt.Sprintf("%d bytes", c.MaxFrameSize))

	addSection("Socket")
	addField("Write Buffer", fmt.Sprintf("%d bytes", c.Transport.WriteBufferSize))
	addField("Read Buffer", fmt.Sprintf("%d bytes", c.Transport.ReadBufferSize))
	addField("TCP NoDelay", strconv.FormatBool(c.Transport.TCPNoDelay))
	addField("TCP KeepAlive", fmt.Sprintf("%d sec", c.Transport.TCPKeepAliveSec))
	addField("TCP Linger", fmt.Sprintf("%d sec", c.Transport.TCPLingerSec))

	return sb.String()
}

// --------------------------------------------------------------------------
// HTTP API server configuration struct
// --------------------------------------------------------------------------

// ServerConfig configures the JSON HTTP API
type ServerConfig struct {
	// Endpoint the API listens on
	Endpoint string
	// TimeoutSecond bounds every request towards the daemon (0 disables)
	TimeoutSecond int
	// LogLevel is one of debug, info, warn, error
	LogLevel string

	Client ClientConfig
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("HTTP API")
	addField("Endpoint", c.Endpoint)
	addField("Request Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	sb.WriteString(c.Client.String())
	return sb.String()
}
