package util

import (
	"fmt"
	"github.com/joho/godotenv"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/sfdaemon/dapi/rpc/client"
	"github.com/sfdaemon/dapi/rpc/common"
	"github.com/sfdaemon/dapi/rpc/serializer"
	"github.com/sfdaemon/dapi/rpc/transport"
	"github.com/sfdaemon/dapi/rpc/transport/base"
	"github.com/sfdaemon/dapi/rpc/transport/tcp"
	"github.com/sfdaemon/dapi/rpc/transport/unix"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
)

var Logger = logger.GetLogger("cli")

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupRPCClientFlags adds the flags configuring the connection pool towards the daemon
func SetupRPCClientFlags(cmd *cobra.Command) {
	key := "daemon-endpoint"
	cmd.PersistentFlags().String(key, common.DefaultDaemonEndpoint, WrapString("The address of the service daemon (host:port for tcp, a socket path for unix)"))

	key = "max-connections"
	cmd.PersistentFlags().Int(key, common.DefaultMaxConnections, WrapString("Maximum number of simultaneous connections to the daemon. Requests beyond fail instead of waiting"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("The timeout in seconds for connecting, writing and waiting for a response (0 disables)"))

	key = "max-frame-size"
	cmd.PersistentFlags().Int(key, common.DefaultMaxFrameSize/1024, WrapString("The largest message accepted from the daemon (in KB)"))

	key = "transport-write-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the socket write buffer (in KB, 0 keeps the OS default)"))

	key = "transport-read-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the socket read buffer (in KB, 0 keeps the OS default)"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY for the transport (only for tcp)"))

	key = "transport-tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval for the transport (in seconds, only for tcp)"))

	key = "transport-tcp-linger"
	cmd.PersistentFlags().Int(key, -1, WrapString("The linger time for the transport (in seconds, -1 keeps the OS default, only for tcp)"))
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("dapi")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	conf := &common.ClientConfig{
		Endpoint:       viper.GetString("daemon-endpoint"),
		MaxConnections: viper.GetInt("max-connections"),
		TimeoutSecond:  viper.GetInt("timeout"),
		MaxFrameSize:   viper.GetInt("max-frame-size") * 1024,
		Transport: common.ClientTransportConfig{
			SocketConf: common.SocketConf{
				WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
				ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
			},
			TCPConf: common.TCPConf{
				TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
				TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
				TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
			},
		},
	}

	withDefaults := conf.WithDefaults()
	return &withDefaults
}

// GetSerializer creates a serializer based on configuration
func GetSerializer() (serializer.IRPCSerializer, error) {
	name := viper.GetString("serializer")
	s, ok := serializer.ByName(name)
	if !ok {
		return nil, fmt.Errorf("invalid serializer %s (expected one of: %s)", name, strings.Join(serializer.Names, ", "))
	}
	return s, nil
}

// GetTransport creates the pooled client transport based on configuration
func GetTransport(config common.ClientConfig, s serializer.IRPCSerializer) (transport.IRPCClientTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPClientTransport(config, s), nil
	case "unix":
		return unix.NewUnixClientTransport(config, s), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetServerTransport creates the daemon side transport based on configuration
func GetServerTransport(config common.ClientConfig, s serializer.IRPCSerializer) (*base.ServerTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPServerTransport(s, config.TimeoutSecond, config.MaxFrameSize), nil
	case "unix":
		return unix.NewUnixServerTransport(s, config.TimeoutSecond, config.MaxFrameSize), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetDaemonClient creates a daemon client using the configured transport and serializer
func GetDaemonClient() (*client.DaemonClient, transport.IRPCClientTransport, error) {
	config := GetClientConfig()

	s, err := GetSerializer()
	if err != nil {
		return nil, nil, err
	}

	t, err := GetTransport(*config, s)
	if err != nil {
		return nil, nil, err
	}

	Logger.Debugf("Using %s transport with %s serializer towards %s", viper.GetString("transport"), viper.GetString("serializer"), config.Endpoint)
	return client.NewDaemonClient(t), t, nil
}

// InitLogging applies the configured log level to all loggers
func InitLogging() error {
	return common.InitLoggers(viper.GetString("log-level"))
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
