package services

import (
	"context"
	"github.com/sfdaemon/dapi/cmd/util"
	"github.com/sfdaemon/dapi/rpc/client"
	"github.com/sfdaemon/dapi/rpc/transport"
	"github.com/spf13/cobra"
	"time"
)

var (
	daemonClient    *client.DaemonClient
	clientTransport transport.IRPCClientTransport

	// ServiceCommands represents the services command group
	ServiceCommands = &cobra.Command{
		Use:   "services",
		Short: "Inspect and control the services of the daemon",
	}
)

func init() {
	// Add subcommands
	ServiceCommands.AddCommand(listCmd)
	ServiceCommands.AddCommand(getCmd)
	ServiceCommands.AddCommand(startCmd)
	ServiceCommands.AddCommand(stopCmd)
	ServiceCommands.AddCommand(perfTestCmd)
}

// withClient runs fn with a connected daemon client and closes it afterward
func withClient(fn func(ctx context.Context, c *client.DaemonClient) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		var err error
		daemonClient, clientTransport, err = util.GetDaemonClient()
		if err != nil {
			return err
		}
		defer daemonClient.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		return fn(ctx, daemonClient)
	}
}
