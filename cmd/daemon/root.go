package daemon

import (
	"context"
	"fmt"
	"github.com/sfdaemon/dapi/cmd/util"
	"github.com/spf13/cobra"
	"time"
)

var (
	// DaemonCommands represents the daemon command group
	DaemonCommands = &cobra.Command{
		Use:   "daemon",
		Short: "Inspect and control the daemon itself",
	}

	stateCmd = &cobra.Command{
		Use:   "state",
		Short: "Prints the state of the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, _, err := util.GetDaemonClient()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			state, err := c.State(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("status:         %s (%d)\n", state.StatusMessage, state.StatusCode)
			fmt.Printf("started:        %s\n", time.Unix(state.StartTime, 0).Format(time.RFC3339))
			fmt.Printf("version:        %s (%s)\n", state.Version, state.VersionDate)
			fmt.Printf("config version: %s\n", state.ConfigVersion)
			return nil
		},
	}

	stopCmd = &cobra.Command{
		Use:   "stop",
		Short: "Asks the daemon to shut down",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, _, err := util.GetDaemonClient()
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.StopDaemon(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("stop request sent")
			return nil
		},
	}
)

func init() {
	DaemonCommands.AddCommand(stateCmd)
	DaemonCommands.AddCommand(stopCmd)
}
