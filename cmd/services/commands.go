package services

import (
	"context"
	"fmt"
	"github.com/sfdaemon/dapi/rpc/client"
	"github.com/spf13/cobra"
	"os"
	"text/tabwriter"
)

var (
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists all services of the daemon",
		Args:  cobra.NoArgs,
		RunE: withClient(func(ctx context.Context, c *client.DaemonClient) error {
			services, err := c.ListServices(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tVERSION")
			for _, svc := range services {
				fmt.Fprintf(w, "%s\t%d\t%s\n", svc.ID, svc.Status, svc.Version)
			}
			return w.Flush()
		}),
	}
	getCmd = &cobra.Command{
		Use:   "get [id]",
		Short: "Prints the state of a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.DaemonClient) error {
				state, err := c.ServiceState(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("service:   %s\n", state.Service)
				fmt.Printf("connector: %s\n", state.Connector)
				fmt.Printf("status:    %d\n", state.Status)
				fmt.Printf("version:   %s\n", state.Version)
				for _, inst := range state.Instances {
					fmt.Printf("  instance %s (status %d, version %s)\n", inst.ID, inst.Status, inst.Version)
				}
				return nil
			})(cmd, args)
		},
	}
	startCmd = &cobra.Command{
		Use:   "start [id]",
		Short: "Starts a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.DaemonClient) error {
				if err := c.StartService(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("start acknowledged")
				return nil
			})(cmd, args)
		},
	}
	stopCmd = &cobra.Command{
		Use:   "stop [id]",
		Short: "Stops a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.DaemonClient) error {
				if err := c.StopService(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("stop acknowledged")
				return nil
			})(cmd, args)
		},
	}
)
