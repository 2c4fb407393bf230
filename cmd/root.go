package cmd

import (
	"fmt"
	"github.com/sfdaemon/dapi/cmd/daemon"
	"github.com/sfdaemon/dapi/cmd/mockdaemon"
	"github.com/sfdaemon/dapi/cmd/serve"
	"github.com/sfdaemon/dapi/cmd/services"
	"github.com/sfdaemon/dapi/cmd/util"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dapi",
		Short: "HTTP API and CLI for the service daemon",
		Long: fmt.Sprintf(`dapi (v%s)

Talks to the service daemon over its framed TCP protocol and exposes
the daemon as a JSON HTTP API.`, Version),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := util.BindCommandFlags(cmd); err != nil {
				return err
			}
			return util.InitLogging()
		},
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dapi",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dapi v%s\n", Version)
		},
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(services.ServiceCommands)
	RootCmd.AddCommand(daemon.DaemonCommands)
	RootCmd.AddCommand(mockdaemon.MockDaemonCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use (binary, json, gob)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	// Add client flags
	util.SetupRPCClientFlags(RootCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
