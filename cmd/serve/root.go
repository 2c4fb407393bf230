package serve

import (
	"context"
	"github.com/sfdaemon/dapi/cmd/util"
	"github.com/sfdaemon/dapi/rpc/common"
	"github.com/sfdaemon/dapi/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"os/signal"
	"syscall"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the HTTP API",
		Long:    `Start the JSON HTTP API in front of the service daemon. The configuration can be set via command line flags or environment variables. The format of the environment variables is DAPI_<flag> (e.g. DAPI_ENDPOINT=0.0.0.0:1840)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// add flags
	key := "endpoint"
	ServeCmd.Flags().String(key, common.DefaultAPIEndpoint, util.WrapString("The address on which the API will listen"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.TimeoutSecond = viper.GetInt("timeout")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.Client = *util.GetClientConfig()
	return nil
}

// run starts the HTTP API and blocks until SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	daemonClient, t, err := util.GetDaemonClient()
	if err != nil {
		return err
	}
	defer daemonClient.Close()

	// the pooled transports expose their bookkeeping to /metrics
	pool, _ := t.(server.IPoolInfo)

	api := server.NewAPIServer(*serveCmdConfig, daemonClient, pool)
	return api.Serve(ctx)
}
