package mockdaemon

import (
	"context"
	"github.com/sfdaemon/dapi/cmd/util"
	"github.com/sfdaemon/dapi/rpc/daemon"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

var (
	MockDaemonCmd = &cobra.Command{
		Use:   "mock-daemon",
		Short: "Run an emulated service daemon on the daemon endpoint",
		Long:  `Run an in-memory emulation of the service daemon on the configured daemon endpoint, for developing against the HTTP API without a real daemon. It exits on SIGINT, SIGTERM or a stop request.`,
		Args:  cobra.NoArgs,
		RunE:  run,
	}
)

func init() {
	key := "services"
	MockDaemonCmd.Flags().String(key, "web,db,cache", util.WrapString("Comma-separated list of emulated services"))
}

func run(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	config := util.GetClientConfig()
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}
	server, err := util.GetServerTransport(*config, s)
	if err != nil {
		return err
	}

	var ids []string
	for _, id := range strings.Split(viper.GetString("services"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	emulator := daemon.NewEmulator(ids...)

	if err := server.Listen(config.Endpoint); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Serve(emulator.Handle)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-emulator.Stopped():
		}
		util.Logger.Infof("Shutting down mock daemon")
		return server.Close()
	})
	return g.Wait()
}
