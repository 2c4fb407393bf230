package util

import (
	"strings"
	"testing"

	"github.com/sfdaemon/dapi/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapString(t *testing.T) {
	wrapped := WrapString(strings.Repeat("word ", 30))
	for _, line := range strings.Split(wrapped, "\n") {
		assert.LessOrEqual(t, len(line), Wrap)
	}
}

func TestClientConfigFromFlagsAndEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("DAPI_MAX_CONNECTIONS", "3")

	cmd := &cobra.Command{Use: "test"}
	SetupRPCClientFlags(cmd)
	cmd.PersistentFlags().String("serializer", "json", "")
	cmd.PersistentFlags().String("transport", "unix", "")
	require.NoError(t, cmd.ParseFlags([]string{"--daemon-endpoint", "/tmp/daemon.sock"}))
	InitClientConfig()
	require.NoError(t, viper.BindPFlags(cmd.PersistentFlags()))

	config := GetClientConfig()
	assert.Equal(t, "/tmp/daemon.sock", config.Endpoint)
	assert.Equal(t, 3, config.MaxConnections)
	assert.Equal(t, common.DefaultMaxFrameSize, config.MaxFrameSize)
	assert.Equal(t, -1, config.Transport.TCPLingerSec)

	s, err := GetSerializer()
	require.NoError(t, err)
	assert.NotNil(t, s)

	tr, err := GetTransport(*config, s)
	require.NoError(t, err)
	assert.NoError(t, tr.Close())

	viper.Set("serializer", "xml")
	_, err = GetSerializer()
	assert.Error(t, err)
}
