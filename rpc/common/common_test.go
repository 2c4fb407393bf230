package common

import (
	"encoding/json"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientConfigWithDefaults(t *testing.T) {
	c := ClientConfig{}.WithDefaults()
	assert.Equal(t, DefaultDaemonEndpoint, c.Endpoint)
	assert.Equal(t, DefaultMaxConnections, c.MaxConnections)
	assert.Equal(t, DefaultMaxFrameSize, c.MaxFrameSize)

	c = ClientConfig{Endpoint: "daemon:1", MaxConnections: 3, MaxFrameSize: 1024}.WithDefaults()
	assert.Equal(t, "daemon:1", c.Endpoint)
	assert.Equal(t, 3, c.MaxConnections)
	assert.Equal(t, 1024, c.MaxFrameSize)
}

func TestMessageCodeJSON(t *testing.T) {
	b, err := json.Marshal(NewServiceStartRequest("web"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"ServiceStart"`)

	var msg Message
	require.NoError(t, json.Unmarshal(b, &msg))
	assert.Equal(t, MsgCodeServiceStart, msg.Code)
	assert.Equal(t, "web", msg.ServiceID.ServiceID)

	var code MessageCode
	assert.Error(t, json.Unmarshal([]byte(`"Bogus"`), &code))
	assert.Equal(t, "MessageCode(200)", MessageCode(200).String())
}

func TestErrorPayload(t *testing.T) {
	msg := NewErrorResponse(-1, "test")
	assert.True(t, msg.IsError())
	code, message := msg.ErrorPayload()
	assert.Equal(t, int32(-1), code)
	assert.Equal(t, "test", message)

	code, message = (&Message{Code: MsgCodeError}).ErrorPayload()
	assert.Equal(t, int32(0), code)
	assert.Empty(t, message)
	assert.False(t, NewAckResponse().IsError())
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]logger.LogLevel{
		"debug": logger.DEBUG,
		"INFO":  logger.INFO,
		"warn":  logger.WARNING,
		"error": logger.ERROR,
	} {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}
