package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sfdaemon/dapi/rpc/client"
	"github.com/sfdaemon/dapi/rpc/common"
	"github.com/sfdaemon/dapi/rpc/daemon"
	"github.com/sfdaemon/dapi/rpc/serializer"
	"github.com/sfdaemon/dapi/rpc/transport"
	"github.com/sfdaemon/dapi/rpc/transport/tcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startAPI runs the API against an emulated daemon reached over TCP
func startAPI(t *testing.T) *httptest.Server {
	t.Helper()
	s := serializer.NewBinarySerializer()

	daemonServer := tcp.NewTCPServerTransport(s, 5, 0)
	require.NoError(t, daemonServer.Listen("127.0.0.1:0"))
	go daemonServer.Serve(daemon.NewEmulator("web", "db").Handle)
	t.Cleanup(func() { daemonServer.Close() })

	pool := tcp.NewTCPPool(common.ClientConfig{
		Endpoint:       daemonServer.Addr().String(),
		MaxConnections: 4,
		Transport:      common.ClientTransportConfig{TCPConf: common.TCPConf{TCPLingerSec: -1}},
	}, s)
	t.Cleanup(func() { pool.Close() })

	api := NewAPIServer(common.ServerConfig{TimeoutSecond: 5, LogLevel: "debug"}, client.NewDaemonClient(pool), pool)
	ts := httptest.NewServer(api.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestAPIServerState(t *testing.T) {
	ts := startAPI(t)

	status, body := do(t, http.MethodGet, ts.URL+"/server/state")
	require.Equal(t, http.StatusOK, status)

	var state stateView
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Equal(t, "running", state.Status.Message)
	assert.Equal(t, "0.1.0", state.Version.Daemon)
}

func TestAPIServiceLifecycle(t *testing.T) {
	ts := startAPI(t)

	status, body := do(t, http.MethodGet, ts.URL+"/services")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[{"id":"db","status":0,"version":"0.1.0"},{"id":"web","status":0,"version":"0.1.0"}]`, string(body))

	status, body = do(t, http.MethodPut, ts.URL+"/services/web")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"acknowledged":true}`, string(body))

	status, body = do(t, http.MethodGet, ts.URL+"/services/web")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"connector":"emulator","instances":[],"service":"web","status":1,"version":"0.1.0"}`, string(body))

	status, body = do(t, http.MethodDelete, ts.URL+"/services/web")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"acknowledged":true}`, string(body))
}

func TestAPIRemoteErrorIsBadGateway(t *testing.T) {
	ts := startAPI(t)

	status, body := do(t, http.MethodGet, ts.URL+"/services/missing")
	assert.Equal(t, http.StatusBadGateway, status)
	assert.JSONEq(t, `{"code":2,"message":"service missing not found"}`, string(body))
}

func TestAPIMetrics(t *testing.T) {
	ts := startAPI(t)

	status, _ := do(t, http.MethodGet, ts.URL+"/services")
	require.Equal(t, http.StatusOK, status)

	status, body := do(t, http.MethodGet, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, status)
	text := string(body)
	assert.Contains(t, text, `dapi_api_requests_total{route="GET /services",code="200"} 1`)
	assert.Contains(t, text, "dapi_pool_connections 1")
	assert.Contains(t, text, "dapi_pool_connections_created_total 1")
}

// failingTransport fails every request with err
type failingTransport struct {
	err error
}

func (f *failingTransport) Send(context.Context, *common.Message) error { return f.err }

func (f *failingTransport) SendAndWait(context.Context, *common.Message) (*common.Message, error) {
	return nil, f.err
}

func (f *failingTransport) SendAndWaitAck(context.Context, *common.Message) error { return f.err }

func (f *failingTransport) Close() error { return nil }

// fixedTransport answers every request with resp
type fixedTransport struct {
	resp *common.Message
}

func (f *fixedTransport) Send(context.Context, *common.Message) error { return nil }

func (f *fixedTransport) SendAndWait(context.Context, *common.Message) (*common.Message, error) {
	return f.resp, nil
}

func (f *fixedTransport) SendAndWaitAck(context.Context, *common.Message) error { return nil }

func (f *fixedTransport) Close() error { return nil }

func TestAPIResponseBodies(t *testing.T) {
	tests := []struct {
		name string
		path string
		resp *common.Message
		body string
	}{
		{
			name: "server state",
			path: "/server/state",
			resp: common.NewStateResponse(common.DaemonState{
				StatusCode:    4,
				StatusMessage: "Up and running",
				StartTime:     33,
				Version:       "0.0.0-8296ad5",
				VersionDate:   "2015-10-11 20:49:30",
				ConfigVersion: "not-applicable",
			}),
			body: `{
				"status": {"code": 4, "message": "Up and running", "start-time": 33},
				"version": {"build-date": "2015-10-11 20:49:30", "config": "not-applicable", "snow-fox-daemon": "0.0.0-8296ad5"}
			}`,
		},
		{
			name: "service list",
			path: "/services",
			resp: common.NewServiceListResponse([]common.ServiceInfo{
				{ID: "abc", Status: 1, Version: "def"},
				{ID: "123", Status: 2},
			}),
			body: `[{"id":"abc","status":1,"version":"def"},{"id":"123","status":2,"version":""}]`,
		},
		{
			name: "empty service list",
			path: "/services",
			resp: common.NewServiceListResponse(nil),
			body: `[]`,
		},
		{
			name: "service with instances",
			path: "/services/service.with.instances",
			resp: common.NewServiceStateResponse(common.ServiceState{
				Connector: "test",
				Service:   "service.with.instances",
				Status:    2,
				Version:   "abc",
				Instances: []common.ServiceInfo{
					{ID: "a", Status: -1, Version: "abc"},
					{ID: "b", Status: 1, Version: "def"},
				},
			}),
			body: `{
				"connector": "test", "service": "service.with.instances", "status": 2, "version": "abc",
				"instances": [{"id":"a","status":-1,"version":"abc"},{"id":"b","status":1,"version":"def"}]
			}`,
		},
		{
			name: "service without instances",
			path: "/services/bare",
			resp: common.NewServiceStateResponse(common.ServiceState{Service: "bare", Status: 2}),
			body: `{"connector":"","instances":[],"service":"bare","status":2,"version":""}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			api := NewAPIServer(common.ServerConfig{}, client.NewDaemonClient(&fixedTransport{resp: tc.resp}), nil)
			rec := httptest.NewRecorder()
			api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, tc.body, rec.Body.String())
		})
	}
}

func TestAPIErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"exhausted", transport.ErrPoolExhausted, http.StatusServiceUnavailable, "connection pool exhausted"},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, "context deadline exceeded"},
		{"unexpected", &transport.UnexpectedResponseError{Code: common.MsgCodeAck, Expected: common.MsgCodeState}, http.StatusBadGateway, "unexpected response Ack, expected State"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "Unable to recover from an error: boom"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			api := NewAPIServer(common.ServerConfig{}, client.NewDaemonClient(&failingTransport{err: tc.err}), nil)
			rec := httptest.NewRecorder()
			api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/server/state", nil))

			assert.Equal(t, tc.status, rec.Code)
			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Nil(t, body.Code)
			assert.True(t, strings.HasPrefix(body.Message, tc.body), body.Message)
		})
	}
}

func TestAPIUnknownRoute(t *testing.T) {
	api := NewAPIServer(common.ServerConfig{}, client.NewDaemonClient(&failingTransport{}), nil)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/services/web", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
