package client

import (
	"context"
	"github.com/sfdaemon/dapi/rpc/common"
	"github.com/sfdaemon/dapi/rpc/transport"
)

// DaemonClient exposes the operations of the service daemon.
// Every call occupies one pooled connection of the transport until it returns.
type DaemonClient struct {
	transport transport.IRPCClientTransport
}

// NewDaemonClient creates a client sending its requests over t
func NewDaemonClient(t transport.IRPCClientTransport) *DaemonClient {
	return &DaemonClient{transport: t}
}

// State returns the status of the daemon itself
func (c *DaemonClient) State(ctx context.Context) (*common.DaemonState, error) {
	resp, err := invokeRPCRequest(ctx, c.transport, common.NewStateRequest(), common.MsgCodeState)
	if err != nil {
		return nil, err
	}
	if resp.State == nil {
		return nil, missingPayload(resp.Code, "state")
	}
	return resp.State, nil
}

// ListServices returns every service known to the daemon
func (c *DaemonClient) ListServices(ctx context.Context) ([]common.ServiceInfo, error) {
	resp, err := invokeRPCRequest(ctx, c.transport, common.NewServiceListRequest(), common.MsgCodeServiceList)
	if err != nil {
		return nil, err
	}
	if resp.ServiceList == nil {
		return nil, missingPayload(resp.Code, "service list")
	}
	if resp.ServiceList.Items == nil {
		return []common.ServiceInfo{}, nil
	}
	return resp.ServiceList.Items, nil
}

// ServiceState returns the state of one service
func (c *DaemonClient) ServiceState(ctx context.Context, serviceID string) (*common.ServiceState, error) {
	resp, err := invokeRPCRequest(ctx, c.transport, common.NewServiceStateRequest(serviceID), common.MsgCodeServiceState)
	if err != nil {
		return nil, err
	}
	if resp.ServiceState == nil {
		return nil, missingPayload(resp.Code, "service state")
	}
	return resp.ServiceState, nil
}

// StartService asks the daemon to start a service, the daemon acknowledges before the service is up
func (c *DaemonClient) StartService(ctx context.Context, serviceID string) error {
	return c.transport.SendAndWaitAck(ctx, common.NewServiceStartRequest(serviceID))
}

// StopService asks the daemon to stop a service
func (c *DaemonClient) StopService(ctx context.Context, serviceID string) error {
	return c.transport.SendAndWaitAck(ctx, common.NewServiceStopRequest(serviceID))
}

// StopDaemon asks the daemon to shut down. The daemon does not answer, so the
// call returns once the request is written.
func (c *DaemonClient) StopDaemon(ctx context.Context) error {
	Logger.Warningf("Requesting daemon shutdown")
	return c.transport.Send(ctx, common.NewStopRequest())
}

// Close closes the underlying transport
func (c *DaemonClient) Close() error {
	return c.transport.Close()
}
