package client

import (
	"context"
	"fmt"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/sfdaemon/dapi/rpc/common"
	"github.com/sfdaemon/dapi/rpc/transport"
)

var (
	Logger = logger.GetLogger("rpc")
)

// invokeRPCRequest sends a request and waits for its response.
// It checks that the response has the expected code, error responses are
// already returned as *transport.RemoteProtocolError by the transport.
func invokeRPCRequest(ctx context.Context, t transport.IRPCClientTransport, req *common.Message, expected common.MessageCode) (*common.Message, error) {
	resp, err := t.SendAndWait(ctx, req)
	if err != nil {
		return nil, err
	}

	// Check if the type of the response is the expected type
	if resp.Code != expected {
		return nil, &transport.UnexpectedResponseError{Code: resp.Code, Expected: expected}
	}
	return resp, nil
}

// missingPayload is returned for responses with the right code but without a payload
func missingPayload(code common.MessageCode, payload string) error {
	return fmt.Errorf("%s response without %s payload", code, payload)
}
