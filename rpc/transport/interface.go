package transport

import (
	"context"
	"github.com/sfdaemon/dapi/rpc/common"
)

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the request/response contract towards the daemon.
// Each call occupies one connection exclusively until it completes or fails.
// Failures are returned to the caller and never retried.
type IRPCClientTransport interface {
	// Send writes the message and returns once the write completed locally.
	// Delivery to the daemon is not awaited.
	Send(ctx context.Context, msg *common.Message) error
	// SendAndWait writes the message and waits for the next message from the daemon.
	// An Error response is returned as *RemoteProtocolError.
	SendAndWait(ctx context.Context, msg *common.Message) (*common.Message, error)
	// SendAndWaitAck is SendAndWait that only accepts an Ack response.
	// Any other response is returned as *UnexpectedResponseError.
	SendAndWaitAck(ctx context.Context, msg *common.Message) error
	// Close closes every connection of the transport
	Close() error
}
