package transport

import (
	"errors"
	"fmt"
	"github.com/sfdaemon/dapi/rpc/common"
)

var (
	// ErrPoolExhausted is returned when every connection of the pool is busy
	// and no new connection may be opened.
	ErrPoolExhausted = errors.New("connection pool exhausted")

	// ErrPoolClosed is returned by a pool after Close.
	ErrPoolClosed = errors.New("connection pool closed")

	// ErrNotConnected is returned when sending on a connection that is not open.
	ErrNotConnected = errors.New("connection not established")

	// ErrAlreadyConfigured is returned when opening a connection a second time.
	// Connections are single use.
	ErrAlreadyConfigured = errors.New("connection already configured")

	// ErrConnectionClosed is reported to a pending exchange when the peer or the
	// local side closes the connection without a transport error.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrFrameTooLarge is returned when a frame exceeds the configured maximum size.
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrExchangeInFlight is returned when a second exchange is started on a
	// connection that still waits for a response.
	ErrExchangeInFlight = errors.New("exchange already in flight on connection")
)

// RemoteProtocolError is a well-formed Error response of the daemon
type RemoteProtocolError struct {
	Code    int32
	Message string
}

func (e *RemoteProtocolError) Error() string {
	return fmt.Sprintf("daemon error %d: %s", e.Code, e.Message)
}

// NewRemoteProtocolError builds the error carried by an Error response
func NewRemoteProtocolError(msg *common.Message) *RemoteProtocolError {
	code, message := msg.ErrorPayload()
	return &RemoteProtocolError{Code: code, Message: message}
}

// UnexpectedResponseError is returned when a response has a different kind than required
type UnexpectedResponseError struct {
	Code     common.MessageCode
	Expected common.MessageCode
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected response %s, expected %s", e.Code, e.Expected)
}
