package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message is the generic envelope exchanged with the daemon.
// The Code selects which of the optional payloads is meaningful.
type Message struct {
	// Kind of message
	Code MessageCode `json:"code"`

	// Payloads (at most one is set for a well-formed message)
	Error        *ErrorInfo    `json:"error,omitempty"`         // Used for: Error responses
	State        *DaemonState  `json:"state,omitempty"`         // Used for: State responses
	ServiceList  *ServiceList  `json:"service_list,omitempty"`  // Used for: ServiceList responses
	ServiceID    *ServiceID    `json:"service_id,omitempty"`    // Used for: ServiceState, ServiceStart, ServiceStop requests
	ServiceState *ServiceState `json:"service_state,omitempty"` // Used for: ServiceState responses
}

// ErrorInfo is the payload of an Error message
type ErrorInfo struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

// DaemonState describes the daemon process itself
type DaemonState struct {
	StatusCode    int64  `json:"status_code"`
	StatusMessage string `json:"status_message,omitempty"`
	StartTime     int64  `json:"start_time"`
	Version       string `json:"version,omitempty"`
	VersionDate   string `json:"version_date,omitempty"`
	ConfigVersion string `json:"config_version,omitempty"`
}

// ServiceInfo is a single service (or service instance) entry
type ServiceInfo struct {
	ID      string `json:"id"`
	Status  int32  `json:"status"`
	Version string `json:"version,omitempty"`
}

// ServiceList is the payload of a ServiceList response
type ServiceList struct {
	Items []ServiceInfo `json:"items"`
}

// ServiceID identifies the service a request is about
type ServiceID struct {
	ServiceID string `json:"service_id"`
}

// ServiceState is the detailed state of one service
type ServiceState struct {
	Connector string        `json:"connector,omitempty"`
	Service   string        `json:"service"`
	Status    int32         `json:"status"`
	Version   string        `json:"version,omitempty"`
	Instances []ServiceInfo `json:"instances,omitempty"`
}

// IsError reports whether the message is a protocol-level error response
func (m *Message) IsError() bool {
	return m != nil && m.Code == MsgCodeError
}

// ErrorPayload returns the error code and message of an Error message.
// A missing payload yields code 0 and an empty message.
func (m *Message) ErrorPayload() (int32, string) {
	if m == nil || m.Error == nil {
		return 0, ""
	}
	return m.Error.Code, m.Error.Message
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewStateRequest creates a new State request
func NewStateRequest() *Message {
	return &Message{Code: MsgCodeState}
}

// NewStateResponse creates a new State response
func NewStateResponse(state DaemonState) *Message {
	return &Message{
		Code:  MsgCodeState,
		State: &state,
	}
}

// NewServiceListRequest creates a new ServiceList request
func NewServiceListRequest() *Message {
	return &Message{Code: MsgCodeServiceList}
}

// NewServiceListResponse creates a new ServiceList response
func NewServiceListResponse(items []ServiceInfo) *Message {
	return &Message{
		Code:        MsgCodeServiceList,
		ServiceList: &ServiceList{Items: items},
	}
}

// NewServiceStateRequest creates a new ServiceState request
func NewServiceStateRequest(serviceID string) *Message {
	return &Message{
		Code:      MsgCodeServiceState,
		ServiceID: &ServiceID{ServiceID: serviceID},
	}
}

// NewServiceStateResponse creates a new ServiceState response
func NewServiceStateResponse(state ServiceState) *Message {
	return &Message{
		Code:         MsgCodeServiceState,
		ServiceState: &state,
	}
}

// NewServiceStartRequest creates a new ServiceStart request
func NewServiceStartRequest(serviceID string) *Message {
	return &Message{
		Code:      MsgCodeServiceStart,
		ServiceID: &ServiceID{ServiceID: serviceID},
	}
}

// NewServiceStopRequest creates a new ServiceStop request
func NewServiceStopRequest(serviceID string) *Message {
	return &Message{
		Code:      MsgCodeServiceStop,
		ServiceID: &ServiceID{ServiceID: serviceID},
	}
}

// NewStopRequest creates a request asking the daemon to shut down
func NewStopRequest() *Message {
	return &Message{Code: MsgCodeStop}
}

// NewAckResponse creates a new Ack response
func NewAckResponse() *Message {
	return &Message{Code: MsgCodeAck}
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(code int32, message string) *Message {
	return &Message{
		Code:  MsgCodeError,
		Error: &ErrorInfo{Code: code, Message: message},
	}
}

// --------------------------------------------------------------------------
// Message Codes
// --------------------------------------------------------------------------

// MessageCode is the discriminator of a Message
type MessageCode uint8

const (
	// Control messages

	MsgCodeUnknown MessageCode = iota
	MsgCodeAck                 // The daemon accepted a command
	MsgCodeError               // The daemon failed to process a request

	// Daemon messages

	MsgCodeState // Daemon state
	MsgCodeStop  // Stop the daemon

	// Service messages

	MsgCodeServiceList  // List all known services
	MsgCodeServiceState // State of a single service
	MsgCodeServiceStart // Start a service
	MsgCodeServiceStop  // Stop a service
)

var messageCodeNames = map[MessageCode]string{
	MsgCodeUnknown:      "Unknown",
	MsgCodeAck:          "Ack",
	MsgCodeError:        "Error",
	MsgCodeState:        "State",
	MsgCodeStop:         "Stop",
	MsgCodeServiceList:  "ServiceList",
	MsgCodeServiceState: "ServiceState",
	MsgCodeServiceStart: "ServiceStart",
	MsgCodeServiceStop:  "ServiceStop",
}

// String returns the string representation of a MessageCode.
func (c MessageCode) String() string {
	if name, ok := messageCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("MessageCode(%d)", uint8(c))
}

// MarshalJSON encodes the code by name
func (c MessageCode) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a code from its name
func (c *MessageCode) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for code, n := range messageCodeNames {
		if n == name {
			*c = code
			return nil
		}
	}
	return fmt.Errorf("unknown message code: %s", name)
}
