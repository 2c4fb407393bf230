package daemon

import (
	"fmt"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/sfdaemon/dapi/rpc/common"
	"sort"
	"sync"
	"time"
)

var Logger = logger.GetLogger("rpc")

// Service status values reported by the emulator
const (
	StatusStopped int32 = 0
	StatusRunning int32 = 1
)

// Error codes of the error responses sent by the emulator
const (
	ErrCodeUnsupported     int32 = 1
	ErrCodeServiceNotFound int32 = 2
	ErrCodeBadRequest      int32 = 3
)

const (
	emulatorVersion     = "0.1.0"
	emulatorVersionDate = "2026-01-01"
	emulatorConnector   = "emulator"
)

// Emulator is an in-memory service daemon. Its Handle method answers
// requests like the real daemon and plugs into a base.ServerTransport.
type Emulator struct {
	mu        sync.Mutex
	startTime time.Time
	services  map[string]*common.ServiceState
	stopped   chan struct{}
	stopOnce  sync.Once
}

// NewEmulator creates an emulator knowing the given services, all stopped
func NewEmulator(serviceIDs ...string) *Emulator {
	e := &Emulator{
		startTime: time.Now(),
		services:  make(map[string]*common.ServiceState, len(serviceIDs)),
		stopped:   make(chan struct{}),
	}
	for _, id := range serviceIDs {
		e.services[id] = &common.ServiceState{
			Connector: emulatorConnector,
			Service:   id,
			Status:    StatusStopped,
			Version:   emulatorVersion,
		}
	}
	return e
}

// Stopped is closed once a Stop request was received
func (e *Emulator) Stopped() <-chan struct{} {
	return e.stopped
}

// Handle answers one request
func (e *Emulator) Handle(req *common.Message) (*common.Message, error) {
	switch req.Code {
	case common.MsgCodeState:
		return common.NewStateResponse(e.state()), nil

	case common.MsgCodeServiceList:
		return common.NewServiceListResponse(e.list()), nil

	case common.MsgCodeServiceState:
		id, errResp := serviceID(req)
		if errResp != nil {
			return errResp, nil
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		svc, ok := e.services[id]
		if !ok {
			return notFound(id), nil
		}
		state := *svc
		state.Instances = []common.ServiceInfo{{ID: id + "-0", Status: svc.Status, Version: svc.Version}}
		return common.NewServiceStateResponse(state), nil

	case common.MsgCodeServiceStart, common.MsgCodeServiceStop:
		id, errResp := serviceID(req)
		if errResp != nil {
			return errResp, nil
		}
		status := StatusRunning
		if req.Code == common.MsgCodeServiceStop {
			status = StatusStopped
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		svc, ok := e.services[id]
		if !ok {
			return notFound(id), nil
		}
		svc.Status = status
		Logger.Infof("Service %s is now %s", id, statusName(status))
		return common.NewAckResponse(), nil

	case common.MsgCodeStop:
		// the daemon shuts down without answering
		e.stopOnce.Do(func() {
			Logger.Infof("Stop requested")
			close(e.stopped)
		})
		return nil, nil

	default:
		return common.NewErrorResponse(ErrCodeUnsupported, fmt.Sprintf("unsupported message %s", req.Code)), nil
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (e *Emulator) state() common.DaemonState {
	return common.DaemonState{
		StatusCode:    int64(StatusRunning),
		StatusMessage: "running",
		StartTime:     e.startTime.Unix(),
		Version:       emulatorVersion,
		VersionDate:   emulatorVersionDate,
		ConfigVersion: "1",
	}
}

func (e *Emulator) list() []common.ServiceInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	items := make([]common.ServiceInfo, 0, len(e.services))
	for id, svc := range e.services {
		items = append(items, common.ServiceInfo{ID: id, Status: svc.Status, Version: svc.Version})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func serviceID(req *common.Message) (string, *common.Message) {
	if req.ServiceID == nil || req.ServiceID.ServiceID == "" {
		return "", common.NewErrorResponse(ErrCodeBadRequest, "missing service id")
	}
	return req.ServiceID.ServiceID, nil
}

func notFound(id string) *common.Message {
	return common.NewErrorResponse(ErrCodeServiceNotFound, fmt.Sprintf("service %s not found", id))
}

func statusName(status int32) string {
	if status == StatusRunning {
		return "running"
	}
	return "stopped"
}
