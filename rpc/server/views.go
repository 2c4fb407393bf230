package server

import "github.com/sfdaemon/dapi/rpc/common"

// JSON bodies of the API. They are kept apart from the daemon payloads so the
// HTTP contract does not follow changes of the wire messages.

type stateView struct {
	Status  statusView  `json:"status"`
	Version versionView `json:"version"`
}

type statusView struct {
	Code      int64  `json:"code"`
	Message   string `json:"message"`
	StartTime int64  `json:"start-time"`
}

type versionView struct {
	BuildDate string `json:"build-date"`
	Config    string `json:"config"`
	Daemon    string `json:"snow-fox-daemon"`
}

type serviceView struct {
	ID      string `json:"id"`
	Status  int32  `json:"status"`
	Version string `json:"version"`
}

type serviceStateView struct {
	Connector string        `json:"connector"`
	Instances []serviceView `json:"instances"`
	Service   string        `json:"service"`
	Status    int32         `json:"status"`
	Version   string        `json:"version"`
}

func newStateView(s *common.DaemonState) stateView {
	return stateView{
		Status: statusView{
			Code:      s.StatusCode,
			Message:   s.StatusMessage,
			StartTime: s.StartTime,
		},
		Version: versionView{
			BuildDate: s.VersionDate,
			Config:    s.ConfigVersion,
			Daemon:    s.Version,
		},
	}
}

// newServiceViews never returns nil so an empty list encodes as []
func newServiceViews(items []common.ServiceInfo) []serviceView {
	views := make([]serviceView, 0, len(items))
	for _, item := range items {
		views = append(views, serviceView{ID: item.ID, Status: item.Status, Version: item.Version})
	}
	return views
}

func newServiceStateView(s *common.ServiceState) serviceStateView {
	return serviceStateView{
		Connector: s.Connector,
		Instances: newServiceViews(s.Instances),
		Service:   s.Service,
		Status:    s.Status,
		Version:   s.Version,
	}
}
