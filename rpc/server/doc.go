// Package server implements the JSON HTTP API in front of the service daemon.
//
// Routes:
//
//	GET    /server/state     daemon state
//	GET    /services         all services
//	GET    /services/{id}    state of one service
//	PUT    /services/{id}    start a service, answers {"acknowledged": true}
//	DELETE /services/{id}    stop a service, answers {"acknowledged": true}
//	GET    /metrics          request and pool metrics in Prometheus text format
//
// Daemon error responses are answered with 502 and the daemon's code and
// message. A saturated connection pool answers 503, an exceeded request
// timeout 504 and any other failure 500.
package server
