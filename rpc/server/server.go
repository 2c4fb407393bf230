package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/sfdaemon/dapi/rpc/client"
	"github.com/sfdaemon/dapi/rpc/common"
	"github.com/sfdaemon/dapi/rpc/transport"
	"github.com/sfdaemon/dapi/rpc/transport/base"
	"golang.org/x/sync/errgroup"
	"net/http"
	"time"
)

var Logger = logger.GetLogger("api")

const shutdownTimeout = 5 * time.Second

// IPoolInfo exposes the bookkeeping of the connection pool to the metrics endpoint
type IPoolInfo interface {
	Stats() base.PoolStats
	Metrics() gometrics.Registry
}

// APIServer is the JSON HTTP API in front of the service daemon
//
// Usage:
//
//	s := server.NewAPIServer(config, client.NewDaemonClient(pool), pool)
//	if err := s.Serve(ctx); err != nil {
//		panic(err)
//	}
type APIServer struct {
	config  common.ServerConfig
	client  *client.DaemonClient
	metrics *metrics.Set
	handler http.Handler
}

// NewAPIServer creates the API. pool may be nil, then no pool metrics are exported.
func NewAPIServer(config common.ServerConfig, c *client.DaemonClient, pool IPoolInfo) *APIServer {
	s := &APIServer{
		config:  config,
		client:  c,
		metrics: metrics.NewSet(),
	}
	if pool != nil {
		registerPoolMetrics(s.metrics, pool)
	}

	mux := http.NewServeMux()
	s.route(mux, "GET /server/state", s.handleState)
	s.route(mux, "GET /services", s.handleListServices)
	s.route(mux, "GET /services/{id}", s.handleServiceState)
	s.route(mux, "PUT /services/{id}", s.handleStartService)
	s.route(mux, "DELETE /services/{id}", s.handleStopService)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	s.handler = mux

	Logger.Infof("Created HTTP API")
	Logger.Infof(config.String())
	return s
}

// Handler returns the http.Handler serving all routes
func (s *APIServer) Handler() http.Handler {
	return s.handler
}

// Serve listens on the configured endpoint until ctx is done, then shuts the server down gracefully
func (s *APIServer) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Endpoint,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		Logger.Infof("Starting HTTP API on %s", s.config.Endpoint)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		Logger.Infof("Shutting down HTTP API")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// --------------------------------------------------------------------------
// Handlers
// --------------------------------------------------------------------------

func (s *APIServer) handleState(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	state, err := s.client.State(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateView(state))
}

func (s *APIServer) handleListServices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	services, err := s.client.ListServices(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newServiceViews(services))
}

func (s *APIServer) handleServiceState(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	state, err := s.client.ServiceState(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newServiceStateView(state))
}

func (s *APIServer) handleStartService(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	if err := s.client.StartService(ctx, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acknowledged{Acknowledged: true})
}

func (s *APIServer) handleStopService(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	if err := s.client.StopService(ctx, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acknowledged{Acknowledged: true})
}

func (s *APIServer) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	s.metrics.WritePrometheus(w)
	metrics.WriteProcessMetrics(w)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

type acknowledged struct {
	Acknowledged bool `json:"acknowledged"`
}

type errorBody struct {
	Code    *int32 `json:"code,omitempty"`
	Message string `json:"message"`
}

// requestContext bounds the daemon call of a request by the configured timeout
func (s *APIServer) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.config.TimeoutSecond > 0 {
		return context.WithTimeout(r.Context(), time.Duration(s.config.TimeoutSecond)*time.Second)
	}
	return context.WithCancel(r.Context())
}

// route registers a handler wrapped with request metrics and, at debug level, request logging
func (s *APIServer) route(mux *http.ServeMux, pattern string, handler http.HandlerFunc) {
	h := metricsMiddleware(s.metrics, pattern, handler)
	if s.config.LogLevel == "debug" {
		h = loggerMiddleware(h)
	}
	mux.HandleFunc(pattern, h)
}

// statusOf maps a daemon call error to an HTTP status
func statusOf(err error) int {
	var remote *transport.RemoteProtocolError
	var unexpected *transport.UnexpectedResponseError
	switch {
	case errors.As(err, &remote), errors.As(err, &unexpected):
		return http.StatusBadGateway
	case errors.Is(err, transport.ErrPoolExhausted):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	body := errorBody{Message: err.Error()}

	var remote *transport.RemoteProtocolError
	if errors.As(err, &remote) {
		body = errorBody{Code: &remote.Code, Message: remote.Message}
	} else if status == http.StatusInternalServerError {
		body.Message = fmt.Sprintf("Unable to recover from an error: %s", err)
	}

	Logger.Errorf("Request failed with %d: %v", status, err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Logger.Errorf("Failed to write response: %v", err)
	}
}
