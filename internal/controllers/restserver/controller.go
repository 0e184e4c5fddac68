// Package restserver serves the planetary hour operations over HTTP.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/chrissnell/planetaryhours/internal/log"
	"github.com/chrissnell/planetaryhours/internal/planetary"
	"github.com/chrissnell/planetaryhours/internal/service"
	"github.com/chrissnell/planetaryhours/pkg/config"
)

// PlanetaryService is the set of operations the handlers expose
type PlanetaryService interface {
	GetPlanetaryHours(ctx context.Context, req service.HoursRequest) (*service.HoursResponse, error)
	GetCurrentPercentage(ctx context.Context, req service.PercentRequest) (*service.PercentResponse, error)
	MapEquivalentPercents(ctx context.Context, req service.EquivalentRequest) (*planetary.MappingResult, error)
	MapEquivalentPercentsBetweenLocations(ctx context.Context, req service.BetweenRequest) (*planetary.MappingResult, error)
}

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.ServerData
	Server     http.Server
	service    PlanetaryService
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.ServerData, svc PlanetaryService, logger *zap.SugaredLogger) (*Controller, error) {
	if svc == nil {
		return nil, fmt.Errorf("REST server requires a planetary hours service")
	}
	if logger == nil {
		logger = log.GetSugaredLogger()
	}

	// If a listen address was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		logger.Infof("server.listen_addr not provided; defaulting to %s (all interfaces)", config.DefaultListenAddr)
		rc.ListenAddr = config.DefaultListenAddr
	}

	// Set default HTTP port if not specified
	if rc.Port == 0 {
		logger.Infof("server.port not provided; defaulting to %d", config.DefaultPort)
		rc.Port = config.DefaultPort
	}

	if rc.RequestTimeout <= 0 {
		rc.RequestTimeout = config.DefaultRequestTimeout
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		service:    svc,
		logger:     logger,
	}
	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// Handler returns the routed HTTP handler
func (c *Controller) Handler() http.Handler {
	return c.Server.Handler
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infof("starting REST server on %s", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		var err error
		if c.restConfig.Cert != "" && c.restConfig.Key != "" {
			err = c.Server.ListenAndServeTLS(c.restConfig.Cert, c.restConfig.Key)
		} else {
			err = c.Server.ListenAndServe()
		}
		if err != http.ErrServerClosed {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.Use(c.requestIDMiddleware, c.loggingMiddleware, c.timeoutMiddleware)

	router.HandleFunc("/healthz", c.handlers.Healthz).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/hours", c.handlers.GetHours).Methods(http.MethodGet)
	api.HandleFunc("/percentage", c.handlers.GetPercentage).Methods(http.MethodGet)
	api.HandleFunc("/equivalent", c.handlers.GetEquivalent).Methods(http.MethodGet)
	api.HandleFunc("/equivalent/between", c.handlers.GetEquivalentBetween).Methods(http.MethodGet)

	return router
}
