// Package restserver exposes the forecasting pipeline over HTTP.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pythia-analytics/pythia-forecast/internal/cache"
	"github.com/pythia-analytics/pythia-forecast/internal/forecast"
	"github.com/pythia-analytics/pythia-forecast/internal/log"
	"github.com/pythia-analytics/pythia-forecast/pkg/config"
	"go.uber.org/zap"
)

// ForecastGenerator is the pipeline surface the HTTP layer needs.
type ForecastGenerator interface {
	Generate(ctx context.Context) *forecast.Result
	Horizon() int
}

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	httpConfig config.HTTPData
	Server     http.Server
	generator  ForecastGenerator
	cache      *cache.Cache
	DBEnabled  bool
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, hc config.HTTPData, generator ForecastGenerator, memo *cache.Cache, dbEnabled bool, logger *zap.SugaredLogger) (*Controller, error) {
	if generator == nil {
		return nil, fmt.Errorf("a forecast pipeline is required for the REST server")
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if hc.ListenAddr == "" {
		logger.Info("http.listen-addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		hc.ListenAddr = "0.0.0.0"
	}

	// Set default HTTP port if not specified
	if hc.Port == 0 {
		logger.Info("http.port not provided; defaulting to 8080")
		hc.Port = 8080
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		httpConfig: hc,
		generator:  generator,
		cache:      memo,
		DBEnabled:  dbEnabled,
		logger:     logger,
	}

	ctrl.handlers = NewHandlers(ctrl)

	router := ctrl.setupRouter()
	accessLog := zap.NewStdLog(log.GetZapLogger()).Writer()
	ctrl.Server.Addr = fmt.Sprintf("%v:%v", hc.ListenAddr, hc.Port)
	ctrl.Server.Handler = handlers.RecoveryHandler()(handlers.CombinedLoggingHandler(accessLog, router))

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Info("Starting REST server controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/", c.handlers.GetHealth).Methods(http.MethodGet)
	router.HandleFunc("/health", c.handlers.GetHealthDetail).Methods(http.MethodGet)

	// POST /forecast mirrors GET for callers that can only trigger.
	router.HandleFunc("/forecast", c.handlers.GetForecast).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/forecast/fresh", c.handlers.GetFreshForecast).Methods(http.MethodPost)

	return router
}
