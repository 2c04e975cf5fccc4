package restserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pythia-analytics/pythia-forecast/internal/forecast"
)

const (
	forecastCacheKey = "forecast"
	dateLayout       = "2006-01-02"
)

// Handlers provides HTTP request handlers for the REST server
type Handlers struct {
	controller *Controller
}

// NewHandlers creates a new handlers instance
func NewHandlers(controller *Controller) *Handlers {
	return &Handlers{controller: controller}
}

type forecastResponse struct {
	Forecast    float64          `json:"forecast"`
	MAPE        float64          `json:"mape"`
	Future      []futurePoint    `json:"future"`
	GeneratedAt string           `json:"generatedAt"`
	Metadata    responseMetadata `json:"metadata"`
}

type futurePoint struct {
	Date  string  `json:"ds"`
	Value float64 `json:"yhat"`
	Lower float64 `json:"yhat_lower"`
	Upper float64 `json:"yhat_upper"`
}

type responseMetadata struct {
	Algorithm    string `json:"algorithm"`
	Tuning       string `json:"tuning"`
	DaysForecast int    `json:"days_forecast"`
	Status       string `json:"status"`
	CacheBypass  bool   `json:"cache_bypassed"`
}

type healthResponse struct {
	Status      string `json:"status"`
	DBEnabled   bool   `json:"database_enabled"`
	HorizonDays int    `json:"horizon_days"`
	Time        string `json:"time"`
}

// GetHealth returns a minimal liveness response.
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetHealthDetail reports service readiness details.
func (h *Handlers) GetHealthDetail(w http.ResponseWriter, req *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		DBEnabled:   h.controller.DBEnabled,
		HorizonDays: h.controller.generator.Horizon(),
		Time:        time.Now().UTC().Format(time.RFC3339),
	})
}

// GetForecast serves the current forecast, from cache when fresh enough.
func (h *Handlers) GetForecast(w http.ResponseWriter, req *http.Request) {
	if cached, ok := h.controller.cache.Get(forecastCacheKey); ok {
		if result, ok := cached.(*forecast.Result); ok {
			h.respond(w, result, false)
			return
		}
	}

	result := h.controller.generator.Generate(req.Context())
	h.controller.cache.Put(forecastCacheKey, result)
	h.respond(w, result, false)
}

// GetFreshForecast drops the cached forecast and regenerates it.
func (h *Handlers) GetFreshForecast(w http.ResponseWriter, req *http.Request) {
	if err := h.controller.cache.Invalidate(); err != nil {
		h.controller.logger.Errorf("error invalidating forecast cache: %v", err)
	}

	result := h.controller.generator.Generate(req.Context())
	h.controller.cache.Put(forecastCacheKey, result)
	h.respond(w, result, true)
}

func (h *Handlers) respond(w http.ResponseWriter, result *forecast.Result, bypassed bool) {
	if result.Status == forecast.StatusNoData {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":  "no event history available",
			"status": forecast.StatusNoData,
		})
		return
	}

	future := make([]futurePoint, len(result.Future))
	for i, p := range result.Future {
		future[i] = futurePoint{
			Date:  p.Date.Format(dateLayout),
			Value: p.Value,
			Lower: p.Lower,
			Upper: p.Upper,
		}
	}

	h.writeJSON(w, http.StatusOK, forecastResponse{
		Forecast:    result.Forecast,
		MAPE:        result.MAPE,
		Future:      future,
		GeneratedAt: result.GeneratedAt.UTC().Format(time.RFC3339),
		Metadata: responseMetadata{
			Algorithm:    forecast.Algorithm,
			Tuning:       result.Tuning,
			DaysForecast: len(result.Future),
			Status:       result.Status,
			CacheBypass:  bypassed,
		},
	})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.controller.logger.Errorf("error encoding response: %v", err)
	}
}
