package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-gateway/internal/model"
	"github.com/fakhrymubarak/weather-gateway/internal/service"
)

type WeatherHandler struct {
	WeatherService service.WeatherServiceInterface
	Logger         *zap.SugaredLogger
}

func NewWeatherHandler(svc service.WeatherServiceInterface, logger *zap.SugaredLogger) *WeatherHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &WeatherHandler{
		WeatherService: svc,
		Logger:         logger,
	}
}

func writeJSONResponse(w http.ResponseWriter, logger *zap.SugaredLogger, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorw("could not encode json", "error", err)
	}
}

func (h *WeatherHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	writeJSONResponse(w, h.Logger, statusCode, data)
}

// HandleWeather
// @Summary Get current weather
// @Description Returns the provider's current weather payload for a city, unchanged
// @Tags weather
// @Produce json
// @Param city query string true "City name"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 405 {object} model.ErrorResponse
// @Failure 429 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/weather/ [get]
func (h *WeatherHandler) HandleWeather(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		h.writeJSONResponse(w, http.StatusMethodNotAllowed, model.ErrorResponse{Detail: "Method not allowed"})
		return
	}

	query := r.URL.Query()
	if _, ok := query["city"]; !ok {
		h.writeJSONResponse(w, http.StatusBadRequest, model.ErrorResponse{Detail: "Missing 'city' query parameter"})
		return
	}

	weather, err := h.WeatherService.GetWeather(r.Context(), query.Get("city"))
	if err != nil {
		var lerr *service.LookupError
		if errors.As(err, &lerr) {
			h.writeJSONResponse(w, http.StatusNotFound, model.ErrorResponse{Detail: lerr.Error()})
			return
		}
		h.Logger.Errorw("Unexpected weather lookup error", "city", query.Get("city"), "error", err)
		h.writeJSONResponse(w, http.StatusInternalServerError, model.ErrorResponse{Detail: "Internal server error"})
		return
	}

	h.writeJSONResponse(w, http.StatusOK, weather)
}
