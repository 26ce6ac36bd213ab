package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-gateway/internal/model"
)

// RootHandler serves the welcome document and the health probe.
type RootHandler struct {
	AppName    string
	APIVersion string
	DocsPath   string
	Logger     *zap.SugaredLogger
}

func NewRootHandler(appName, apiVersion, docsPath string, logger *zap.SugaredLogger) *RootHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &RootHandler{AppName: appName, APIVersion: apiVersion, DocsPath: docsPath, Logger: logger}
}

// HandleRoot
// @Summary Service information
// @Tags meta
// @Produce json
// @Success 200 {object} model.RootResponse
// @Failure 404 {object} model.ErrorResponse
// @Router / [get]
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	// "/" is the ServeMux catch-all.
	if r.URL.Path != "/" {
		writeJSONResponse(w, h.Logger, http.StatusNotFound, model.ErrorResponse{Detail: "Not Found"})
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSONResponse(w, h.Logger, http.StatusMethodNotAllowed, model.ErrorResponse{Detail: "Method not allowed"})
		return
	}
	writeJSONResponse(w, h.Logger, http.StatusOK, model.RootResponse{
		Message: "Welcome to " + h.AppName,
		Version: h.APIVersion,
		Docs:    h.DocsPath,
	})
}

// HandleHealth
// @Summary Health check
// @Tags meta
// @Produce json
// @Success 200 {object} model.HealthResponse
// @Router /health [get]
func (h *RootHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSONResponse(w, h.Logger, http.StatusMethodNotAllowed, model.ErrorResponse{Detail: "Method not allowed"})
		return
	}
	writeJSONResponse(w, h.Logger, http.StatusOK, model.HealthResponse{Status: "healthy"})
}
