package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bnema/regatta/internal/server"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Registry string `json:"registry"`
	Uptime   string `json:"uptime"`
	Version  string `json:"version"`
}

// GetHealth reports the gateway status and whether the upstream registry
// answers its ping endpoint.
func GetHealth(c echo.Context, a *server.App) error {
	registry := "ok"
	status := http.StatusOK
	if err := a.Gateway.Ping(c.Request().Context()); err != nil {
		registry = err.Error()
		status = http.StatusServiceUnavailable
	}

	return sendJSONResponse(c, status, HealthResponse{
		Status:   "ok",
		Registry: registry,
		Uptime:   a.GetUptime(),
		Version:  a.GetVersionstring(),
	})
}
