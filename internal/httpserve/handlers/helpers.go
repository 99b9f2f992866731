package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/bnema/regatta/internal/gateway"
)

func sendJSONResponse(c echo.Context, statusCode int, response interface{}) error {
	err := c.JSON(statusCode, response)
	if err != nil {
		log.Error("Failed to send JSON response",
			"error", err,
			"statusCode", statusCode)
	}
	return err
}

type errorResponse struct {
	Error string `json:"error"`
}

// sendGatewayError maps gateway failures onto viewer-facing statuses:
// upstream HTTP errors keep their status and message, resolution misses are
// 404, anything transport-level is a 502 from the gateway itself.
func sendGatewayError(c echo.Context, err error) error {
	var upstream *gateway.UpstreamError
	switch {
	case errors.As(err, &upstream):
		return sendJSONResponse(c, upstream.StatusCode, errorResponse{Error: upstream.Message})
	case errors.Is(err, gateway.ErrManifestNotFound):
		return sendJSONResponse(c, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		log.Error("Gateway request failed", "error", err)
		return sendJSONResponse(c, http.StatusBadGateway, errorResponse{Error: err.Error()})
	}
}

// splitLastSegment splits a wildcard path into everything before the last
// slash and the final segment, e.g. "library/alpine/latest" into
// ("library/alpine", "latest").
func splitLastSegment(path string) (string, string) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}
