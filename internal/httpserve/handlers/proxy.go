package handlers

import (
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/bnema/regatta/internal/gateway"
	"github.com/bnema/regatta/internal/server"
)

// ProxyRegistry forwards any verb straight to the upstream registry:
// the inbound prefix is rewritten to the /v2 API root, credentials are
// stripped, and the upstream status, headers and body come back verbatim.
func ProxyRegistry(c echo.Context, a *server.App) error {
	req := c.Request()

	path := gateway.TranslatePath(a.Config.Http.PathPrefix, req.URL.Path)
	upstreamURL := a.Gateway.URL(path)
	if req.URL.RawQuery != "" {
		upstreamURL += "?" + req.URL.RawQuery
	}

	upstream, err := http.NewRequestWithContext(req.Context(), req.Method, upstreamURL, req.Body)
	if err != nil {
		return sendJSONResponse(c, http.StatusBadGateway, errorResponse{Error: err.Error()})
	}
	upstream.Header = gateway.SanitizeRequestHeaders(req.Header)
	upstream.ContentLength = req.ContentLength

	resp, err := a.Gateway.Forward(upstream)
	if err != nil {
		log.Error("Registry pass-through failed",
			"method", req.Method,
			"path", path,
			"error", err)
		return sendJSONResponse(c, http.StatusBadGateway, errorResponse{Error: err.Error()})
	}
	defer resp.Body.Close()

	gateway.CopyResponseHeaders(c.Response().Header(), resp.Header, map[string]string{
		gateway.GatewayHeader: "regatta",
	})
	c.Response().WriteHeader(resp.StatusCode)
	_, err = io.Copy(c.Response(), resp.Body)
	return err
}
