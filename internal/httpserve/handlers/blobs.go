package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/opencontainers/go-digest"

	"github.com/bnema/regatta/internal/server"
)

// GetBlob streams a blob body through to the viewer
func GetBlob(c echo.Context, a *server.App) error {
	repo, rawDigest := splitLastSegment(c.Param("*"))
	if repo == "" || rawDigest == "" {
		return sendJSONResponse(c, http.StatusBadRequest, errorResponse{Error: "expected <repository>/<digest>"})
	}

	dgst, err := digest.Parse(rawDigest)
	if err != nil {
		return sendJSONResponse(c, http.StatusBadRequest, errorResponse{Error: "invalid digest: " + err.Error()})
	}

	body, header, err := a.Gateway.Blob(c.Request().Context(), repo, dgst, c.Request().Header.Get("Accept"))
	if err != nil {
		return sendGatewayError(c, err)
	}
	defer body.Close()

	contentType := header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if length := header.Get("Content-Length"); length != "" {
		c.Response().Header().Set("Content-Length", length)
	}
	return c.Stream(http.StatusOK, contentType, body)
}
