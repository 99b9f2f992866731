package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bnema/regatta/internal/server"
	"github.com/bnema/regatta/pkg/manifest"
)

type ManifestResponse struct {
	Repository string          `json:"repository"`
	Reference  string          `json:"reference"`
	Digest     string          `json:"digest"`
	MediaType  string          `json:"mediaType"`
	Manifest   json.RawMessage `json:"manifest"`
}

// GetManifest resolves a reference (tag or digest) to its manifest. An
// explicit media type can be requested via the mediaType query parameter or
// a known manifest Accept header; otherwise the gateway probes the known
// kinds in priority order.
func GetManifest(c echo.Context, a *server.App) error {
	repo, reference := splitLastSegment(c.Param("*"))
	if repo == "" || reference == "" {
		return sendJSONResponse(c, http.StatusBadRequest, errorResponse{Error: "expected <repository>/<reference>"})
	}

	mediaType := c.QueryParam("mediaType")
	if mediaType == "" {
		if accept := c.Request().Header.Get("Accept"); manifest.KindOf(accept) != manifest.KindUnknown {
			mediaType = accept
		}
	}

	resolved, err := a.Gateway.ResolveManifest(c.Request().Context(), repo, reference, mediaType)
	if err != nil {
		return sendGatewayError(c, err)
	}

	return sendJSONResponse(c, http.StatusOK, ManifestResponse{
		Repository: repo,
		Reference:  reference,
		Digest:     resolved.Digest.String(),
		MediaType:  resolved.MediaType,
		Manifest:   json.RawMessage(resolved.Raw),
	})
}
