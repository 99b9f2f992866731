package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bnema/regatta/internal/gateway"
	"github.com/bnema/regatta/internal/server"
)

type DeleteTagsRequest struct {
	Tags []string `json:"tags"`
}

type DeleteTagsResponse struct {
	Repository string                `json:"repository"`
	Results    []gateway.TagDeletion `json:"results"`
}

// DeleteTags deletes a batch of tags. The response is 200 even when some
// tags failed: the per-tag results carry the outcome of each one.
func DeleteTags(c echo.Context, a *server.App) error {
	repo := c.Param("*")
	if repo == "" {
		return sendJSONResponse(c, http.StatusBadRequest, errorResponse{Error: "missing repository name"})
	}

	payload := new(DeleteTagsRequest)
	if err := c.Bind(payload); err != nil {
		return sendJSONResponse(c, http.StatusBadRequest, errorResponse{Error: "invalid payload: " + err.Error()})
	}
	if len(payload.Tags) == 0 {
		return sendJSONResponse(c, http.StatusBadRequest, errorResponse{Error: "no tags to delete"})
	}

	results := a.Gateway.DeleteTags(c.Request().Context(), repo, payload.Tags)
	return sendJSONResponse(c, http.StatusOK, DeleteTagsResponse{
		Repository: repo,
		Results:    results,
	})
}
