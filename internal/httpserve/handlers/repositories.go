package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bnema/regatta/internal/server"
)

type RepositoriesResponse struct {
	Repositories []string `json:"repositories"`
}

// GetRepositories lists the repositories of the upstream registry
func GetRepositories(c echo.Context, a *server.App) error {
	repos, err := a.Gateway.Repositories(c.Request().Context())
	if err != nil {
		return sendGatewayError(c, err)
	}
	if repos == nil {
		repos = []string{}
	}
	return sendJSONResponse(c, http.StatusOK, RepositoriesResponse{Repositories: repos})
}
