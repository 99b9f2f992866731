package handlers

import (
	"net/http"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/labstack/echo/v4"

	"github.com/bnema/regatta/internal/server"
)

type TagsResponse struct {
	Repository string   `json:"repository"`
	Tags       []string `json:"tags"`
}

// GetTags lists the tags of a repository, newest-looking first: semver tags
// sorted descending, everything else lexicographic after them.
func GetTags(c echo.Context, a *server.App) error {
	repo := c.Param("*")
	if repo == "" {
		return sendJSONResponse(c, http.StatusBadRequest, errorResponse{Error: "missing repository name"})
	}

	tags, err := a.Gateway.Tags(c.Request().Context(), repo)
	if err != nil {
		return sendGatewayError(c, err)
	}

	sortTags(tags)
	if tags == nil {
		tags = []string{}
	}
	return sendJSONResponse(c, http.StatusOK, TagsResponse{Repository: repo, Tags: tags})
}

// sortTags orders semver tags newest first, then the rest alphabetically
func sortTags(tags []string) {
	versions := make(map[string]*semver.Version, len(tags))
	for _, tag := range tags {
		if v, err := semver.NewVersion(tag); err == nil {
			versions[tag] = v
		}
	}

	sort.SliceStable(tags, func(i, j int) bool {
		vi, iOk := versions[tags[i]]
		vj, jOk := versions[tags[j]]
		switch {
		case iOk && jOk:
			return vi.GreaterThan(vj)
		case iOk:
			return true
		case jOk:
			return false
		default:
			return tags[i] < tags[j]
		}
	})
}
