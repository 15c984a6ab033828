package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/gis/catalog"
)

type App struct {
	Language     string `json:"lang"`
	ServiceCount int    `json:"service_count"`
	PresetCount  int    `json:"preset_count"`
}

type AppPayload struct {
	App     App    `json:"app"`
	Session string `json:"session"`
}

func (s *Server) handleAppInit(c echo.Context) error {
	sess := getSession(c)
	data := AppPayload{
		App: App{
			Language:     s.Config.Language,
			ServiceCount: len(catalog.Services()),
			PresetCount:  len(catalog.Presets()),
		},
		Session: sess.ID,
	}
	return c.JSON(http.StatusOK, data)
}
