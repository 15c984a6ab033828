package server

import (
	"github.com/labstack/echo/v4"
)

func (s *Server) AddRoutes(e *echo.Echo) {
	WithSession := SessionMiddleware(s.sessions)

	e.GET("/api/app", s.handleAppInit, WithSession)

	e.GET("/api/gis/services", s.handleGetServices, WithSession)
	e.POST("/api/gis/services", s.handleAddService, WithSession)
	e.GET("/api/gis/presets", s.handleGetPresets)

	e.GET("/api/gis/state", s.handleGetState, WithSession)
	e.PUT("/api/gis/service/:id", s.handleUpdateService, WithSession)
	e.POST("/api/gis/preset/:id", s.handleApplyPreset, WithSession)
	e.POST("/api/gis/viewport", s.handleSetViewport, WithSession)

	e.GET("/api/gis/stats", s.handleGetStats, WithSession)
	e.GET("/api/gis/features/:id/:layer", s.handleGetFeatures, WithSession)

	e.GET("/api/gis/arcgis/:id", s.handleArcgisServiceInfo, WithSession)
	e.GET("/api/gis/arcgis/:id/:layer", s.handleArcgisLayerInfo, WithSession)
	e.GET("/api/gis/wms/:id/layers", s.handleWmsLayers, WithSession)
	e.GET("/api/gis/wms/:id/map", s.handleWmsMap, WithSession)

	e.GET("/ws/gis", s.handleStatsWS, WithSession)
}
