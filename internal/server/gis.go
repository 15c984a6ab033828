package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/domain"
	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/gis/catalog"
)

func (s *Server) handleGetServices(c echo.Context) error {
	sess := getSession(c)
	return c.JSON(http.StatusOK, sess.Services())
}

func (s *Server) handleGetPresets(c echo.Context) error {
	return c.JSON(http.StatusOK, catalog.Presets())
}

func (s *Server) handleAddService(c echo.Context) error {
	sess := getSession(c)
	var def domain.GisServiceDef
	if err := c.Bind(&def); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid service definition")
	}
	if err := s.validate.Struct(def); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	err := sess.WithState(func(state *domain.GisState) error {
		return state.AddCustomService(def, catalog.Services())
	})
	if err != nil {
		if errors.Is(err, domain.ErrServiceExists) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return err
	}
	s.log.Infow("custom gis service added", "session", sess.ID, "service", def.ID, "kind", def.Kind)
	return c.JSON(http.StatusOK, def)
}

func (s *Server) handleGetState(c echo.Context) error {
	sess := getSession(c)
	return c.JSON(http.StatusOK, sess.State())
}

type serviceStateUpdate struct {
	Enabled                *bool          `json:"enabled"`
	Opacity                *float64       `json:"opacity"`
	SelectedArcgisLayerIds *[]int         `json:"selectedArcgisLayerIds"`
	SelectedWmsLayers      *[]string      `json:"selectedWmsLayers"`
	ToggleArcgisLayerId    *int           `json:"toggleArcgisLayerId"`
	WhereByArcgisLayerId   map[int]string `json:"whereByArcgisLayerId"`
}

// handleUpdateService applies a partial update to one service's session
// state. Every accepted change re-syncs the loader, so a WHERE edit or a
// sublayer toggle schedules a fresh debounced fetch cycle.
func (s *Server) handleUpdateService(c echo.Context) error {
	sess := getSession(c)
	serviceID := c.Param("id")
	var update serviceStateUpdate
	if err := c.Bind(&update); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid state update")
	}
	err := sess.WithState(func(state *domain.GisState) error {
		if update.Enabled != nil {
			if err := state.SetEnabled(serviceID, *update.Enabled); err != nil {
				return err
			}
		}
		if update.Opacity != nil {
			if err := state.SetOpacity(serviceID, *update.Opacity); err != nil {
				return err
			}
		}
		if update.SelectedArcgisLayerIds != nil {
			if err := state.SetArcgisLayers(serviceID, *update.SelectedArcgisLayerIds); err != nil {
				return err
			}
		}
		if update.SelectedWmsLayers != nil {
			if err := state.SetWmsLayers(serviceID, *update.SelectedWmsLayers); err != nil {
				return err
			}
		}
		if update.ToggleArcgisLayerId != nil {
			if err := state.ToggleArcgisLayer(serviceID, *update.ToggleArcgisLayerId); err != nil {
				return err
			}
		}
		for layerID, where := range update.WhereByArcgisLayerId {
			if err := state.SetWhere(serviceID, layerID, where); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrServiceNotExists) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return fmt.Errorf("updating service state: %w", err)
	}
	return c.JSON(http.StatusOK, sess.State().ByServiceID[serviceID])
}

func (s *Server) handleApplyPreset(c echo.Context) error {
	sess := getSession(c)
	preset, ok := catalog.PresetByID(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, domain.ErrPresetNotExists.Error())
	}
	enabled := c.QueryParam("enabled") != "false"
	if err := sess.WithState(func(state *domain.GisState) error {
		catalog.ApplyPreset(state, preset, enabled)
		return nil
	}); err != nil {
		return fmt.Errorf("applying preset: %w", err)
	}
	s.log.Infow("gis preset applied", "session", sess.ID, "preset", preset.ID, "enabled", enabled)
	return c.JSON(http.StatusOK, sess.State())
}

func (s *Server) handleSetViewport(c echo.Context) error {
	sess := getSession(c)
	var vp domain.Viewport
	if err := c.Bind(&vp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid viewport")
	}
	if vp.Zoom < 0 || vp.Zoom > 24 {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid zoom level")
	}
	if vp.Bbox.Xmin > vp.Bbox.Xmax || vp.Bbox.Ymin > vp.Bbox.Ymax {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid bbox")
	}
	sess.SetViewport(vp)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleGetStats(c echo.Context) error {
	sess := getSession(c)
	return c.JSON(http.StatusOK, sess.Loader.Stats())
}

func (s *Server) handleArcgisServiceInfo(c echo.Context) error {
	sess := getSession(c)
	def, ok := catalog.ServiceByID(c.Param("id"), sess.State().CustomServices)
	if !ok || (def.Kind != domain.ServiceArcgis && def.Kind != domain.ServiceArcgisRoot) {
		return echo.ErrNotFound
	}
	info, err := s.arcgis.GetServiceInfo(c.Request().Context(), def.URL)
	if err != nil {
		s.log.Warnw("arcgis service info", "service", def.ID, zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, info)
}

func (s *Server) handleArcgisLayerInfo(c echo.Context) error {
	sess := getSession(c)
	def, ok := catalog.ServiceByID(c.Param("id"), sess.State().CustomServices)
	if !ok || def.Kind != domain.ServiceArcgis {
		return echo.ErrNotFound
	}
	layerID, err := parseLayerID(c.Param("layer"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid layer id")
	}
	info, err := s.arcgis.GetLayerInfo(c.Request().Context(), layerURLFor(def, layerID))
	if err != nil {
		s.log.Warnw("arcgis layer info", "service", def.ID, "layer", layerID, zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, info)
}

func (s *Server) handleStatsWS(c echo.Context) error {
	sess := getSession(c)
	if err := s.sws.Handle(sess.ID, c.Response(), c.Request()); err != nil {
		s.log.Errorw("gis stats websocket handler", "session", sess.ID, zap.Error(err))
	}
	return nil
}
