package server

import (
	"crypto/md5"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/jellydator/ttlcache/v3"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/domain"
	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/gis/catalog"
)

// handleWmsLayers lists the layer names a WMS endpoint advertises,
// memoized per base URL.
func (s *Server) handleWmsLayers(c echo.Context) error {
	sess := getSession(c)
	def, ok := catalog.ServiceByID(c.Param("id"), sess.State().CustomServices)
	if !ok || def.Kind != domain.ServiceWms {
		return echo.ErrNotFound
	}
	if item := s.capsCache.Get(def.URL); item != nil {
		return c.JSON(http.StatusOK, item.Value())
	}
	layers, err := s.wms.FetchLayers(c.Request().Context(), def.URL)
	if err != nil {
		s.log.Warnw("wms capabilities", "service", def.ID, zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	s.capsCache.Set(def.URL, layers, ttlcache.DefaultTTL)
	return c.JSON(http.StatusOK, layers)
}

type wmsTile struct {
	ServiceID   string
	Layers      string
	BoundingBox string
	CRS         string
	Width       string
	Height      string
	Format      string
	Version     string
	Transparent bool
}

func (s *Server) tilePath(tile wmsTile) string {
	serviceHash := fmt.Sprintf("%x", md5.Sum([]byte(tile.ServiceID)))
	layersHash := fmt.Sprintf("%x", md5.Sum([]byte(tile.Layers)))
	bboxHash := fmt.Sprintf("%x", md5.Sum([]byte(tile.BoundingBox+":"+tile.Width+"x"+tile.Height)))
	return filepath.Join(s.Config.WmsCacheRoot, serviceHash, layersHash, bboxHash+".png")
}

func tileURL(def domain.GisServiceDef, tile wmsTile) string {
	params := map[string]string{
		"SERVICE": "WMS",
		"REQUEST": "GetMap",
		"VERSION": tile.Version,
		"LAYERS":  tile.Layers,
		"BBOX":    tile.BoundingBox,
		"WIDTH":   tile.Width,
		"HEIGHT":  tile.Height,
		"FORMAT":  tile.Format,
	}
	if tile.Version == "1.3.0" {
		params["CRS"] = tile.CRS
	} else {
		params["SRS"] = tile.CRS
	}
	if tile.Transparent {
		params["TRANSPARENT"] = "TRUE"
	}
	u, _ := url.Parse(def.URL)
	urlParams := u.Query()
	for name, val := range params {
		urlParams.Set(name, val)
	}
	u.RawQuery = urlParams.Encode()
	return u.String()
}

func (s *Server) saveTile(tilePath string, data io.Reader) error {
	img, err := imaging.Decode(data)
	if err != nil {
		return fmt.Errorf("decoding tile image: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(tilePath), os.ModePerm); err != nil {
		return err
	}
	f, err := os.Create(tilePath)
	if err != nil {
		return fmt.Errorf("creating tile file: %w", err)
	}
	defer f.Close()
	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		return fmt.Errorf("encoding tile image: %w", err)
	}
	return nil
}

// handleWmsMap proxies a GetMap request for an enabled WMS service, caching
// re-encoded tiles on disk when a cache root is configured. Service version,
// format and transparency come from the service definition; the rendered
// layer set defaults to the session's selection.
func (s *Server) handleWmsMap(c echo.Context) error {
	sess := getSession(c)
	def, ok := catalog.ServiceByID(c.Param("id"), sess.State().CustomServices)
	if !ok || def.Kind != domain.ServiceWms {
		return echo.ErrNotFound
	}

	layers := c.QueryParam("layers")
	if layers == "" {
		st := sess.State().ByServiceID[def.ID]
		layers = strings.Join(st.SelectedWmsLayers, ",")
	}
	if layers == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "No WMS layers selected")
	}
	bbox := c.QueryParam("bbox")
	if bbox == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing bbox")
	}
	crs := c.QueryParam("crs")
	if crs == "" {
		crs = "EPSG:4326"
	}
	width := c.QueryParam("width")
	if width == "" {
		width = "256"
	}
	height := c.QueryParam("height")
	if height == "" {
		height = "256"
	}

	tile := wmsTile{
		ServiceID:   def.ID,
		Layers:      layers,
		BoundingBox: bbox,
		CRS:         crs,
		Width:       width,
		Height:      height,
		Format:      def.WmsFormat(),
		Version:     def.WmsVersion(),
		Transparent: def.WmsTransparent(),
	}

	if s.Config.WmsCacheRoot == "" {
		return s.streamTile(c, def, tile, "")
	}

	tilePath := s.tilePath(tile)
	if f, err := os.Open(tilePath); err == nil {
		defer f.Close()
		return c.Stream(http.StatusOK, "image/png", f)
	}
	return s.streamTile(c, def, tile, tilePath)
}

func (s *Server) streamTile(c echo.Context, def domain.GisServiceDef, tile wmsTile, tilePath string) error {
	upstream := tileURL(def, tile)
	req, err := http.NewRequestWithContext(c.Request().Context(), http.MethodGet, upstream, nil)
	if err != nil {
		return fmt.Errorf("building tile request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		s.log.Warnw("wms tile fetch", "service", def.ID, zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return echo.NewHTTPError(http.StatusBadGateway, string(msg))
	}

	if tilePath == "" {
		return c.Stream(http.StatusOK, tile.Format, resp.Body)
	}
	if err := s.saveTile(tilePath, resp.Body); err != nil {
		s.log.Warnw("wms tile cache write", "service", def.ID, zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	f, err := os.Open(tilePath)
	if err != nil {
		return fmt.Errorf("reading cached tile: %w", err)
	}
	defer f.Close()
	return c.Stream(http.StatusOK, "image/png", f)
}
