package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jellydator/ttlcache/v3"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/gis/arcgis"
	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/gis/wms"
	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/infrastructure/ws"
)

type Config struct {
	Debug             bool
	Language          string
	SiteURL           string
	WmsCacheRoot      string
	SessionExpiration time.Duration
	Debounce          time.Duration
	MaxPages          int
}

type Server struct {
	Config   Config
	echo     *echo.Echo
	log      *zap.SugaredLogger
	arcgis   *arcgis.Client
	wms      *wms.Client
	sessions *SessionStore
	sws      *ws.StatsWS
	validate *validator.Validate

	// WMS capabilities per base URL; metadata is assumed stable enough for
	// a short TTL
	capsCache *ttlcache.Cache[string, []wms.LayerInfo]
}

type JSONSerializer struct{}

// Serialize converts an interface into a json and writes it to the response.
func (d JSONSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := jsoniter.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

// Deserialize reads a JSON from a request body and converts it into an interface.
func (d JSONSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := jsoniter.NewDecoder(c.Request().Body).Decode(i)
	if ute, ok := err.(*json.UnmarshalTypeError); ok {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Unmarshal type error: expected=%v, got=%v, field=%v, offset=%v", ute.Type, ute.Value, ute.Field, ute.Offset)).SetInternal(err)
	} else if se, ok := err.(*json.SyntaxError); ok {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Syntax error: offset=%v, error=%v", se.Offset, se.Error())).SetInternal(err)
	}
	return err
}

func NewServer(log *zap.SugaredLogger, cfg Config, arcgisClient *arcgis.Client, wmsClient *wms.Client, sessions *SessionStore, sws *ws.StatsWS) *Server {
	e := echo.New()
	e.HideBanner = true
	e.JSONSerializer = &JSONSerializer{}

	p := prometheus.NewPrometheus("gis", nil)
	p.Use(e)

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		e.DefaultHTTPErrorHandler(err, c)
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}
		if code == http.StatusInternalServerError {
			log.Error(err)
		}
	}

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())

	capsCache := ttlcache.New(
		ttlcache.WithTTL[string, []wms.LayerInfo](15 * time.Minute),
	)
	go capsCache.Start()

	s := &Server{
		Config:    cfg,
		log:       log,
		echo:      e,
		arcgis:    arcgisClient,
		wms:       wmsClient,
		sessions:  sessions,
		sws:       sws,
		validate:  validator.New(),
		capsCache: capsCache,
	}
	s.AddRoutes(e)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.capsCache.Stop()
	s.sessions.Close()
	return s.echo.Shutdown(ctx)
}
