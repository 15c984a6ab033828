package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/domain"
	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/gis/arcgis"
	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/gis/wms"
	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/infrastructure/ws"
	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/loader"
	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/server"
)

type AppConfig struct {
	Gis struct {
		Debug             bool          `conf:"default:false"`
		Language          string        `conf:"default:ar-eg"`
		WmsCacheRoot      string
		SessionExpiration time.Duration `conf:"default:2h"`
		Debounce          time.Duration `conf:"default:250ms"`
		MaxPages          int           `conf:"default:6"`
		RequestTimeout    time.Duration `conf:"default:30s"`
	}
	Web struct {
		ReadTimeout     time.Duration `conf:"default:5s"`
		WriteTimeout    time.Duration `conf:"default:60s"`
		IdleTimeout     time.Duration `conf:"default:120s"`
		ShutdownTimeout time.Duration `conf:"default:20s"`
		SiteURL         string        `conf:"default:http://localhost"`
		APIHost         string        `conf:"default:0.0.0.0:3000"`
	}
}

// ServerHandle bundles the running server with its dependencies for tests.
type ServerHandle struct {
	Server   *server.Server
	Sessions *server.SessionStore
	Log      *zap.SugaredLogger
}

func (h ServerHandle) Close() {
	if h.Server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.Server.Shutdown(ctx)
	}
	if h.Log != nil {
		h.Log.Sync()
	}
}

// CreateServer wires clients, session store and HTTP server from the
// environment configuration.
func CreateServer() (ServerHandle, error) {
	cfg := AppConfig{}
	const prefix = ""
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return ServerHandle{}, nil
		}
		return ServerHandle{}, fmt.Errorf("parsing config: %w", err)
	}

	logLevel := zap.InfoLevel
	if cfg.Gis.Debug {
		logLevel = zap.DebugLevel
	}
	log, err := createLogger(logLevel)
	if err != nil {
		return ServerHandle{}, fmt.Errorf("failed to create logger: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return ServerHandle{}, fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	arcgisClient := arcgis.NewClient(cfg.Gis.RequestTimeout)
	wmsClient := wms.NewClient(cfg.Gis.RequestTimeout)
	sws := ws.NewStatsWS(log)

	newLoader := func(sessionID string) *loader.Loader {
		return loader.New(log, arcgisClient, loader.Options{
			Debounce: cfg.Gis.Debounce,
			MaxPages: cfg.Gis.MaxPages,
			OnStats: func(layerKey string, stats domain.GisLayerStats) {
				if err := sws.Send(sessionID, layerKey, stats); err != nil {
					log.Debugw("sending gis stats", "session", sessionID, "layer", layerKey, zap.Error(err))
				}
			},
		})
	}
	sessions := server.NewSessionStore(log, cfg.Gis.SessionExpiration, newLoader)

	s := server.NewServer(log, server.Config{
		Debug:             cfg.Gis.Debug,
		Language:          cfg.Gis.Language,
		SiteURL:           cfg.Web.SiteURL,
		WmsCacheRoot:      cfg.Gis.WmsCacheRoot,
		SessionExpiration: cfg.Gis.SessionExpiration,
		Debounce:          cfg.Gis.Debounce,
		MaxPages:          cfg.Gis.MaxPages,
	}, arcgisClient, wmsClient, sessions, sws)

	return ServerHandle{Server: s, Sessions: sessions, Log: log}, nil
}

func Serve() error {
	cfg := AppConfig{}
	const prefix = ""
	if _, err := conf.Parse(prefix, &cfg); err != nil && !errors.Is(err, conf.ErrHelpWanted) {
		return fmt.Errorf("parsing config: %w", err)
	}

	handle, err := CreateServer()
	if err != nil || handle.Server == nil {
		return err
	}

	go func() {
		if err := handle.Server.ListenAndServe(cfg.Web.APIHost); err != nil && err != http.ErrServerClosed {
			handle.Log.Fatalf("shutting down the server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	handle.Log.Infof("Received shutdown signal")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
	defer cancel()
	if err := handle.Server.Shutdown(ctx); err != nil {
		handle.Log.Fatal(err)
	}
	handle.Log.Sync()
	return nil
}

func createLogger(level zapcore.Level) (*zap.SugaredLogger, error) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	config.Level.SetLevel(level)

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	defer logger.Sync()
	return logger.Sugar(), nil
}
