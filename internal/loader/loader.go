// Package loader keeps the features of enabled ArcGIS sublayers in sync
// with the map viewport: it decides per layer whether to (re)fetch,
// debounces and cancels requests, and reports per-layer load status.
package loader

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/domain"
	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/gis/arcgis"
	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/infrastructure/cache"
)

const DefaultDebounce = 250 * time.Millisecond

// ArcgisClient is the query surface the loader needs.
type ArcgisClient interface {
	GetLayerInfo(ctx context.Context, layerURL string) (*arcgis.LayerInfo, error)
	QueryLayerGeoJSON(ctx context.Context, opts arcgis.QueryOptions) (*geojson.FeatureCollection, error)
}

// StatsFunc receives every status transition. It is invoked synchronously
// and must not call back into the loader.
type StatsFunc func(layerKey string, stats domain.GisLayerStats)

type Options struct {
	// Debounce delays a scheduled fetch; a newer viewport change within the
	// window restarts the wait. Zero means DefaultDebounce.
	Debounce time.Duration
	MaxPages int
	OnStats  StatsFunc
}

type layerTask struct {
	spec    LayerSpec
	lastKey string
	gen     uint64
	cancel  context.CancelFunc
	timer   *time.Timer

	features *geojson.FeatureCollection
	info     *arcgis.LayerInfo
	stats    domain.GisLayerStats
}

// Loader owns the per-layer fetch state machines of one session. At most one
// logical in-flight request exists per layer; results of a superseded fetch
// are discarded even if they arrive late.
type Loader struct {
	log       *zap.SugaredLogger
	client    ArcgisClient
	infoCache *cache.DataCache[string, *arcgis.LayerInfo]
	debounce  time.Duration
	maxPages  int
	onStats   StatsFunc

	mu       sync.Mutex
	viewport *domain.Viewport
	layers   map[string]*layerTask
	closed   bool
}

func New(log *zap.SugaredLogger, client ArcgisClient, opts Options) *Loader {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = arcgis.DefaultMaxPages
	}
	l := &Loader{
		log:      log,
		client:   client,
		debounce: opts.Debounce,
		maxPages: opts.MaxPages,
		onStats:  opts.OnStats,
		layers:   make(map[string]*layerTask),
	}
	l.infoCache = cache.NewDataCache(func(layerURL string) (*arcgis.LayerInfo, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return client.GetLayerInfo(ctx, layerURL)
	})
	return l
}

// SetViewport records the map extent and re-evaluates every layer.
func (l *Loader) SetViewport(vp domain.Viewport) {
	l.mu.Lock()
	defer l.mu.Unlock()
	vp.Bbox = vp.Bbox.ClampToWorld()
	l.viewport = &vp
	l.evaluateLocked()
}

// SetLayers replaces the desired layer set. Removed layers are cancelled and
// cleared; layers whose WHERE clause changed refetch on the next evaluation.
func (l *Loader) SetLayers(specs []LayerSpec) {
	l.mu.Lock()
	defer l.mu.Unlock()
	desired := make(map[string]LayerSpec, len(specs))
	for _, spec := range specs {
		desired[spec.Key] = spec
	}
	for key, task := range l.layers {
		if _, ok := desired[key]; ok {
			continue
		}
		l.cancelLocked(task)
		task.features = nil
		l.setStatsLocked(key, task, domain.GisLayerStats{Status: domain.StatusIdle})
		delete(l.layers, key)
	}
	for key, spec := range desired {
		task, ok := l.layers[key]
		if !ok {
			task = &layerTask{stats: domain.GisLayerStats{Status: domain.StatusIdle}}
			l.layers[key] = task
		}
		task.spec = spec
	}
	l.evaluateLocked()
}

// Features returns the latest loaded collection and metadata for a layer.
func (l *Loader) Features(layerKey string) (*geojson.FeatureCollection, *arcgis.LayerInfo, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	task, ok := l.layers[layerKey]
	if !ok || task.features == nil {
		return nil, nil, false
	}
	return task.features, task.info, true
}

// Stats returns a snapshot of the per-layer status map.
func (l *Loader) Stats() map[string]domain.GisLayerStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]domain.GisLayerStats, len(l.layers))
	for key, task := range l.layers {
		out[key] = task.stats
	}
	return out
}

// Close cancels all timers and outstanding requests. The loader is unusable
// afterwards.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	for _, task := range l.layers {
		l.cancelLocked(task)
	}
}

func (l *Loader) cancelLocked(task *layerTask) {
	if task.timer != nil {
		task.timer.Stop()
		task.timer = nil
	}
	if task.cancel != nil {
		task.cancel()
		task.cancel = nil
	}
	task.gen++
}

func (l *Loader) setStatsLocked(key string, task *layerTask, stats domain.GisLayerStats) {
	stats.UpdatedAt = time.Now()
	task.stats = stats
	if l.onStats != nil {
		l.onStats(key, stats)
	}
}

// evaluateLocked runs the per-layer state machine against the current
// viewport.
func (l *Loader) evaluateLocked() {
	if l.closed || l.viewport == nil {
		return
	}
	vp := *l.viewport
	for key, task := range l.layers {
		if vp.Zoom < task.spec.MinZoom {
			l.cancelLocked(task)
			task.features = nil
			// forget the last key so that returning above the zoom
			// threshold refetches even into an identical viewport
			task.lastKey = ""
			if task.stats.Status != domain.StatusIdle {
				l.setStatsLocked(key, task, domain.GisLayerStats{Status: domain.StatusIdle})
			}
			continue
		}

		cacheKey := CacheKey(vp, task.spec.Where)
		if cacheKey == task.lastKey {
			continue
		}
		task.lastKey = cacheKey

		l.cancelLocked(task)
		ctx, cancel := context.WithCancel(context.Background())
		task.cancel = cancel
		gen := task.gen
		spec := task.spec
		task.timer = time.AfterFunc(l.debounce, func() {
			l.runFetch(ctx, key, gen, spec, vp)
		})
	}
}

func (l *Loader) runFetch(ctx context.Context, key string, gen uint64, spec LayerSpec, vp domain.Viewport) {
	l.mu.Lock()
	task, ok := l.layers[key]
	if !ok || task.gen != gen || l.closed {
		l.mu.Unlock()
		return
	}
	l.setStatsLocked(key, task, domain.GisLayerStats{Status: domain.StatusLoading})
	l.mu.Unlock()

	// metadata failures are non-fatal: styling falls back to defaults and
	// the feature query proceeds
	info, err := l.infoCache.Get(spec.URL)
	if err != nil {
		l.log.Debugw("gis layer metadata unavailable", "layer", key, zap.Error(err))
		info = nil
	}

	fc, err := l.client.QueryLayerGeoJSON(ctx, arcgis.QueryOptions{
		LayerURL:  spec.URL,
		Bbox:      vp.Bbox,
		Where:     spec.Where,
		Zoom:      vp.Zoom,
		MaxPages:  l.maxPages,
		LayerInfo: info,
	})

	l.mu.Lock()
	defer l.mu.Unlock()
	task, ok = l.layers[key]
	// stale-response guard: a cancelled or superseded fetch must never
	// overwrite newer state, even if it resolves later
	if !ok || task.gen != gen || l.closed || ctx.Err() != nil {
		return
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		l.log.Warnw("gis layer query failed", "layer", key, zap.Error(err))
		task.features = nil
		l.setStatsLocked(key, task, domain.GisLayerStats{Status: domain.StatusError, Error: err.Error()})
		return
	}
	task.features = fc
	task.info = info
	count := len(fc.Features)
	l.setStatsLocked(key, task, domain.GisLayerStats{Status: domain.StatusOk, FeatureCount: &count})
}
