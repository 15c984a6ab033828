package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"

	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/domain"
	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/gis/catalog"
	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/loader"
)

// Session holds one browser session's GIS state and its loader. State is
// created from the builtin catalog at session start and lives in memory only.
type Session struct {
	ID     string
	Loader *loader.Loader

	mu       sync.Mutex
	state    *domain.GisState
	viewport *domain.Viewport
}

// WithState runs fn with exclusive access to the session's GIS state and
// re-syncs the loader's layer set afterwards.
func (s *Session) WithState(fn func(state *domain.GisState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.state); err != nil {
		return err
	}
	s.Loader.SetLayers(loader.ArcgisLayerSpecs(s.state.Services(catalog.Services()), s.state))
	return nil
}

// State returns a shallow read-only view of the GIS state.
func (s *Session) State() domain.GisState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.state
}

// Services returns the combined catalog for this session.
func (s *Session) Services() []domain.GisServiceDef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Services(catalog.Services())
}

func (s *Session) SetViewport(vp domain.Viewport) {
	s.mu.Lock()
	s.viewport = &vp
	s.mu.Unlock()
	s.Loader.SetViewport(vp)
}

func (s *Session) Viewport() *domain.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

// NewLoaderFunc builds the loader for a fresh session, wired to that
// session's stats channel.
type NewLoaderFunc func(sessionID string) *loader.Loader

// SessionStore keeps sessions in memory with TTL eviction; evicting a
// session shuts its loader down, cancelling all outstanding requests.
type SessionStore struct {
	log       *zap.SugaredLogger
	cache     *ttlcache.Cache[string, *Session]
	newLoader NewLoaderFunc
}

func NewSessionStore(log *zap.SugaredLogger, ttl time.Duration, newLoader NewLoaderFunc) *SessionStore {
	c := ttlcache.New(
		ttlcache.WithTTL[string, *Session](ttl),
	)
	c.OnEviction(func(ctx context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Session]) {
		log.Infow("gis session evicted", "session", item.Key())
		item.Value().Loader.Close()
	})
	go c.Start()
	return &SessionStore{log: log, cache: c, newLoader: newLoader}
}

// Get returns an existing session; a hit extends its TTL.
func (s *SessionStore) Get(id string) (*Session, bool) {
	item := s.cache.Get(id)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

// Create seeds a new session from the builtin catalog defaults. Services
// enabled by default start syncing as soon as a viewport arrives.
func (s *SessionStore) Create() (*Session, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}
	sess := &Session{
		ID:     id.String(),
		Loader: s.newLoader(id.String()),
		state:  domain.NewGisState(catalog.Services()),
	}
	sess.Loader.SetLayers(loader.ArcgisLayerSpecs(catalog.Services(), sess.state))
	s.cache.Set(sess.ID, sess, ttlcache.DefaultTTL)
	s.log.Infow("gis session created", "session", sess.ID)
	return sess, nil
}

func (s *SessionStore) Close() {
	s.cache.DeleteAll()
	s.cache.Stop()
}
