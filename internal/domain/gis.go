package domain

import (
	"fmt"
	"math"
	"sort"
)

type GisServiceKind string

const (
	ServiceArcgis     GisServiceKind = "arcgis"
	ServiceArcgisRoot GisServiceKind = "arcgis-root"
	ServiceWms        GisServiceKind = "wms"
)

// DefaultWhere is the neutral ArcGIS filter expression.
const DefaultWhere = "1=1"

// GisServiceDef describes a single external GIS service. Definitions are
// immutable configuration; all user-tunable knobs live in GisServiceState.
type GisServiceDef struct {
	ID               string         `json:"id" validate:"required,max=64"`
	Label            string         `json:"label" validate:"required"`
	URL              string         `json:"url" validate:"required,url"`
	Kind             GisServiceKind `json:"kind" validate:"required,oneof=arcgis arcgis-root wms"`
	Description      string         `json:"description,omitempty"`
	Source           string         `json:"source,omitempty"`
	EnabledByDefault bool           `json:"enabledByDefault,omitempty"`
	DefaultOpacity   *float64       `json:"defaultOpacity,omitempty" validate:"omitempty,gte=0,lte=1"`

	// arcgis services
	DefaultLayerIds       []int          `json:"defaultLayerIds,omitempty"`
	DefaultWhereByLayerId map[int]string `json:"defaultWhereByLayerId,omitempty"`
	MinZoom               int            `json:"minZoom,omitempty" validate:"gte=0,lte=24"`

	// wms services
	DefaultLayers []string `json:"defaultLayers,omitempty"`
	Version       string   `json:"version,omitempty" validate:"omitempty,oneof=1.1.1 1.3.0"`
	Transparent   *bool    `json:"transparent,omitempty"`
	Format        string   `json:"format,omitempty"`
}

func (s GisServiceDef) WmsVersion() string {
	if s.Version == "" {
		return "1.3.0"
	}
	return s.Version
}

func (s GisServiceDef) WmsFormat() string {
	if s.Format == "" {
		return "image/png"
	}
	return s.Format
}

func (s GisServiceDef) WmsTransparent() bool {
	if s.Transparent == nil {
		return true
	}
	return *s.Transparent
}

// GisServiceState holds per-session, user-controlled state of one service.
type GisServiceState struct {
	Enabled                bool           `json:"enabled"`
	Opacity                float64        `json:"opacity"`
	SelectedArcgisLayerIds []int          `json:"selectedArcgisLayerIds"`
	SelectedWmsLayers      []string       `json:"selectedWmsLayers"`
	WhereByArcgisLayerId   map[int]string `json:"whereByArcgisLayerId"`
}

// Where returns the filter expression for a sublayer, falling back to the
// neutral expression.
func (s GisServiceState) Where(layerID int) string {
	if w, ok := s.WhereByArcgisLayerId[layerID]; ok && w != "" {
		return w
	}
	return DefaultWhere
}

// GisState is the session overlay over the static service catalog: one state
// entry per known service plus any user-added services.
type GisState struct {
	ByServiceID    map[string]GisServiceState `json:"byServiceId"`
	CustomServices []GisServiceDef            `json:"customServices"`
}

// ClampOpacity clamps v into [0,1]. NaN maps to 0.
func ClampOpacity(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}

func defaultStateFor(s GisServiceDef) GisServiceState {
	opacity := 0.72
	if s.Kind == ServiceWms {
		opacity = 0.45
	}
	if s.DefaultOpacity != nil {
		opacity = ClampOpacity(*s.DefaultOpacity)
	}
	st := GisServiceState{
		Enabled:                s.EnabledByDefault,
		Opacity:                opacity,
		SelectedArcgisLayerIds: []int{},
		SelectedWmsLayers:      []string{},
		WhereByArcgisLayerId:   map[int]string{},
	}
	switch s.Kind {
	case ServiceArcgis:
		st.SelectedArcgisLayerIds = dedupeSorted(s.DefaultLayerIds)
		for id, w := range s.DefaultWhereByLayerId {
			st.WhereByArcgisLayerId[id] = w
		}
	case ServiceWms:
		st.SelectedWmsLayers = dedupeStrings(s.DefaultLayers)
	}
	return st
}

// NewGisState seeds one state entry per catalog service from its defaults.
func NewGisState(services []GisServiceDef) *GisState {
	byID := make(map[string]GisServiceState, len(services))
	for _, s := range services {
		byID[s.ID] = defaultStateFor(s)
	}
	return &GisState{ByServiceID: byID, CustomServices: []GisServiceDef{}}
}

// Services returns the combined catalog: builtin services followed by the
// session's custom services.
func (g *GisState) Services(builtin []GisServiceDef) []GisServiceDef {
	out := make([]GisServiceDef, 0, len(builtin)+len(g.CustomServices))
	out = append(out, builtin...)
	out = append(out, g.CustomServices...)
	return out
}

// AddCustomService appends a user-defined service and seeds its state.
func (g *GisState) AddCustomService(def GisServiceDef, builtin []GisServiceDef) error {
	for _, s := range builtin {
		if s.ID == def.ID {
			return fmt.Errorf("%w: %s", ErrServiceExists, def.ID)
		}
	}
	for _, s := range g.CustomServices {
		if s.ID == def.ID {
			return fmt.Errorf("%w: %s", ErrServiceExists, def.ID)
		}
	}
	g.CustomServices = append(g.CustomServices, def)
	g.ByServiceID[def.ID] = defaultStateFor(def)
	return nil
}

func (g *GisState) state(serviceID string) (GisServiceState, error) {
	st, ok := g.ByServiceID[serviceID]
	if !ok {
		return GisServiceState{}, fmt.Errorf("%w: %s", ErrServiceNotExists, serviceID)
	}
	return st, nil
}

func (g *GisState) SetEnabled(serviceID string, enabled bool) error {
	st, err := g.state(serviceID)
	if err != nil {
		return err
	}
	st.Enabled = enabled
	g.ByServiceID[serviceID] = st
	return nil
}

func (g *GisState) SetOpacity(serviceID string, opacity float64) error {
	st, err := g.state(serviceID)
	if err != nil {
		return err
	}
	st.Opacity = ClampOpacity(opacity)
	g.ByServiceID[serviceID] = st
	return nil
}

// ToggleArcgisLayer adds the sublayer to the selection if absent, removes it
// otherwise. Selection keeps set semantics in ascending order.
func (g *GisState) ToggleArcgisLayer(serviceID string, layerID int) error {
	st, err := g.state(serviceID)
	if err != nil {
		return err
	}
	next := make([]int, 0, len(st.SelectedArcgisLayerIds)+1)
	found := false
	for _, id := range st.SelectedArcgisLayerIds {
		if id == layerID {
			found = true
			continue
		}
		next = append(next, id)
	}
	if !found {
		next = append(next, layerID)
		sort.Ints(next)
	}
	st.SelectedArcgisLayerIds = next
	g.ByServiceID[serviceID] = st
	return nil
}

func (g *GisState) SetArcgisLayers(serviceID string, layerIDs []int) error {
	st, err := g.state(serviceID)
	if err != nil {
		return err
	}
	st.SelectedArcgisLayerIds = dedupeSorted(layerIDs)
	g.ByServiceID[serviceID] = st
	return nil
}

func (g *GisState) SetWmsLayers(serviceID string, layers []string) error {
	st, err := g.state(serviceID)
	if err != nil {
		return err
	}
	st.SelectedWmsLayers = dedupeStrings(layers)
	g.ByServiceID[serviceID] = st
	return nil
}

func (g *GisState) SetWhere(serviceID string, layerID int, where string) error {
	st, err := g.state(serviceID)
	if err != nil {
		return err
	}
	next := make(map[int]string, len(st.WhereByArcgisLayerId)+1)
	for id, w := range st.WhereByArcgisLayerId {
		next[id] = w
	}
	if where == "" {
		delete(next, layerID)
	} else {
		next[layerID] = where
	}
	st.WhereByArcgisLayerId = next
	g.ByServiceID[serviceID] = st
	return nil
}

func dedupeSorted(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func dedupeStrings(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
