package loader

import (
	"strconv"

	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/domain"
	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/gis/arcgis"
)

// LayerSpec is one ArcGIS sublayer the loader should keep in sync with the
// viewport.
type LayerSpec struct {
	Key     string
	URL     string
	MinZoom int
	Where   string
}

// ArcgisLayerSpecs flattens enabled ArcGIS services into per-sublayer specs.
func ArcgisLayerSpecs(services []domain.GisServiceDef, state *domain.GisState) []LayerSpec {
	var out []LayerSpec
	for _, s := range services {
		if s.Kind != domain.ServiceArcgis {
			continue
		}
		st, ok := state.ByServiceID[s.ID]
		if !ok || !st.Enabled {
			continue
		}
		for _, layerID := range st.SelectedArcgisLayerIds {
			out = append(out, LayerSpec{
				Key:     domain.LayerKey(s.ID, strconv.Itoa(layerID)),
				URL:     arcgis.LayerURL(s.URL, layerID),
				MinZoom: s.MinZoom,
				Where:   st.Where(layerID),
			})
		}
	}
	return out
}

// WmsSpec is one WMS layer to render as tiles. WMS layers are not queried
// client-side and carry no load status beyond enable/disable.
type WmsSpec struct {
	Key         string  `json:"key"`
	URL         string  `json:"url"`
	Layer       string  `json:"layer"`
	Opacity     float64 `json:"opacity"`
	MinZoom     int     `json:"minZoom"`
	Version     string  `json:"version"`
	Transparent bool    `json:"transparent"`
	Format      string  `json:"format"`
}

// WmsLayerSpecs flattens enabled WMS services into per-layer tile specs,
// filtered by the viewport zoom when one is known.
func WmsLayerSpecs(services []domain.GisServiceDef, state *domain.GisState, vp *domain.Viewport) []WmsSpec {
	var out []WmsSpec
	for _, s := range services {
		if s.Kind != domain.ServiceWms {
			continue
		}
		st, ok := state.ByServiceID[s.ID]
		if !ok || !st.Enabled {
			continue
		}
		if vp != nil && vp.Zoom < s.MinZoom {
			continue
		}
		for _, name := range st.SelectedWmsLayers {
			out = append(out, WmsSpec{
				Key:         domain.LayerKey(s.ID, name),
				URL:         s.URL,
				Layer:       name,
				Opacity:     domain.ClampOpacity(st.Opacity),
				MinZoom:     s.MinZoom,
				Version:     s.WmsVersion(),
				Transparent: s.WmsTransparent(),
				Format:      s.WmsFormat(),
			})
		}
	}
	return out
}
