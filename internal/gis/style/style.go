// Package style maps ArcGIS renderer metadata to map styling.
package style

import (
	"fmt"
	"math"
	"strconv"

	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/gis/arcgis"
)

// PathStyle styles polygon and line features.
type PathStyle struct {
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	Opacity     float64 `json:"opacity"`
	FillColor   string  `json:"fillColor"`
	FillOpacity float64 `json:"fillOpacity"`
}

// PointStyle styles point features rendered as circle markers.
type PointStyle struct {
	Radius      float64 `json:"radius"`
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	Opacity     float64 `json:"opacity"`
	FillColor   string  `json:"fillColor"`
	FillOpacity float64 `json:"fillOpacity"`
}

type LayerStyle struct {
	Path  PathStyle  `json:"path"`
	Point PointStyle `json:"point"`
}

func fallbackStyle() LayerStyle {
	return LayerStyle{
		Path:  PathStyle{Color: "#60a5fa", Weight: 2, Opacity: 0.85, FillColor: "#38bdf8", FillOpacity: 0.18},
		Point: PointStyle{Radius: 6, Color: "#0ea5e9", Weight: 2, Opacity: 0.9, FillColor: "#38bdf8", FillOpacity: 0.35},
	}
}

// rgbaFromEsriColor converts the Esri color array [r,g,b,a(0-255)] into a
// CSS rgba() string, normalizing alpha into [0,1].
func rgbaFromEsriColor(c []float64) (string, bool) {
	if len(c) < 3 {
		return "", false
	}
	alpha := 255.0
	if len(c) >= 4 {
		alpha = c[3]
	}
	a := math.Max(0, math.Min(1, alpha/255))
	return fmt.Sprintf("rgba(%d,%d,%d,%s)",
		int(c[0]), int(c[1]), int(c[2]), strconv.FormatFloat(a, 'f', -1, 64)), true
}

func numOr(v *float64, fallback float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return fallback
	}
	return *v
}

// FromLayerInfo derives path and point styling from the layer's renderer
// symbol, falling back to fixed styles when no symbol is present.
func FromLayerInfo(info *arcgis.LayerInfo) LayerStyle {
	if info == nil || info.DrawingInfo == nil || info.DrawingInfo.Renderer == nil || info.DrawingInfo.Renderer.Symbol == nil {
		return fallbackStyle()
	}
	sym := info.DrawingInfo.Renderer.Symbol

	outlineColor := "#94a3b8"
	outlineWidth := 1.2
	if sym.Outline != nil {
		if c, ok := rgbaFromEsriColor(sym.Outline.Color); ok {
			outlineColor = c
		}
		outlineWidth = numOr(sym.Outline.Width, 1.2)
	}
	fillColor := "rgba(56,189,248,0.25)"
	if c, ok := rgbaFromEsriColor(sym.Color); ok {
		fillColor = c
	}

	return LayerStyle{
		Path: PathStyle{
			Color:       outlineColor,
			Weight:      math.Max(0.5, outlineWidth),
			Opacity:     0.9,
			FillColor:   fillColor,
			FillOpacity: 0.22,
		},
		Point: PointStyle{
			Radius:      6,
			Color:       outlineColor,
			Weight:      math.Max(1, outlineWidth),
			Opacity:     0.95,
			FillColor:   fillColor,
			FillOpacity: 0.38,
		},
	}
}

// WithOpacity scales both stroke and fill opacity by the user-controlled
// per-service opacity. The user opacity scales the base alpha, it never
// replaces it.
func (s LayerStyle) WithOpacity(opacity float64) LayerStyle {
	s.Path.Opacity *= opacity
	s.Path.FillOpacity *= opacity
	s.Point.Opacity *= opacity
	s.Point.FillOpacity *= opacity
	return s
}
