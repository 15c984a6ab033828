package domain

import (
	"strconv"
	"time"
)

// Bbox is an axis-aligned bounding box in EPSG:4326.
type Bbox struct {
	Xmin float64 `json:"xmin"`
	Ymin float64 `json:"ymin"`
	Xmax float64 `json:"xmax"`
	Ymax float64 `json:"ymax"`
}

func clampCoord(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ClampToWorld limits the bbox to valid geographic coordinates.
func (b Bbox) ClampToWorld() Bbox {
	return Bbox{
		Xmin: clampCoord(b.Xmin, -180, 180),
		Ymin: clampCoord(b.Ymin, -90, 90),
		Xmax: clampCoord(b.Xmax, -180, 180),
		Ymax: clampCoord(b.Ymax, -90, 90),
	}
}

// CenterLat returns the mean latitude of the bbox.
func (b Bbox) CenterLat() float64 {
	return (b.Ymin + b.Ymax) / 2
}

func (b Bbox) String() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return f(b.Xmin) + "," + f(b.Ymin) + "," + f(b.Xmax) + "," + f(b.Ymax)
}

// Viewport is the map's current extent, recomputed on pan/zoom settle.
type Viewport struct {
	Bbox Bbox `json:"bbox4326"`
	Zoom int  `json:"zoom"`
}

type GisLayerStatus string

const (
	StatusIdle    GisLayerStatus = "idle"
	StatusLoading GisLayerStatus = "loading"
	StatusOk      GisLayerStatus = "ok"
	StatusError   GisLayerStatus = "error"
)

// GisLayerStats is the load state of one rendered sublayer, keyed by
// "{serviceId}:{layerIdOrName}".
type GisLayerStats struct {
	Status       GisLayerStatus `json:"status"`
	FeatureCount *int           `json:"featureCount,omitempty"`
	Error        string         `json:"error,omitempty"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// LayerKey builds the stats map key for a service sublayer.
func LayerKey(serviceID, layer string) string {
	return serviceID + ":" + layer
}
