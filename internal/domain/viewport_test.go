package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBboxString(t *testing.T) {
	b := Bbox{Xmin: 24.7, Ymin: 22, Xmax: 36.9, Ymax: 31.7}
	assert.Equal(t, "24.7,22,36.9,31.7", b.String())
}

func TestBboxCenterLat(t *testing.T) {
	b := Bbox{Xmin: 24.7, Ymin: 22, Xmax: 36.9, Ymax: 32}
	assert.Equal(t, 27.0, b.CenterLat())
}

func TestLayerKey(t *testing.T) {
	assert.Equal(t, "egypt_water_bodies:8", LayerKey("egypt_water_bodies", "8"))
	assert.Equal(t, "gebco_bathymetry:GEBCO_LATEST", LayerKey("gebco_bathymetry", "GEBCO_LATEST"))
}
