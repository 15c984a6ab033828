package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/domain"
)

func TestCacheKeyStableUnderTinyPan(t *testing.T) {
	a := domain.Viewport{Bbox: domain.Bbox{Xmin: 25.04, Ymin: 22.04, Xmax: 36.04, Ymax: 31.04}, Zoom: 5}
	b := domain.Viewport{Bbox: domain.Bbox{Xmin: 25.01, Ymin: 22.01, Xmax: 36.01, Ymax: 31.01}, Zoom: 5}
	assert.Equal(t, CacheKey(a, "1=1"), CacheKey(b, "1=1"),
		"sub-precision pan keeps the key at low zoom")
}

func TestCacheKeyPrecisionGrowsWithZoom(t *testing.T) {
	a := domain.Bbox{Xmin: 25.04, Ymin: 22.04, Xmax: 36.04, Ymax: 31.04}
	b := domain.Bbox{Xmin: 25.01, Ymin: 22.01, Xmax: 36.01, Ymax: 31.01}

	assert.Equal(t,
		CacheKey(domain.Viewport{Bbox: a, Zoom: 6}, ""),
		CacheKey(domain.Viewport{Bbox: b, Zoom: 6}, ""))
	assert.NotEqual(t,
		CacheKey(domain.Viewport{Bbox: a, Zoom: 7}, ""),
		CacheKey(domain.Viewport{Bbox: b, Zoom: 7}, ""),
		"two decimals from zoom 7 distinguish the pan")

	c := domain.Bbox{Xmin: 25.004, Ymin: 22.004, Xmax: 36.004, Ymax: 31.004}
	d := domain.Bbox{Xmin: 25.001, Ymin: 22.001, Xmax: 36.001, Ymax: 31.001}
	assert.Equal(t,
		CacheKey(domain.Viewport{Bbox: c, Zoom: 9}, ""),
		CacheKey(domain.Viewport{Bbox: d, Zoom: 9}, ""))
	assert.NotEqual(t,
		CacheKey(domain.Viewport{Bbox: c, Zoom: 10}, ""),
		CacheKey(domain.Viewport{Bbox: d, Zoom: 10}, ""),
		"three decimals from zoom 10")
}

func TestCacheKeyIncludesZoomAndWhere(t *testing.T) {
	vp := domain.Viewport{Bbox: domain.Bbox{Xmin: 25, Ymin: 22, Xmax: 36, Ymax: 31}, Zoom: 8}

	assert.NotEqual(t, CacheKey(vp, "1=1"), CacheKey(domain.Viewport{Bbox: vp.Bbox, Zoom: 9}, "1=1"))
	assert.NotEqual(t, CacheKey(vp, "1=1"), CacheKey(vp, "country = 'Egypt'"))
	assert.Equal(t, CacheKey(vp, ""), CacheKey(vp, "1=1"), "empty WHERE normalized")
}
