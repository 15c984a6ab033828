package loader

import (
	"fmt"
	"math"
	"strconv"

	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/domain"
)

// bboxPrecision coarsens with zoom so that tiny pans at low zoom do not
// change the cache key and trigger refetches.
func bboxPrecision(zoom int) int {
	switch {
	case zoom < 7:
		return 1
	case zoom < 10:
		return 2
	default:
		return 3
	}
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// CacheKey identifies one fetch cycle: zoom, the bbox rounded to a
// zoom-dependent precision, and the WHERE clause. An unchanged key means the
// previous result is still valid.
func CacheKey(vp domain.Viewport, where string) string {
	if where == "" {
		where = domain.DefaultWhere
	}
	d := bboxPrecision(vp.Zoom)
	r := func(x float64) string {
		return strconv.FormatFloat(roundTo(x, d), 'f', -1, 64)
	}
	b := vp.Bbox
	return fmt.Sprintf("%d:%s,%s,%s,%s|%s", vp.Zoom, r(b.Xmin), r(b.Ymin), r(b.Xmax), r(b.Ymax), where)
}
