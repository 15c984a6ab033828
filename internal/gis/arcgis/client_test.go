package arcgis

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/domain"
	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/gis"
)

var testBbox = domain.Bbox{Xmin: 24.7, Ymin: 22.0, Xmax: 36.9, Ymax: 31.7}

func featurePage(count int) string {
	features := make([]string, count)
	for i := range features {
		features[i] = fmt.Sprintf(`{"type":"Feature","geometry":{"type":"Point","coordinates":[31.2,30.05]},"properties":{"name":"f%d"}}`, i)
	}
	return `{"type":"FeatureCollection","features":[` + strings.Join(features, ",") + `]}`
}

func layerInfoWith(pageSize int, paginated bool) *LayerInfo {
	return &LayerInfo{
		MaxRecordCount:            pageSize,
		AdvancedQueryCapabilities: &QueryCapabilities{SupportsPagination: &paginated},
	}
}

func TestLayerURL(t *testing.T) {
	assert.Equal(
		t,
		"https://example.com/arcgis/rest/services/Water/MapServer/8",
		LayerURL("https://example.com/arcgis/rest/services/Water/MapServer/", 8),
	)
}

func TestQueryLayerGeoJSONPagination(t *testing.T) {
	pages := []int{2, 2, 1}
	var offsets []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/layers/0/query", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "geojson", q.Get("f"))
		assert.Equal(t, "esriGeometryEnvelope", q.Get("geometryType"))
		assert.Equal(t, "esriSpatialRelIntersects", q.Get("spatialRel"))
		assert.Equal(t, testBbox.String(), q.Get("geometry"))
		assert.Equal(t, "2", q.Get("resultRecordCount"))
		offsets = append(offsets, q.Get("resultOffset"))

		page := len(offsets) - 1
		require.Less(t, page, len(pages), "server queried past the short page")
		fmt.Fprint(w, featurePage(pages[page]))
	}))
	defer ts.Close()

	c := NewClient(5 * time.Second)
	fc, err := c.QueryLayerGeoJSON(context.Background(), QueryOptions{
		LayerURL:  ts.URL + "/layers/0",
		Bbox:      testBbox,
		Zoom:      8,
		LayerInfo: layerInfoWith(2, true),
	})
	require.NoError(t, err)
	assert.Len(t, fc.Features, 5)
	assert.Equal(t, []string{"0", "2", "4"}, offsets)
}

func TestQueryLayerGeoJSONMaxPages(t *testing.T) {
	requests := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, featurePage(3))
	}))
	defer ts.Close()

	c := NewClient(5 * time.Second)
	fc, err := c.QueryLayerGeoJSON(context.Background(), QueryOptions{
		LayerURL:  ts.URL + "/layers/0",
		Bbox:      testBbox,
		Zoom:      8,
		MaxPages:  4,
		LayerInfo: layerInfoWith(3, true),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, requests, "paging capped even though pages stay full")
	assert.Len(t, fc.Features, 12)
}

func TestQueryLayerGeoJSONWithoutPagination(t *testing.T) {
	requests := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.False(t, r.URL.Query().Has("resultOffset"))
		fmt.Fprint(w, featurePage(2))
	}))
	defer ts.Close()

	c := NewClient(5 * time.Second)
	fc, err := c.QueryLayerGeoJSON(context.Background(), QueryOptions{
		LayerURL:  ts.URL + "/layers/0",
		Bbox:      testBbox,
		Zoom:      8,
		LayerInfo: layerInfoWith(2, false),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, requests, "single request when the layer cannot page")
	assert.Len(t, fc.Features, 2)
}

func TestQueryLayerGeoJSONEmbeddedError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"code":400,"message":"Invalid where clause"}}`)
	}))
	defer ts.Close()

	c := NewClient(5 * time.Second)
	_, err := c.QueryLayerGeoJSON(context.Background(), QueryOptions{
		LayerURL:  ts.URL + "/layers/0",
		Bbox:      testBbox,
		Zoom:      8,
		LayerInfo: layerInfoWith(100, true),
	})
	var serverErr *gis.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, "Invalid where clause", serverErr.Message)
}

func TestQueryLayerGeoJSONHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer ts.Close()

	c := NewClient(5 * time.Second)
	_, err := c.QueryLayerGeoJSON(context.Background(), QueryOptions{
		LayerURL:  ts.URL + "/layers/0",
		Bbox:      testBbox,
		Zoom:      8,
		LayerInfo: layerInfoWith(100, true),
	})
	var fetchErr *gis.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusBadGateway, fetchErr.StatusCode)
}

func TestQueryLayerGeoJSONInvalidBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not json</html>")
	}))
	defer ts.Close()

	c := NewClient(5 * time.Second)
	_, err := c.QueryLayerGeoJSON(context.Background(), QueryOptions{
		LayerURL:  ts.URL + "/layers/0",
		Bbox:      testBbox,
		Zoom:      8,
		LayerInfo: layerInfoWith(100, true),
	})
	var parseErr *gis.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestGetLayerInfo(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pjson", r.URL.Query().Get("f"))
		fmt.Fprint(w, `{
			"id": 8,
			"name": "Lakes",
			"geometryType": "esriGeometryPolygon",
			"displayField": "name_ar",
			"maxRecordCount": 2000,
			"advancedQueryCapabilities": {"supportsPagination": true},
			"fields": [{"name": "name_ar", "type": "esriFieldTypeString", "alias": "الاسم"}]
		}`)
	}))
	defer ts.Close()

	c := NewClient(5 * time.Second)
	info, err := c.GetLayerInfo(context.Background(), ts.URL+"/layers/8")
	require.NoError(t, err)
	assert.Equal(t, "Lakes", info.Name)
	assert.Equal(t, "esriGeometryPolygon", info.GeometryType)
	assert.Equal(t, 2000, info.PageSize())
	assert.True(t, info.SupportsPagination())
	require.Len(t, info.Fields, 1)
	assert.Equal(t, "الاسم", info.Fields[0].Alias)
}

func TestGetServiceInfoServerFault(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"code":499,"message":"Token Required"}}`)
	}))
	defer ts.Close()

	c := NewClient(5 * time.Second)
	_, err := c.GetServiceInfo(context.Background(), ts.URL+"/rest/services")
	var serverErr *gis.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, "Token Required", serverErr.Message)
}

func TestMaxAllowableOffsetDeg(t *testing.T) {
	// finer tolerance as zoom increases
	assert.Greater(t, MaxAllowableOffsetDeg(5, 27), MaxAllowableOffsetDeg(6, 27))
	assert.Greater(t, MaxAllowableOffsetDeg(6, 27), MaxAllowableOffsetDeg(12, 27))

	// finer tolerance away from the equator
	assert.Greater(t, MaxAllowableOffsetDeg(8, 0), MaxAllowableOffsetDeg(8, 45))

	// cos(lat) floor keeps polar tolerances bounded
	assert.Equal(t, MaxAllowableOffsetDeg(8, 89), MaxAllowableOffsetDeg(8, 85))
}

func TestMetersPerPixelHalvesPerZoom(t *testing.T) {
	for zoom := 0; zoom < 10; zoom++ {
		ratio := MetersPerPixel(zoom, 30) / MetersPerPixel(zoom+1, 30)
		assert.InDelta(t, 2.0, ratio, 1e-9, "zoom "+strconv.Itoa(zoom))
	}
}
