package server

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"

	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/gis/arcgis"
)

func pointFeature(props map[string]interface{}) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{31.2, 30.05})
	f.Properties = props
	return f
}

func TestPopupKeysFollowFieldOrder(t *testing.T) {
	info := &arcgis.LayerInfo{
		Fields: []arcgis.Field{
			{Name: "name_ar"},
			{Name: "commodity"},
			{Name: "absent"},
		},
	}
	props := geojson.Properties{
		"zzz":       1,
		"commodity": "Gold",
		"name_ar":   "السكري",
		"skip":      nil,
	}

	keys := popupKeys(props, info)
	assert.Equal(t, []string{"name_ar", "commodity", "zzz"}, keys,
		"declared fields first, leftovers sorted, nulls dropped")
}

func TestPopupKeysWithoutLayerInfo(t *testing.T) {
	props := geojson.Properties{"b": 1, "a": 2, "c": nil}
	assert.Equal(t, []string{"a", "b"}, popupKeys(props, nil))
}

func TestFeaturePopupHTMLUsesDisplayField(t *testing.T) {
	info := &arcgis.LayerInfo{
		DisplayField: "name_ar",
		Fields:       []arcgis.Field{{Name: "name_ar"}, {Name: "depth"}},
	}
	f := pointFeature(map[string]interface{}{"name_ar": "بحيرة ناصر", "depth": 35})

	html := featurePopupHTML(f, info)
	assert.Contains(t, html, "بحيرة ناصر")
	assert.Contains(t, html, "depth")
	assert.Contains(t, html, "<table")
}

func TestFeaturePopupHTMLEscapesValues(t *testing.T) {
	f := pointFeature(map[string]interface{}{"note": `<script>alert("x")</script>`})
	html := featurePopupHTML(f, nil)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestFeaturePopupHTMLRowLimit(t *testing.T) {
	props := map[string]interface{}{}
	for _, k := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m", "n"} {
		props[k] = k
	}
	html := featurePopupHTML(pointFeature(props), nil)
	assert.Equal(t, popupMaxRows, strings.Count(html, "<tr>"))
}

func TestFeaturePopupHTMLNestedValues(t *testing.T) {
	f := pointFeature(map[string]interface{}{
		"attrs": map[string]interface{}{"fuel": "solar"},
	})
	html := featurePopupHTML(f, nil)
	assert.Contains(t, html, "fuel")
	assert.Contains(t, html, "solar")
}
