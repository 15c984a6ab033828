package server

import (
	"fmt"
	"html"
	"net/http"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/paulmach/orb/geojson"

	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/domain"
	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/gis/arcgis"
	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/gis/catalog"
	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/gis/style"
)

// popupMaxRows caps the attribute table rendered into a feature popup.
const popupMaxRows = 12

func parseLayerID(raw string) (int, error) {
	return strconv.Atoi(raw)
}

func layerURLFor(def domain.GisServiceDef, layerID int) string {
	return arcgis.LayerURL(def.URL, layerID)
}

// popupKeys returns the feature's non-null attribute names in a stable
// order: the layer's declared field order when known, otherwise sorted.
func popupKeys(props geojson.Properties, info *arcgis.LayerInfo) []string {
	present := make(map[string]bool, len(props))
	for k, v := range props {
		if v != nil {
			present[k] = true
		}
	}
	keys := make([]string, 0, len(present))
	if info != nil {
		for _, f := range info.Fields {
			if present[f.Name] {
				keys = append(keys, f.Name)
				delete(present, f.Name)
			}
		}
	}
	rest := make([]string, 0, len(present))
	for k := range present {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func popupValue(v interface{}) string {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		enc, err := jsoniter.MarshalToString(v)
		if err == nil {
			return enc
		}
	}
	return fmt.Sprint(v)
}

// featurePopupHTML summarizes a feature's top attributes as an HTML table:
// title from the display field when present, else the first attribute.
func featurePopupHTML(f *geojson.Feature, info *arcgis.LayerInfo) string {
	keys := popupKeys(f.Properties, info)
	title := "Feature"
	if info != nil && info.DisplayField != "" {
		if v, ok := f.Properties[info.DisplayField]; ok && v != nil {
			title = popupValue(v)
		} else if len(keys) > 0 {
			title = popupValue(f.Properties[keys[0]])
		}
	} else if len(keys) > 0 {
		title = popupValue(f.Properties[keys[0]])
	}

	var rows strings.Builder
	for i, k := range keys {
		if i >= popupMaxRows {
			break
		}
		rows.WriteString(`<tr><td style="opacity:0.75;padding:4px 8px;white-space:nowrap">`)
		rows.WriteString(html.EscapeString(k))
		rows.WriteString(`</td><td style="padding:4px 8px">`)
		rows.WriteString(html.EscapeString(popupValue(f.Properties[k])))
		rows.WriteString(`</td></tr>`)
	}

	return `<div style="min-width:220px">` +
		`<div style="font-weight:900;margin:2px 0 8px">` + html.EscapeString(title) + `</div>` +
		`<table style="width:100%;border-collapse:collapse;font-size:12px">` + rows.String() + `</table>` +
		`</div>`
}

type FeaturesResponse struct {
	LayerKey          string                     `json:"layerKey"`
	FeatureCollection *geojson.FeatureCollection `json:"featureCollection"`
	Style             style.LayerStyle           `json:"style"`
	Popups            []string                   `json:"popups"`
}

// handleGetFeatures returns the latest loaded features of one sublayer with
// resolved styling and ready-made popup HTML per feature.
func (s *Server) handleGetFeatures(c echo.Context) error {
	sess := getSession(c)
	serviceID := c.Param("id")
	layerKey := domain.LayerKey(serviceID, c.Param("layer"))

	fc, info, ok := sess.Loader.Features(layerKey)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, domain.ErrLayerNotLoaded.Error())
	}

	opacity := 1.0
	if st, exists := sess.State().ByServiceID[serviceID]; exists {
		opacity = domain.ClampOpacity(st.Opacity)
	}
	_, isCatalogService := catalog.ServiceByID(serviceID, sess.State().CustomServices)
	if !isCatalogService {
		return echo.ErrNotFound
	}

	popups := make([]string, len(fc.Features))
	for i, f := range fc.Features {
		popups[i] = featurePopupHTML(f, info)
	}

	return c.JSON(http.StatusOK, FeaturesResponse{
		LayerKey:          layerKey,
		FeatureCollection: fc,
		Style:             style.FromLayerInfo(info).WithOpacity(opacity),
		Popups:            popups,
	})
}
