// Package catalog is the builtin set of external GIS services shown to kids
// exploring Egypt's geography, minerals and national projects. The catalog
// is process-wide static configuration; per-session overrides live in
// domain.GisState.
package catalog

import "github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/domain"

func opacity(v float64) *float64 { return &v }

var builtin = []domain.GisServiceDef{
	{
		ID:              "egypt_water_bodies",
		Label:           "Egypt Water Bodies",
		URL:             "https://services.arcgisonline.com/arcgis/rest/services/Reference/Egypt_Water_Bodies/MapServer",
		Kind:            domain.ServiceArcgis,
		Description:     "النيل والبحيرات والمسطحات المائية",
		DefaultOpacity:  opacity(0.6),
		DefaultLayerIds: []int{8, 9},
		MinZoom:         6,
	},
	{
		ID:              "hydro_egypt",
		Label:           "Hydrology of Egypt",
		URL:             "https://services9.arcgis.com/q5uyFfTZo3LFL04P/arcgis/rest/services/Hydro_Egypt/FeatureServer",
		Kind:            domain.ServiceArcgis,
		Description:     "شبكة المياه في مصر",
		DefaultOpacity:  opacity(0.6),
		DefaultLayerIds: []int{0},
		MinZoom:         6,
	},
	{
		ID:              "minerals_africa_egypt",
		Label:           "African Mineral Deposits",
		URL:             "https://services9.arcgis.com/q5uyFfTZo3LFL04P/arcgis/rest/services/Africa_Mineral_Deposits/FeatureServer",
		Kind:            domain.ServiceArcgis,
		Description:     "مواقع المعادن في مصر",
		DefaultOpacity:  opacity(0.65),
		DefaultLayerIds: []int{0},
		DefaultWhereByLayerId: map[int]string{
			0: "country = 'Egypt'",
		},
		MinZoom: 7,
	},
	{
		ID:              "mrds_compact",
		Label:           "Mineral Resources (MRDS)",
		URL:             "https://mrdata.usgs.gov/services/rest/mrds/MapServer",
		Kind:            domain.ServiceArcgis,
		Description:     "قاعدة بيانات الموارد المعدنية",
		DefaultOpacity:  opacity(0.65),
		DefaultLayerIds: []int{0},
		MinZoom:         7,
	},
	{
		ID:              "geology_nubian_project",
		Label:           "Nubian Aquifer Geology",
		URL:             "https://services9.arcgis.com/q5uyFfTZo3LFL04P/arcgis/rest/services/Nubian_Geology/MapServer",
		Kind:            domain.ServiceArcgis,
		Description:     "أنواع الصخور وعلاقتها بالمعادن",
		DefaultOpacity:  opacity(0.55),
		DefaultLayerIds: []int{26},
		MinZoom:         7,
	},
	{
		ID:              "world_power_plants_egypt",
		Label:           "Power Plants",
		URL:             "https://services.arcgis.com/P3ePLMYs2RVChkJx/arcgis/rest/services/Global_Power_Plants/FeatureServer",
		Kind:            domain.ServiceArcgis,
		Description:     "محطات الكهرباء ونوع الوقود",
		DefaultOpacity:  opacity(0.6),
		DefaultLayerIds: []int{0},
		DefaultWhereByLayerId: map[int]string{
			0: "country = 'Egypt'",
		},
		MinZoom: 7,
	},
	{
		ID:              "egypt_resource_map",
		Label:           "Egypt Resource Map",
		URL:             "https://services9.arcgis.com/q5uyFfTZo3LFL04P/arcgis/rest/services/Egypt_Resources/MapServer",
		Kind:            domain.ServiceArcgis,
		Description:     "طرق ومناطق سكنية وموارد",
		DefaultOpacity:  opacity(0.65),
		DefaultLayerIds: []int{1},
		MinZoom:         6,
	},
	{
		ID:              "egypt_scrub_forest",
		Label:           "Vegetation Cover",
		URL:             "https://services9.arcgis.com/q5uyFfTZo3LFL04P/arcgis/rest/services/Egypt_Landcover/MapServer",
		Kind:            domain.ServiceArcgis,
		Description:     "غابات وشجيرات",
		DefaultOpacity:  opacity(0.55),
		DefaultLayerIds: []int{2},
		MinZoom:         6,
	},
	{
		ID:          "usgs_services_root",
		Label:       "USGS Science Catalog",
		URL:         "https://mrdata.usgs.gov/services/rest",
		Kind:        domain.ServiceArcgisRoot,
		Description: "استكشاف خدمات إضافية",
	},
	{
		ID:             "gebco_bathymetry",
		Label:          "Sea Depth (GEBCO)",
		URL:            "https://wms.gebco.net/mapserv",
		Kind:           domain.ServiceWms,
		Description:    "أعماق البحار حول مصر",
		DefaultOpacity: opacity(0.45),
		DefaultLayers:  []string{"GEBCO_LATEST"},
		Version:        "1.3.0",
		Format:         "image/png",
	},
}

// Services returns a copy of the builtin service catalog.
func Services() []domain.GisServiceDef {
	out := make([]domain.GisServiceDef, len(builtin))
	copy(out, builtin)
	return out
}

// ServiceByID looks up a service in the builtin catalog plus extras.
func ServiceByID(id string, extra []domain.GisServiceDef) (domain.GisServiceDef, bool) {
	for _, s := range builtin {
		if s.ID == id {
			return s, true
		}
	}
	for _, s := range extra {
		if s.ID == id {
			return s, true
		}
	}
	return domain.GisServiceDef{}, false
}
