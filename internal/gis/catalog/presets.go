package catalog

import "github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/domain"

// PresetItem selects sublayers of one catalog service.
type PresetItem struct {
	Kind      domain.GisServiceKind `json:"kind"`
	ServiceID string                `json:"serviceId"`
	LayerIDs  []int                 `json:"layerIds,omitempty"`
	Layers    []string              `json:"layers,omitempty"`
}

// Preset is a kid-friendly bundle of services and sublayers enabled in one
// tap.
type Preset struct {
	ID             string       `json:"id"`
	Icon           string       `json:"icon"`
	Label          string       `json:"label"`
	Description    string       `json:"description,omitempty"`
	MinZoomHint    int          `json:"minZoomHint,omitempty"`
	DefaultOpacity *float64     `json:"defaultOpacity,omitempty"`
	Items          []PresetItem `json:"items"`
}

var presets = []Preset{
	{
		ID: "water", Icon: "💧", Label: "المياه",
		Description: "النيل + البحر + مياه", MinZoomHint: 6, DefaultOpacity: opacity(0.6),
		Items: []PresetItem{
			{Kind: domain.ServiceArcgis, ServiceID: "egypt_water_bodies", LayerIDs: []int{8, 9}},
			{Kind: domain.ServiceArcgis, ServiceID: "hydro_egypt", LayerIDs: []int{0}},
		},
	},
	{
		ID: "minerals", Icon: "⛏️", Label: "الثروة المعدنية",
		Description: "مناطق/مواقع معادن في مصر", MinZoomHint: 7, DefaultOpacity: opacity(0.65),
		Items: []PresetItem{
			{Kind: domain.ServiceArcgis, ServiceID: "minerals_africa_egypt", LayerIDs: []int{0}},
			{Kind: domain.ServiceArcgis, ServiceID: "mrds_compact", LayerIDs: []int{0}},
		},
	},
	{
		ID: "geology", Icon: "🪨", Label: "الجيولوجيا",
		Description: "أنواع الصخور وعلاقتها بالمعادن", MinZoomHint: 7, DefaultOpacity: opacity(0.55),
		Items: []PresetItem{
			{Kind: domain.ServiceArcgis, ServiceID: "geology_nubian_project", LayerIDs: []int{26}},
		},
	},
	{
		ID: "energy", Icon: "⚡", Label: "مصادر الطاقة",
		Description: "محطات كهرباء + نوع الوقود", MinZoomHint: 7, DefaultOpacity: opacity(0.6),
		Items: []PresetItem{
			{Kind: domain.ServiceArcgis, ServiceID: "world_power_plants_egypt", LayerIDs: []int{0}},
		},
	},
	{
		ID: "roads", Icon: "🚗", Label: "الطرق",
		Description: "طرق رئيسية داخل مصر", MinZoomHint: 6, DefaultOpacity: opacity(0.65),
		Items: []PresetItem{
			{Kind: domain.ServiceArcgis, ServiceID: "egypt_resource_map", LayerIDs: []int{1}},
		},
	},
	{
		ID: "cities", Icon: "🏙️", Label: "مناطق مأهولة",
		Description: "أماكن/مناطق سكنية", MinZoomHint: 7, DefaultOpacity: opacity(0.55),
		Items: []PresetItem{
			{Kind: domain.ServiceArcgis, ServiceID: "egypt_resource_map", LayerIDs: []int{3}},
		},
	},
	{
		ID: "nature", Icon: "🌿", Label: "نباتات",
		Description: "غابات/شجيرات", MinZoomHint: 6, DefaultOpacity: opacity(0.55),
		Items: []PresetItem{
			{Kind: domain.ServiceArcgis, ServiceID: "egypt_scrub_forest", LayerIDs: []int{2}},
		},
	},
	{
		ID: "sea", Icon: "🌊", Label: "أعماق البحار",
		Description: "خريطة أعماق البحر", DefaultOpacity: opacity(0.45),
		Items: []PresetItem{
			{Kind: domain.ServiceWms, ServiceID: "gebco_bathymetry", Layers: []string{"GEBCO_LATEST"}},
		},
	},
}

// Presets returns a copy of the kids preset list.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

func PresetByID(id string) (Preset, bool) {
	for _, p := range presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// ApplyPreset enables (or disables) every service/sublayer combination the
// preset names. Enabling merges sublayer selections and adopts the preset
// opacity; disabling removes them and keeps the service enabled only while
// it still has selected sublayers.
func ApplyPreset(state *domain.GisState, preset Preset, enabled bool) {
	for _, item := range preset.Items {
		st, ok := state.ByServiceID[item.ServiceID]
		if !ok {
			continue
		}
		switch item.Kind {
		case domain.ServiceArcgis:
			var after []int
			if enabled {
				after = append(append([]int{}, st.SelectedArcgisLayerIds...), item.LayerIDs...)
			} else {
				for _, id := range st.SelectedArcgisLayerIds {
					if !containsInt(item.LayerIDs, id) {
						after = append(after, id)
					}
				}
			}
			state.SetArcgisLayers(item.ServiceID, after)
			st = state.ByServiceID[item.ServiceID]
			state.SetEnabled(item.ServiceID, enabled || len(st.SelectedArcgisLayerIds) > 0 || len(st.SelectedWmsLayers) > 0)
		case domain.ServiceWms:
			var after []string
			if enabled {
				after = append(append([]string{}, st.SelectedWmsLayers...), item.Layers...)
			} else {
				for _, name := range st.SelectedWmsLayers {
					if !containsString(item.Layers, name) {
						after = append(after, name)
					}
				}
			}
			state.SetWmsLayers(item.ServiceID, after)
			st = state.ByServiceID[item.ServiceID]
			state.SetEnabled(item.ServiceID, enabled || len(st.SelectedArcgisLayerIds) > 0 || len(st.SelectedWmsLayers) > 0)
		}
		if enabled && preset.DefaultOpacity != nil {
			state.SetOpacity(item.ServiceID, *preset.DefaultOpacity)
		}
	}
}

func containsInt(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsString(names []string, name string) bool {
	for _, v := range names {
		if v == name {
			return true
		}
	}
	return false
}
