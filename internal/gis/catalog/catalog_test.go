package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/domain"
)

func TestServicesAreWellFormed(t *testing.T) {
	services := Services()
	require.NotEmpty(t, services)

	seen := map[string]bool{}
	for _, s := range services {
		assert.False(t, seen[s.ID], "duplicate service id %q", s.ID)
		seen[s.ID] = true
		assert.NotEmpty(t, s.Label, "%s label", s.ID)
		assert.NotEmpty(t, s.URL, "%s url", s.ID)
		if s.DefaultOpacity != nil {
			assert.GreaterOrEqual(t, *s.DefaultOpacity, 0.0)
			assert.LessOrEqual(t, *s.DefaultOpacity, 1.0)
		}
		switch s.Kind {
		case domain.ServiceArcgis:
			assert.NotEmpty(t, s.DefaultLayerIds, "%s needs default sublayers", s.ID)
		case domain.ServiceWms:
			assert.NotEmpty(t, s.DefaultLayers, "%s needs default wms layers", s.ID)
		case domain.ServiceArcgisRoot:
		default:
			t.Errorf("%s: unknown kind %q", s.ID, s.Kind)
		}
	}
}

func TestServiceByID(t *testing.T) {
	s, ok := ServiceByID("gebco_bathymetry", nil)
	require.True(t, ok)
	assert.Equal(t, domain.ServiceWms, s.Kind)

	custom := domain.GisServiceDef{ID: "mine", Label: "Mine", URL: "https://example.com", Kind: domain.ServiceArcgis}
	s, ok = ServiceByID("mine", []domain.GisServiceDef{custom})
	require.True(t, ok)
	assert.Equal(t, "Mine", s.Label)

	_, ok = ServiceByID("nope", nil)
	assert.False(t, ok)
}

func TestPresetsReferenceCatalogServices(t *testing.T) {
	ids := map[string]domain.GisServiceKind{}
	for _, s := range Services() {
		ids[s.ID] = s.Kind
	}
	for _, p := range Presets() {
		assert.NotEmpty(t, p.Label, "%s label", p.ID)
		assert.NotEmpty(t, p.Items, "%s items", p.ID)
		for _, item := range p.Items {
			kind, ok := ids[item.ServiceID]
			require.True(t, ok, "preset %s references unknown service %s", p.ID, item.ServiceID)
			require.Equal(t, kind, item.Kind, "preset %s kind mismatch for %s", p.ID, item.ServiceID)
			if item.Kind == domain.ServiceArcgis {
				assert.NotEmpty(t, item.LayerIDs, "preset %s item %s", p.ID, item.ServiceID)
			} else {
				assert.NotEmpty(t, item.Layers, "preset %s item %s", p.ID, item.ServiceID)
			}
		}
	}
}

func TestApplyPresetEnable(t *testing.T) {
	state := domain.NewGisState(Services())
	preset, ok := PresetByID("water")
	require.True(t, ok)

	ApplyPreset(state, preset, true)

	water := state.ByServiceID["egypt_water_bodies"]
	assert.True(t, water.Enabled)
	assert.Equal(t, []int{8, 9}, water.SelectedArcgisLayerIds)
	assert.Equal(t, 0.6, water.Opacity, "preset opacity adopted on enable")
	assert.True(t, state.ByServiceID["hydro_egypt"].Enabled)
}

func TestApplyPresetMergesSelections(t *testing.T) {
	state := domain.NewGisState(Services())
	require.NoError(t, state.SetArcgisLayers("egypt_water_bodies", []int{3}))

	preset, _ := PresetByID("water")
	ApplyPreset(state, preset, true)
	assert.Equal(t, []int{3, 8, 9}, state.ByServiceID["egypt_water_bodies"].SelectedArcgisLayerIds)
}

func TestApplyPresetDisable(t *testing.T) {
	state := domain.NewGisState(Services())
	preset, _ := PresetByID("water")
	ApplyPreset(state, preset, true)

	// a selection outside the preset keeps the service on
	require.NoError(t, state.ToggleArcgisLayer("egypt_water_bodies", 3))

	ApplyPreset(state, preset, false)

	water := state.ByServiceID["egypt_water_bodies"]
	assert.True(t, water.Enabled, "non-preset sublayer still selected")
	assert.Equal(t, []int{3}, water.SelectedArcgisLayerIds)

	hydro := state.ByServiceID["hydro_egypt"]
	assert.False(t, hydro.Enabled)
	assert.Empty(t, hydro.SelectedArcgisLayerIds)
}

func TestApplyPresetWms(t *testing.T) {
	state := domain.NewGisState(Services())
	preset, ok := PresetByID("sea")
	require.True(t, ok)

	ApplyPreset(state, preset, true)
	sea := state.ByServiceID["gebco_bathymetry"]
	assert.True(t, sea.Enabled)
	assert.Equal(t, []string{"GEBCO_LATEST"}, sea.SelectedWmsLayers)

	ApplyPreset(state, preset, false)
	sea = state.ByServiceID["gebco_bathymetry"]
	assert.False(t, sea.Enabled)
	assert.Empty(t, sea.SelectedWmsLayers)
}
