package arcgis

// ServerFault is the error payload ArcGIS embeds in otherwise successful
// responses.
type ServerFault struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

type SublayerRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ServiceInfo is the service root metadata (?f=pjson).
type ServiceInfo struct {
	CurrentVersion        float64      `json:"currentVersion"`
	ServiceDescription    string       `json:"serviceDescription"`
	Capabilities          string       `json:"capabilities"`
	SupportedQueryFormats string       `json:"supportedQueryFormats"`
	Layers                []SublayerRef `json:"layers"`
	Tables                []SublayerRef `json:"tables"`
	Error                 *ServerFault  `json:"error"`
}

type Field struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Alias string `json:"alias"`
}

type QueryCapabilities struct {
	SupportsPagination *bool `json:"supportsPagination"`
}

type Outline struct {
	Color []float64 `json:"color"`
	Width *float64  `json:"width"`
}

type Symbol struct {
	Type    string    `json:"type"`
	Color   []float64 `json:"color"`
	Outline *Outline  `json:"outline"`
}

type Renderer struct {
	Type   string  `json:"type"`
	Symbol *Symbol `json:"symbol"`
}

type DrawingInfo struct {
	Renderer *Renderer `json:"renderer"`
}

// LayerInfo is the sublayer metadata. It is fetched once per layer and
// cached for the whole session; server schemas are assumed stable.
type LayerInfo struct {
	ID                        int                `json:"id"`
	Name                      string             `json:"name"`
	Type                      string             `json:"type"`
	GeometryType              string             `json:"geometryType"`
	DisplayField              string             `json:"displayField"`
	MaxRecordCount            int                `json:"maxRecordCount"`
	SupportedQueryFormats     string             `json:"supportedQueryFormats"`
	AdvancedQueryCapabilities *QueryCapabilities `json:"advancedQueryCapabilities"`
	DrawingInfo               *DrawingInfo       `json:"drawingInfo"`
	Fields                    []Field            `json:"fields"`
	Error                     *ServerFault       `json:"error"`
}

// PageSize returns the server-declared page size, defaulting to 1000.
func (l *LayerInfo) PageSize() int {
	if l == nil || l.MaxRecordCount <= 0 {
		return 1000
	}
	return l.MaxRecordCount
}

// SupportsPagination reports whether resultOffset paging is available.
// Absence of the capability flag means supported.
func (l *LayerInfo) SupportsPagination() bool {
	if l == nil || l.AdvancedQueryCapabilities == nil || l.AdvancedQueryCapabilities.SupportsPagination == nil {
		return true
	}
	return *l.AdvancedQueryCapabilities.SupportsPagination
}
