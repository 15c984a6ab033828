package arcgis

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/paulmach/orb/geojson"

	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/domain"
	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/gis"
)

const DefaultMaxPages = 6

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client talks to ArcGIS Feature/Map Server REST endpoints.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// LayerURL addresses a sublayer within a service by its integer id.
func LayerURL(serviceURL string, layerID int) string {
	return strings.TrimRight(serviceURL, "/") + "/" + strconv.Itoa(layerID)
}

func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &gis.FetchError{URL: rawURL, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &gis.FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &gis.FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &gis.FetchError{URL: rawURL, Err: err}
	}
	return body, nil
}

func (c *Client) fetchJSON(ctx context.Context, baseURL string, target interface{}) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return &gis.FetchError{URL: baseURL, Err: err}
	}
	q := u.Query()
	q.Set("f", "pjson")
	u.RawQuery = q.Encode()

	body, err := c.fetch(ctx, u.String())
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return &gis.ParseError{URL: baseURL, Err: err}
	}
	return nil
}

// GetServiceInfo fetches service root metadata with the sublayer list.
func (c *Client) GetServiceInfo(ctx context.Context, serviceURL string) (*ServiceInfo, error) {
	var info ServiceInfo
	if err := c.fetchJSON(ctx, serviceURL, &info); err != nil {
		return nil, err
	}
	if info.Error != nil {
		return nil, &gis.ServerError{URL: serviceURL, Message: info.Error.Message}
	}
	return &info, nil
}

// GetLayerInfo fetches sublayer metadata: geometry type, renderer,
// maxRecordCount, pagination capability, display field and fields.
func (c *Client) GetLayerInfo(ctx context.Context, layerURL string) (*LayerInfo, error) {
	var info LayerInfo
	if err := c.fetchJSON(ctx, layerURL, &info); err != nil {
		return nil, err
	}
	if info.Error != nil {
		return nil, &gis.ServerError{URL: layerURL, Message: info.Error.Message}
	}
	return &info, nil
}

// MetersPerPixel is the web mercator ground resolution at the given zoom and
// latitude, with cos(lat) floored at 0.2 to keep tolerances sane towards the
// poles.
func MetersPerPixel(zoom int, lat float64) float64 {
	cos := math.Cos(lat * math.Pi / 180)
	return 156543.03392 * math.Max(0.2, cos) / math.Pow(2, float64(zoom))
}

// MaxAllowableOffsetDeg converts the ground resolution into a server-side
// generalization tolerance in degrees: coarser shapes at low zoom, full
// detail at high zoom.
func MaxAllowableOffsetDeg(zoom int, lat float64) float64 {
	return MetersPerPixel(zoom, lat) * 2.0 / 111320
}

type QueryOptions struct {
	LayerURL  string
	Bbox      domain.Bbox
	Where     string
	OutFields string
	Zoom      int
	MaxPages  int
	// LayerInfo, when already known, avoids a metadata roundtrip.
	LayerInfo *LayerInfo
}

// QueryLayerGeoJSON runs a paginated, bbox-filtered feature query and merges
// all pages into one feature collection. Paging stops on a short page, when
// the layer does not support pagination, or after MaxPages requests.
func (c *Client) QueryLayerGeoJSON(ctx context.Context, opts QueryOptions) (*geojson.FeatureCollection, error) {
	where := opts.Where
	if where == "" {
		where = domain.DefaultWhere
	}
	outFields := opts.OutFields
	if outFields == "" {
		outFields = "*"
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	layerInfo := opts.LayerInfo
	if layerInfo == nil {
		info, err := c.GetLayerInfo(ctx, opts.LayerURL)
		if err != nil {
			return nil, err
		}
		layerInfo = info
	}
	pageSize := layerInfo.PageSize()
	paginated := layerInfo.SupportsPagination()

	tolerance := MaxAllowableOffsetDeg(opts.Zoom, opts.Bbox.CenterLat())
	queryURL := strings.TrimRight(opts.LayerURL, "/") + "/query"

	out := geojson.NewFeatureCollection()
	offset := 0
	for page := 0; page < maxPages; page++ {
		q := url.Values{}
		q.Set("f", "geojson")
		q.Set("where", where)
		q.Set("outFields", outFields)
		q.Set("returnGeometry", "true")
		q.Set("geometryType", "esriGeometryEnvelope")
		q.Set("inSR", "4326")
		q.Set("outSR", "4326")
		q.Set("spatialRel", "esriSpatialRelIntersects")
		q.Set("geometry", opts.Bbox.String())
		q.Set("resultRecordCount", strconv.Itoa(pageSize))
		if paginated {
			q.Set("resultOffset", strconv.Itoa(offset))
		}
		q.Set("maxAllowableOffset", strconv.FormatFloat(tolerance, 'f', -1, 64))

		body, err := c.fetch(ctx, queryURL+"?"+q.Encode())
		if err != nil {
			return nil, err
		}

		var probe struct {
			Error *ServerFault `json:"error"`
		}
		if err := json.Unmarshal(body, &probe); err != nil {
			return nil, &gis.ParseError{URL: opts.LayerURL, Err: err}
		}
		if probe.Error != nil {
			return nil, &gis.ServerError{URL: opts.LayerURL, Message: probe.Error.Message}
		}

		fc, err := geojson.UnmarshalFeatureCollection(body)
		if err != nil {
			return nil, &gis.ParseError{URL: opts.LayerURL, Err: err}
		}
		out.Features = append(out.Features, fc.Features...)

		if !paginated || len(fc.Features) < pageSize {
			break
		}
		offset += pageSize
	}
	return out, nil
}
