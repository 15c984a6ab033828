// Package wms discovers layer names from WMS GetCapabilities documents.
package wms

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/gis"
)

// LayerInfo is one named layer advertised by a WMS endpoint.
type LayerInfo struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
}

// Capability documents nest <Layer> elements arbitrarily deep; layers
// without a <Name> are pure grouping nodes.
type capLayer struct {
	Name   string     `xml:"Name"`
	Title  string     `xml:"Title"`
	Layers []capLayer `xml:"Layer"`
}

type capabilitiesDoc struct {
	XMLName    xml.Name
	Capability struct {
		Layers []capLayer `xml:"Layer"`
	} `xml:"Capability"`
}

type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetCapabilitiesURL builds the capabilities request for a service base URL.
func GetCapabilitiesURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("service", "WMS")
	q.Set("request", "GetCapabilities")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchLayers fetches and parses GetCapabilities into a flat, deduplicated
// layer list in first-seen order.
func (c *Client) FetchLayers(ctx context.Context, baseURL string) ([]LayerInfo, error) {
	capURL, err := GetCapabilitiesURL(baseURL)
	if err != nil {
		return nil, &gis.FetchError{URL: baseURL, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, capURL, nil)
	if err != nil {
		return nil, &gis.FetchError{URL: capURL, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &gis.FetchError{URL: capURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &gis.FetchError{URL: capURL, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &gis.FetchError{URL: capURL, Err: err}
	}
	return ParseCapabilities(capURL, body)
}

// ParseCapabilities extracts named layers from a capabilities document.
// A malformed document is a hard failure; a well-formed document with no
// named layers yields an empty list.
func ParseCapabilities(docURL string, data []byte) ([]LayerInfo, error) {
	var doc capabilitiesDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &gis.ParseError{URL: docURL, Err: err}
	}
	seen := make(map[string]bool)
	out := []LayerInfo{}
	var walk func(layers []capLayer)
	walk = func(layers []capLayer) {
		for _, l := range layers {
			name := strings.TrimSpace(l.Name)
			if name != "" && !seen[name] {
				seen[name] = true
				out = append(out, LayerInfo{Name: name, Title: strings.TrimSpace(l.Title)})
			}
			walk(l.Layers)
		}
	}
	walk(doc.Capability.Layers)
	return out, nil
}
