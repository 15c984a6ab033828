// Package gis holds the error taxonomy shared by the external service
// clients. All three error kinds are recoverable: the loader converts them
// into a per-layer error status without affecting other layers.
package gis

import "fmt"

// FetchError is a network failure or a non-2xx HTTP response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError is a malformed JSON or XML payload.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing response from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ServerError is a well-formed response carrying an embedded error payload.
// ArcGIS servers routinely report errors this way on HTTP 200.
type ServerError struct {
	URL     string
	Message string
}

func (e *ServerError) Error() string { return e.Message }
