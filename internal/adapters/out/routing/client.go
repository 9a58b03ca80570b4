// Package routing is the HTTP client of the maps provider. It serves driving directions for
// delivery pricing and geocoding for address validation.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/ports"
	"pharmacy/internal/pkg/errs"
)

const DefaultTimeout = 3 * time.Second

var ErrNoGeocodeResult = errors.New("geocoder returned no result")

var (
	_ ports.RoutingProvider = (*Client)(nil)
	_ ports.Geocoder        = (*Client)(nil)
)

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient builds a client for baseURL. Every request is bounded by timeout on top of the
// caller's context deadline.
func NewClient(baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errs.NewValueIsRequiredError("routing base url")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("routing base url", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type directionsResponse struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func (c *Client) GetDirections(ctx context.Context, from, to kernel.GeoPoint) (ports.Directions, error) {
	values := url.Values{}
	values.Set("origin", formatPoint(from))
	values.Set("destination", formatPoint(to))

	var resp directionsResponse
	if err := c.getJSON(ctx, "/directions", values, &resp); err != nil {
		return ports.Directions{}, errs.NewExternalServiceError("routing", err)
	}
	if resp.DistanceMeters < 0 || resp.DurationSeconds < 0 {
		return ports.Directions{}, errs.NewExternalServiceError("routing",
			fmt.Errorf("negative route: %v m, %v s", resp.DistanceMeters, resp.DurationSeconds))
	}

	return ports.Directions{
		DistanceKm:  resp.DistanceMeters / 1000,
		DurationMin: int((resp.DurationSeconds + 59) / 60),
	}, nil
}

type geocodeResponse struct {
	Results []struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"results"`
}

func (c *Client) Geocode(ctx context.Context, query string) (kernel.GeoPoint, error) {
	values := url.Values{}
	values.Set("q", query)

	var resp geocodeResponse
	if err := c.getJSON(ctx, "/geocode", values, &resp); err != nil {
		return kernel.GeoPoint{}, errs.NewExternalServiceError("geocoding", err)
	}
	if len(resp.Results) == 0 {
		return kernel.GeoPoint{}, errs.NewExternalServiceError("geocoding", ErrNoGeocodeResult)
	}

	best := resp.Results[0]
	point, err := kernel.NewGeoPoint(best.Lat, best.Lng)
	if err != nil {
		return kernel.GeoPoint{}, errs.NewExternalServiceError("geocoding", err)
	}
	return point, nil
}

type reverseGeocodeResponse struct {
	Line       string `json:"line"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

func (c *Client) ReverseGeocode(ctx context.Context, point kernel.GeoPoint) (ports.GeocodedAddress, error) {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(point.Lat(), 'f', -1, 64))
	values.Set("lng", strconv.FormatFloat(point.Lng(), 'f', -1, 64))

	var resp reverseGeocodeResponse
	if err := c.getJSON(ctx, "/reverse", values, &resp); err != nil {
		return ports.GeocodedAddress{}, errs.NewExternalServiceError("reverse geocoding", err)
	}

	return ports.GeocodedAddress{Line: resp.Line, City: resp.City, PostalCode: resp.PostalCode}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, values url.Values, out any) error {
	endpoint := c.baseURL + path + "?" + values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return fmt.Errorf("http status %d: %s", resp.StatusCode, msg)
		}
		return fmt.Errorf("http status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func formatPoint(p kernel.GeoPoint) string {
	return strconv.FormatFloat(p.Lat(), 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng(), 'f', -1, 64)
}
