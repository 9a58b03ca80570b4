package kernel_test

import (
	"math"
	"testing"

	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPoint(t *testing.T, lat, lng float64) kernel.GeoPoint {
	t.Helper()
	p, err := kernel.NewGeoPoint(lat, lng)
	require.NoError(t, err)
	return p
}

func TestNewGeoPoint(t *testing.T) {
	t.Run("should accept bounds", func(t *testing.T) {
		for _, c := range [][2]float64{{-90, -180}, {90, 180}, {0, 0}, {12.9716, 77.5946}} {
			p, err := kernel.NewGeoPoint(c[0], c[1])
			require.NoError(t, err)
			assert.InDelta(t, c[0], p.Lat(), 1e-9)
			assert.InDelta(t, c[1], p.Lng(), 1e-9)
		}
	})

	t.Run("should reject out of range coordinates", func(t *testing.T) {
		tests := []struct {
			name     string
			lat, lng float64
			contains []string
		}{
			{name: "latitude", lat: 91, lng: 0, contains: []string{"latitude"}},
			{name: "longitude", lat: 0, lng: -181, contains: []string{"longitude"}},
			{name: "both", lat: -95, lng: 200, contains: []string{"latitude", "longitude"}},
			{name: "nan", lat: math.NaN(), lng: 0, contains: []string{"latitude"}},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, err := kernel.NewGeoPoint(tc.lat, tc.lng)

				require.Error(t, err)
				require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
				for _, s := range tc.contains {
					assert.Contains(t, err.Error(), s)
				}
			})
		}
	})

	t.Run("zero value should fail validation", func(t *testing.T) {
		var p kernel.GeoPoint
		require.ErrorIs(t, p.Validate(), kernel.ErrGeoPointIsNotConstructed)
	})
}

func TestGeoPoint_DistanceTo(t *testing.T) {
	central := mustPoint(t, 12.9716, 77.5946)

	t.Run("distance to self is zero", func(t *testing.T) {
		d, err := central.DistanceTo(central)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, d, 1e-9)
	})

	t.Run("distance is symmetric", func(t *testing.T) {
		pairs := [][2]kernel.GeoPoint{
			{central, mustPoint(t, 13.0358, 77.5970)},
			{mustPoint(t, -33.8688, 151.2093), mustPoint(t, 51.5072, -0.1276)},
			{mustPoint(t, 0, 179.9), mustPoint(t, 0, -179.9)},
		}

		for _, pair := range pairs {
			ab, err := pair[0].DistanceTo(pair[1])
			require.NoError(t, err)
			ba, err := pair[1].DistanceTo(pair[0])
			require.NoError(t, err)
			assert.InDelta(t, ab, ba, 1e-9)
		}
	})

	t.Run("one degree of latitude", func(t *testing.T) {
		north := mustPoint(t, central.Lat()+1, central.Lng())

		d, err := central.DistanceTo(north)
		require.NoError(t, err)
		assert.InDelta(t, 111.19, d, 1e-9)
	})

	t.Run("result is rounded to two decimals", func(t *testing.T) {
		d, err := central.DistanceTo(mustPoint(t, 13.0358, 77.5970))
		require.NoError(t, err)
		assert.InDelta(t, d, math.Round(d*100)/100, 1e-12)
	})

	t.Run("antimeridian takes the short way", func(t *testing.T) {
		d, err := mustPoint(t, 0, 179.9).DistanceTo(mustPoint(t, 0, -179.9))
		require.NoError(t, err)
		assert.Less(t, d, 25.0)
	})

	t.Run("unconstructed point", func(t *testing.T) {
		_, err := central.DistanceTo(kernel.GeoPoint{})
		require.ErrorIs(t, err, kernel.ErrGeoPointIsNotConstructed)
	})
}

func TestBoundingBox(t *testing.T) {
	box, err := kernel.NewBoundingBox(mustPoint(t, 6.5, 68.1), mustPoint(t, 37.1, 97.4))
	require.NoError(t, err)

	tests := []struct {
		name     string
		point    kernel.GeoPoint
		expected bool
	}{
		{name: "inside", point: mustPoint(t, 12.9716, 77.5946), expected: true},
		{name: "south-west corner", point: mustPoint(t, 6.5, 68.1), expected: true},
		{name: "north-east corner", point: mustPoint(t, 37.1, 97.4), expected: true},
		{name: "north of box", point: mustPoint(t, 40, 77), expected: false},
		{name: "west of box", point: mustPoint(t, 20, 60), expected: false},
		{name: "unconstructed", point: kernel.GeoPoint{}, expected: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, box.Contains(tc.point))
		})
	}

	t.Run("inverted corners are rejected", func(t *testing.T) {
		_, err := kernel.NewBoundingBox(mustPoint(t, 37.1, 97.4), mustPoint(t, 6.5, 68.1))
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("zero value box contains nothing", func(t *testing.T) {
		var zero kernel.BoundingBox
		assert.False(t, zero.Contains(mustPoint(t, 10, 70)))
	})
}
