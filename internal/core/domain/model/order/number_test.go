package order_test

import (
	"testing"
	"time"

	"pharmacy/internal/core/domain/model/order"
	"pharmacy/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNumber(t *testing.T) {
	issuedAt := time.Date(2026, time.October, 14, 23, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))

	tests := []struct {
		category order.Category
		sequence int64
		want     string
	}{
		{order.CategoryMedicine, 42, "MED-20261014-000042"},
		{order.CategoryPrescription, 1, "RX-20261014-000001"},
		{order.CategoryLabTest, 1234567, "LAB-20261014-1234567"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			n, err := order.NewNumber(tt.category, issuedAt, tt.sequence)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.String())

			parsed, err := order.ParseNumber(n.String())
			require.NoError(t, err)
			assert.Equal(t, n, parsed)
		})
	}

	t.Run("uses the UTC date", func(t *testing.T) {
		late := time.Date(2026, time.October, 15, 2, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
		n, err := order.NewNumber(order.CategoryMedicine, late, 7)
		require.NoError(t, err)
		assert.Equal(t, "MED-20261014-000007", n.String())
	})

	t.Run("rejects non-positive sequence", func(t *testing.T) {
		_, err := order.NewNumber(order.CategoryMedicine, issuedAt, 0)
		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		_, err := order.NewNumber(order.Category("cosmetics"), issuedAt, 1)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestParseNumber(t *testing.T) {
	for _, s := range []string{"", "MED-2026-000001", "XYZ-20261014-000001", "MED-20261014-12"} {
		_, err := order.ParseNumber(s)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid, s)
	}
}
