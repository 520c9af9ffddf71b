// MsHoa Learning | 2026
// entity_test.go

package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatVND(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "0₫"},
		{500, "500₫"},
		{1000, "1.000₫"},
		{99000, "99.000₫"},
		{299000, "299.000₫"},
		{1500000, "1.500.000₫"},
		{1234567890, "1.234.567.890₫"},
		{-299000, "-299.000₫"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatVND(tt.amount))
	}
}

func TestPurchaseOptions(t *testing.T) {
	vipPrice := int64(499000)

	t.Run("individual only", func(t *testing.T) {
		c := &Course{
			RequiredTier:            TierVIP,
			PriceVND:                299000,
			CanPurchaseIndividually: true,
		}
		options := c.PurchaseOptions()
		require.Len(t, options, 1)
		assert.Equal(t, PurchaseTypeIndividual, options[0].Type)
		assert.Equal(t, int64(299000), options[0].PriceVND)
		assert.Equal(t, "299.000₫", options[0].PriceLabel)
	})

	t.Run("individual and membership", func(t *testing.T) {
		c := &Course{
			RequiredTier:            TierVIP,
			PriceVND:                299000,
			VIPPriceVND:             &vipPrice,
			CanPurchaseIndividually: true,
		}
		options := c.PurchaseOptions()
		require.Len(t, options, 2)
		assert.Equal(t, PurchaseTypeIndividual, options[0].Type)
		assert.Equal(t, PurchaseTypeVIPMembership, options[1].Type)
		assert.Equal(t, vipPrice, options[1].PriceVND)
	})

	t.Run("zero price hides individual option", func(t *testing.T) {
		c := &Course{
			RequiredTier:            TierVIP,
			PriceVND:                0,
			CanPurchaseIndividually: true,
		}
		assert.Empty(t, c.PurchaseOptions())
	})

	t.Run("membership option needs vip tier", func(t *testing.T) {
		c := &Course{
			RequiredTier: TierFree,
			VIPPriceVND:  &vipPrice,
		}
		assert.Empty(t, c.PurchaseOptions())
	})

	t.Run("free course with no flags", func(t *testing.T) {
		c := &Course{RequiredTier: TierFree}
		assert.Empty(t, c.PurchaseOptions())
		assert.True(t, c.IsFreeTier())
	})
}
