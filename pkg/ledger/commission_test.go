package ledger

import (
	"testing"

	"yoforex/pkg/config"
	"yoforex/pkg/models"

	"github.com/stretchr/testify/assert"
)

func TestSplitPrice(t *testing.T) {
	tests := []struct {
		name         string
		price        int64
		rateBps      int
		sellerCredit int64
		platformFee  int64
	}{
		{"20 percent marketplace rate", 200, 2000, 160, 40},
		{"8.5 percent file asset rate", 200, 850, 183, 17},
		{"round price", 1000, 2000, 800, 200},
		{"seller share floors to whole coins", 99, 2000, 79, 20},
		{"single coin goes entirely to fee", 1, 2000, 0, 1},
		{"zero commission", 500, 0, 500, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sellerCredit, platformFee := SplitPrice(tt.price, tt.rateBps)
			assert.Equal(t, tt.sellerCredit, sellerCredit)
			assert.Equal(t, tt.platformFee, platformFee)
			// The split must always reassemble the full price.
			assert.Equal(t, tt.price, sellerCredit+platformFee)
		})
	}
}

func TestCommissionResolver_RatePerContentType(t *testing.T) {
	cfg := &config.Config{DefaultCommissionBps: 2000, FileAssetCommissionBps: 850}
	resolver := NewCommissionResolver(cfg)

	assert.Equal(t, 2000, resolver.RateBps(models.ContentTypeEA))
	assert.Equal(t, 850, resolver.RateBps(models.ContentTypeFile))
}
