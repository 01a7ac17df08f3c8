package ledger

import (
	"yoforex/pkg/config"
	"yoforex/pkg/models"
)

// CommissionResolver selects the platform commission rate per content type.
// Rates are configuration, expressed in basis points (2000 = 20%).
type CommissionResolver struct {
	defaultBps int
	fileBps    int
}

func NewCommissionResolver(cfg *config.Config) *CommissionResolver {
	return &CommissionResolver{
		defaultBps: cfg.DefaultCommissionBps,
		fileBps:    cfg.FileAssetCommissionBps,
	}
}

func (r *CommissionResolver) RateBps(contentType models.ContentType) int {
	if contentType == models.ContentTypeFile {
		return r.fileBps
	}
	return r.defaultBps
}

// SplitPrice divides a purchase price between seller payout and platform fee.
// The seller share is floored to whole coins and the fee takes the remainder,
// so the three purchase entries always net to zero.
func SplitPrice(price int64, rateBps int) (sellerCredit, platformFee int64) {
	sellerCredit = price * int64(10000-rateBps) / 10000
	platformFee = price - sellerCredit
	return sellerCredit, platformFee
}
