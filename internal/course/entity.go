// MsHoa Learning | 2026
// entity.go

package course

import (
	"fmt"
	"strconv"
	"time"
)

const (
	TierFree = "free"
	TierVIP  = "vip"

	PurchaseTypeIndividual    = "individual"
	PurchaseTypeVIPMembership = "vip_membership"
)

type Course struct {
	ID                      string    `db:"id"`
	Title                   string    `db:"title"`
	Description             string    `db:"description"`
	ShortDescription        string    `db:"short_description"`
	Level                   string    `db:"level"`
	RequiredTier            string    `db:"required_tier"`
	PriceVND                int64     `db:"price_vnd"`
	VIPPriceVND             *int64    `db:"vip_price_vnd"`
	CanPurchaseIndividually bool      `db:"can_purchase_individually"`
	ThumbnailURL            *string   `db:"thumbnail_url"`
	IsFeatured              bool      `db:"is_featured"`
	IsActive                bool      `db:"is_active"`
	OrderIndex              int       `db:"order_index"`
	VideoCount              int       `db:"video_count"`
	CreatedAt               time.Time `db:"created_at"`
	UpdatedAt               time.Time `db:"updated_at"`
}

// PurchaseOption is one way to pay for access to a course.
type PurchaseOption struct {
	Type        string `json:"type"`
	PriceVND    int64  `json:"price_vnd"`
	PriceLabel  string `json:"price_label"`
	Description string `json:"description"`
}

// PurchaseOptions lists the ways this course can be bought. A course
// with no options is only reachable through gifts or trials.
func (c *Course) PurchaseOptions() []PurchaseOption {
	options := make([]PurchaseOption, 0, 2)

	if c.CanPurchaseIndividually && c.PriceVND > 0 {
		options = append(options, PurchaseOption{
			Type:        PurchaseTypeIndividual,
			PriceVND:    c.PriceVND,
			PriceLabel:  FormatVND(c.PriceVND),
			Description: "Lifetime access to this course",
		})
	}

	if c.VIPPriceVND != nil && c.RequiredTier == TierVIP {
		options = append(options, PurchaseOption{
			Type:        PurchaseTypeVIPMembership,
			PriceVND:    *c.VIPPriceVND,
			PriceLabel:  FormatVND(*c.VIPPriceVND),
			Description: "30-day VIP membership covering all VIP courses",
		})
	}

	return options
}

// IsFreeTier reports whether the course is readable without purchase.
func (c *Course) IsFreeTier() bool {
	return c.RequiredTier == TierFree
}

// FormatVND renders an amount with dot thousand separators, the usual
// Vietnamese convention (e.g. 1500000 -> "1.500.000₫").
func FormatVND(amount int64) string {
	s := strconv.FormatInt(amount, 10)

	negative := false
	if amount < 0 {
		negative = true
		s = s[1:]
	}

	var out []byte
	for i, digit := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, digit)
	}

	if negative {
		return fmt.Sprintf("-%s₫", out)
	}
	return fmt.Sprintf("%s₫", out)
}
