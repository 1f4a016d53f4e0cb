package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDailyCap is the hard fallback applied when neither a rule nor the
// advertiser itself carries a daily cap.
const DefaultDailyCap = 100

// DefaultWeight is the weight assumed when a rule or setting leaves it unset.
const DefaultWeight = 100

type Advertiser struct {
	ID             int64                  `json:"-"`
	AdvertiserID   string                 `json:"advertiser_id"`
	Name           string                 `json:"name"`
	AdvertiserType string                 `json:"advertiser_type"`
	IsActive       bool                   `json:"is_active"`
	DailyCap       *int                   `json:"daily_cap,omitempty"`
	HourlyCap      *int                   `json:"hourly_cap,omitempty"`
	BaseWeight     int                    `json:"base_weight"`
	Payout         decimal.Decimal        `json:"payout"`
	URL            string                 `json:"url"`
	APIKey         string                 `json:"api_key,omitempty"`
	Settings       map[string]interface{} `json:"settings,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// Candidate is an advertiser that survived eligibility filtering, carrying
// the weight resolved from whichever rule tier produced it.
type Candidate struct {
	Advertiser Advertiser `json:"advertiser"`
	Weight     int        `json:"weight"`
}
