package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DistributionStatusSent   = "sent"
	DistributionStatusFailed = "failed"
)

// Distribution is one delivery attempt that reached an adapter. Rows are
// append-only; downstream reporting reads them but never this engine.
type Distribution struct {
	ID             int64           `json:"-"`
	DistributionID string          `json:"distribution_id"`
	LeadID         string          `json:"lead_id"`
	AdvertiserID   string          `json:"advertiser_id"`
	AffiliateID    string          `json:"affiliate_id"`
	Status         string          `json:"status"`
	Response       string          `json:"response,omitempty"`
	ExternalLeadID string          `json:"external_lead_id,omitempty"`
	Payout         decimal.Decimal `json:"payout"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Rejection records one adapter-level refusal during failover.
type Rejection struct {
	ID           int64     `json:"-"`
	RejectionID  string    `json:"rejection_id"`
	LeadID       string    `json:"lead_id"`
	AdvertiserID string    `json:"advertiser_id"`
	Reason       string    `json:"reason"`
	CreatedAt    time.Time `json:"created_at"`
}
