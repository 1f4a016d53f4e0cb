package model

import (
	"encoding/json"
	"time"
)

const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusConverted = "converted"
	LeadStatusLost      = "lost"
	LeadStatusRejected  = "rejected"
)

type Lead struct {
	ID            int64                  `json:"-"`
	LeadID        string                 `json:"lead_id"`
	FirstName     string                 `json:"first_name"`
	LastName      string                 `json:"last_name"`
	Email         string                 `json:"email"`
	Phone         string                 `json:"phone"`
	Country       string                 `json:"country"`
	IPAddress     string                 `json:"ip_address,omitempty"`
	OfferID       string                 `json:"offer_id,omitempty"`
	AffiliateID   string                 `json:"affiliate_id"`
	Status        string                 `json:"status"`
	DistributedAt *time.Time             `json:"distributed_at,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	MetaData      map[string]interface{} `json:"meta_data,omitempty"`
}

func (lead *Lead) ToJSON() ([]byte, error) {
	return json.Marshal(lead)
}

// FullName joins the first and last name for adapters that post a single
// name field.
func (lead *Lead) FullName() string {
	if lead.FirstName == "" {
		return lead.LastName
	}
	if lead.LastName == "" {
		return lead.FirstName
	}
	return lead.FirstName + " " + lead.LastName
}
