package model

import (
	"time"
)

// DaySchedule is a single weekday entry of a weekly schedule. Start and End
// are clock times in "15:04" form, local to the rule's timezone. A nil Start
// and End with IsActive set means the advertiser accepts all day.
type DaySchedule struct {
	IsActive  bool    `json:"is_active"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
}

// WeeklySchedule holds one entry per weekday, indexed by time.Weekday
// (Sunday = 0).
type WeeklySchedule [7]DaySchedule

// DayFor returns the schedule entry for the given weekday.
func (s *WeeklySchedule) DayFor(day time.Weekday) DaySchedule {
	return s[int(day)]
}

// AffiliateRule scopes an (affiliate, advertiser, country) triple. When any
// active rule exists for a lead's affiliate and country, the global setting
// tier is bypassed entirely for that lead.
type AffiliateRule struct {
	ID           int64           `json:"-"`
	RuleID       string          `json:"rule_id"`
	AffiliateID  string          `json:"affiliate_id"`
	AdvertiserID string          `json:"advertiser_id"`
	Country      string          `json:"country"`
	Weight       *int            `json:"weight,omitempty"`
	DailyCap     *int            `json:"daily_cap,omitempty"`
	HourlyCap    *int            `json:"hourly_cap,omitempty"`
	Timezone     string          `json:"timezone,omitempty"`
	StartTime    *string         `json:"start_time,omitempty"`
	EndTime      *string         `json:"end_time,omitempty"`
	Schedule     *WeeklySchedule `json:"schedule,omitempty"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
}

// AdvertiserSetting is the global routing tier for an advertiser, consulted
// only when no affiliate rule matched the lead.
type AdvertiserSetting struct {
	ID                int64     `json:"-"`
	SettingID         string    `json:"setting_id"`
	AdvertiserID      string    `json:"advertiser_id"`
	Weight            *int      `json:"weight,omitempty"`
	DailyCap          *int      `json:"daily_cap,omitempty"`
	HourlyCap         *int      `json:"hourly_cap,omitempty"`
	AllowedCountries  []string  `json:"allowed_countries,omitempty"`
	AllowedAffiliates []string  `json:"allowed_affiliates,omitempty"`
	Timezone          string    `json:"timezone,omitempty"`
	StartTime         *string   `json:"start_time,omitempty"`
	EndTime           *string   `json:"end_time,omitempty"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
}

// AllowsCountry reports whether the setting's country allow-list admits the
// given country. An empty list admits every country.
func (s *AdvertiserSetting) AllowsCountry(country string) bool {
	if len(s.AllowedCountries) == 0 {
		return true
	}
	for _, c := range s.AllowedCountries {
		if c == country {
			return true
		}
	}
	return false
}

// AllowsAffiliate reports whether the setting's affiliate allow-list admits
// the given affiliate. An empty list admits every affiliate.
func (s *AdvertiserSetting) AllowsAffiliate(affiliateID string) bool {
	if len(s.AllowedAffiliates) == 0 {
		return true
	}
	for _, a := range s.AllowedAffiliates {
		if a == affiliateID {
			return true
		}
	}
	return false
}
