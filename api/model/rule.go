/*
Copyright 2024 Leadflow Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package model

import (
	"github.com/leadflowhq/leadflow/model"
)

type CreateAffiliateRule struct {
	AffiliateID  string                `json:"affiliate_id"`
	AdvertiserID string                `json:"advertiser_id"`
	Country      string                `json:"country"`
	Weight       *int                  `json:"weight"`
	DailyCap     *int                  `json:"daily_cap"`
	HourlyCap    *int                  `json:"hourly_cap"`
	Timezone     string                `json:"timezone"`
	StartTime    *string               `json:"start_time"`
	EndTime      *string               `json:"end_time"`
	Schedule     *model.WeeklySchedule `json:"schedule"`
	IsActive     *bool                 `json:"is_active"`
}

type CreateAdvertiserSetting struct {
	AdvertiserID      string   `json:"advertiser_id"`
	Weight            *int     `json:"weight"`
	DailyCap          *int     `json:"daily_cap"`
	HourlyCap         *int     `json:"hourly_cap"`
	AllowedCountries  []string `json:"allowed_countries"`
	AllowedAffiliates []string `json:"allowed_affiliates"`
	Timezone          string   `json:"timezone"`
	StartTime         *string  `json:"start_time"`
	EndTime           *string  `json:"end_time"`
	IsActive          *bool    `json:"is_active"`
}

func (r *CreateAffiliateRule) ToAffiliateRule() *model.AffiliateRule {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return &model.AffiliateRule{
		AffiliateID:  r.AffiliateID,
		AdvertiserID: r.AdvertiserID,
		Country:      r.Country,
		Weight:       r.Weight,
		DailyCap:     r.DailyCap,
		HourlyCap:    r.HourlyCap,
		Timezone:     r.Timezone,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		Schedule:     r.Schedule,
		IsActive:     active,
	}
}

func (s *CreateAdvertiserSetting) ToAdvertiserSetting() *model.AdvertiserSetting {
	active := true
	if s.IsActive != nil {
		active = *s.IsActive
	}
	return &model.AdvertiserSetting{
		AdvertiserID:      s.AdvertiserID,
		Weight:            s.Weight,
		DailyCap:          s.DailyCap,
		HourlyCap:         s.HourlyCap,
		AllowedCountries:  s.AllowedCountries,
		AllowedAffiliates: s.AllowedAffiliates,
		Timezone:          s.Timezone,
		StartTime:         s.StartTime,
		EndTime:           s.EndTime,
		IsActive:          active,
	}
}
