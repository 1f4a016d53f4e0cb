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
	"github.com/shopspring/decimal"

	"github.com/leadflowhq/leadflow/model"
)

type CreateAdvertiser struct {
	Name           string                 `json:"name"`
	AdvertiserType string                 `json:"advertiser_type"`
	IsActive       *bool                  `json:"is_active"`
	DailyCap       *int                   `json:"daily_cap"`
	HourlyCap      *int                   `json:"hourly_cap"`
	BaseWeight     int                    `json:"base_weight"`
	Payout         float64                `json:"payout"`
	URL            string                 `json:"url"`
	APIKey         string                 `json:"api_key"`
	Settings       map[string]interface{} `json:"settings"`
}

func (a *CreateAdvertiser) ToAdvertiser() *model.Advertiser {
	active := true
	if a.IsActive != nil {
		active = *a.IsActive
	}
	return &model.Advertiser{
		Name:           a.Name,
		AdvertiserType: a.AdvertiserType,
		IsActive:       active,
		DailyCap:       a.DailyCap,
		HourlyCap:      a.HourlyCap,
		BaseWeight:     a.BaseWeight,
		Payout:         decimal.NewFromFloat(a.Payout),
		URL:            a.URL,
		APIKey:         a.APIKey,
		Settings:       a.Settings,
	}
}
