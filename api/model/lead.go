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

type CreateLead struct {
	FirstName   string                 `json:"first_name"`
	LastName    string                 `json:"last_name"`
	Email       string                 `json:"email"`
	Phone       string                 `json:"phone"`
	Country     string                 `json:"country"`
	IPAddress   string                 `json:"ip_address"`
	OfferID     string                 `json:"offer_id"`
	AffiliateID string                 `json:"affiliate_id"`
	MetaData    map[string]interface{} `json:"meta_data"`
}

type UpdateLeadStatus struct {
	Status string `json:"status"`
}

func (l *CreateLead) ToLead() *model.Lead {
	return &model.Lead{
		FirstName:   l.FirstName,
		LastName:    l.LastName,
		Email:       l.Email,
		Phone:       l.Phone,
		Country:     l.Country,
		IPAddress:   l.IPAddress,
		OfferID:     l.OfferID,
		AffiliateID: l.AffiliateID,
		MetaData:    l.MetaData,
	}
}
