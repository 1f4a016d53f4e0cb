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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wacul/ptr"
)

func validCreateLead() CreateLead {
	return CreateLead{
		FirstName:   "Jane",
		LastName:    "Doe",
		Email:       "jane.doe@example.com",
		Phone:       "+15555550100",
		Country:     "US",
		AffiliateID: "aff_1",
	}
}

func TestValidateCreateLead(t *testing.T) {
	lead := validCreateLead()
	assert.NoError(t, lead.ValidateCreateLead())

	missingEmail := validCreateLead()
	missingEmail.Email = ""
	assert.Error(t, missingEmail.ValidateCreateLead())

	badEmail := validCreateLead()
	badEmail.Email = "not-an-email"
	assert.Error(t, badEmail.ValidateCreateLead())

	badCountry := validCreateLead()
	badCountry.Country = "USA"
	assert.Error(t, badCountry.ValidateCreateLead(), "country must be a two-letter code")

	noAffiliate := validCreateLead()
	noAffiliate.AffiliateID = ""
	assert.Error(t, noAffiliate.ValidateCreateLead())
}

func TestValidateUpdateLeadStatus(t *testing.T) {
	valid := UpdateLeadStatus{Status: "qualified"}
	assert.NoError(t, valid.ValidateUpdateLeadStatus())

	unknown := UpdateLeadStatus{Status: "archived"}
	assert.Error(t, unknown.ValidateUpdateLeadStatus())

	empty := UpdateLeadStatus{}
	assert.Error(t, empty.ValidateUpdateLeadStatus())
}

func TestValidateCreateAdvertiser(t *testing.T) {
	valid := CreateAdvertiser{
		Name:           "Acme Leads",
		AdvertiserType: "jsonpost",
		URL:            "https://api.acme.test/leads",
	}
	assert.NoError(t, valid.ValidateCreateAdvertiser())

	badURL := valid
	badURL.URL = "not a url"
	assert.Error(t, badURL.ValidateCreateAdvertiser())

	negativeWeight := valid
	negativeWeight.BaseWeight = -1
	assert.Error(t, negativeWeight.ValidateCreateAdvertiser())
}

func TestValidateCreateAffiliateRule(t *testing.T) {
	valid := CreateAffiliateRule{
		AffiliateID:  "aff_1",
		AdvertiserID: "adv_1",
		Country:      "US",
		Timezone:     "America/New_York",
		StartTime:    ptr.String("09:00"),
		EndTime:      ptr.String("17:00"),
	}
	assert.NoError(t, valid.ValidateCreateAffiliateRule())

	badClock := valid
	badClock.StartTime = ptr.String("9am")
	assert.Error(t, badClock.ValidateCreateAffiliateRule())

	badTimezone := valid
	badTimezone.Timezone = "Mars/Olympus"
	assert.Error(t, badTimezone.ValidateCreateAffiliateRule())

	noAdvertiser := valid
	noAdvertiser.AdvertiserID = ""
	assert.Error(t, noAdvertiser.ValidateCreateAffiliateRule())
}

func TestValidateCreateAdvertiserSetting(t *testing.T) {
	valid := CreateAdvertiserSetting{
		AdvertiserID: "adv_1",
	}
	assert.NoError(t, valid.ValidateCreateAdvertiserSetting())

	badClock := valid
	badClock.EndTime = ptr.String("25:00")
	assert.Error(t, badClock.ValidateCreateAdvertiserSetting())

	missingAdvertiser := CreateAdvertiserSetting{}
	assert.Error(t, missingAdvertiser.ValidateCreateAdvertiserSetting())
}

func TestCreateLeadToLead(t *testing.T) {
	create := validCreateLead()
	create.MetaData = map[string]interface{}{"utm_source": "newsletter"}

	lead := create.ToLead()

	assert.Equal(t, create.Email, lead.Email)
	assert.Equal(t, create.AffiliateID, lead.AffiliateID)
	assert.Equal(t, "newsletter", lead.MetaData["utm_source"])
}

func TestCreateAffiliateRuleDefaultsToActive(t *testing.T) {
	create := CreateAffiliateRule{AffiliateID: "aff_1", AdvertiserID: "adv_1", Country: "US"}
	rule := create.ToAffiliateRule()
	assert.True(t, rule.IsActive)

	create.IsActive = ptr.Bool(false)
	assert.False(t, create.ToAffiliateRule().IsActive)
}
