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
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/leadflowhq/leadflow/model"
)

func clockFormatValidation(value interface{}) error {
	clock, ok := value.(*string)
	if !ok {
		return errors.New("invalid type for clock time")
	}
	if clock == nil {
		return nil
	}
	if _, err := time.Parse("15:04", *clock); err != nil {
		return errors.New("please format clock times as 'HH:MM' (e.g., 09:30)")
	}
	return nil
}

func timezoneValidation(value interface{}) error {
	tz, ok := value.(string)
	if !ok {
		return errors.New("invalid type for timezone")
	}
	if tz == "" {
		return nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return errors.New("unknown timezone; use IANA names (e.g., America/New_York)")
	}
	return nil
}

func (l *CreateLead) ValidateCreateLead() error {
	return validation.ValidateStruct(l,
		validation.Field(&l.FirstName, validation.Required),
		validation.Field(&l.LastName, validation.Required),
		validation.Field(&l.Email, validation.Required, is.Email),
		validation.Field(&l.Country, validation.Required, validation.Length(2, 2)),
		validation.Field(&l.AffiliateID, validation.Required),
	)
}

func (u *UpdateLeadStatus) ValidateUpdateLeadStatus() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.Status, validation.Required, validation.In(
			model.LeadStatusNew,
			model.LeadStatusContacted,
			model.LeadStatusQualified,
			model.LeadStatusConverted,
			model.LeadStatusLost,
			model.LeadStatusRejected,
		)),
	)
}

func (a *CreateAdvertiser) ValidateCreateAdvertiser() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.Name, validation.Required),
		validation.Field(&a.AdvertiserType, validation.Required),
		validation.Field(&a.URL, validation.Required, is.URL),
		validation.Field(&a.BaseWeight, validation.Min(0)),
		validation.Field(&a.Payout, validation.Min(0.0)),
	)
}

func (r *CreateAffiliateRule) ValidateCreateAffiliateRule() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.AffiliateID, validation.Required),
		validation.Field(&r.AdvertiserID, validation.Required),
		validation.Field(&r.Country, validation.Required, validation.Length(2, 2)),
		validation.Field(&r.Timezone, validation.By(timezoneValidation)),
		validation.Field(&r.StartTime, validation.By(clockFormatValidation)),
		validation.Field(&r.EndTime, validation.By(clockFormatValidation)),
	)
}

func (s *CreateAdvertiserSetting) ValidateCreateAdvertiserSetting() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.AdvertiserID, validation.Required),
		validation.Field(&s.Timezone, validation.By(timezoneValidation)),
		validation.Field(&s.StartTime, validation.By(clockFormatValidation)),
		validation.Field(&s.EndTime, validation.By(clockFormatValidation)),
	)
}
