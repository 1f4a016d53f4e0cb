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

package leadflow

import (
	"context"
	"fmt"

	"github.com/leadflowhq/leadflow/internal/apierror"
	"github.com/leadflowhq/leadflow/model"
)

// CreateAdvertiser registers a new delivery target. The advertiser type must
// have an adapter installed, otherwise every delivery to it would be skipped
// as a configuration gap.
func (l *Leadflow) CreateAdvertiser(ctx context.Context, advertiser *model.Advertiser) (*model.Advertiser, error) {
	if _, ok := l.adapters.Get(advertiser.AdvertiserType); !ok {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput,
			fmt.Sprintf("No delivery adapter registered for type '%s' (available: %v)", advertiser.AdvertiserType, l.adapters.Types()), nil)
	}
	return l.datasource.CreateAdvertiser(ctx, advertiser)
}

// GetAdvertiser retrieves an advertiser by its ID.
func (l *Leadflow) GetAdvertiser(ctx context.Context, id string) (*model.Advertiser, error) {
	return l.datasource.GetAdvertiser(ctx, id)
}

// GetAllAdvertisers retrieves advertisers newest first.
func (l *Leadflow) GetAllAdvertisers(ctx context.Context, limit, offset int) ([]model.Advertiser, error) {
	return l.datasource.GetAllAdvertisers(ctx, limit, offset)
}

// CreateAffiliateRule adds an affiliate-tier routing rule.
func (l *Leadflow) CreateAffiliateRule(ctx context.Context, rule *model.AffiliateRule) (*model.AffiliateRule, error) {
	if _, err := l.datasource.GetAdvertiser(ctx, rule.AdvertiserID); err != nil {
		return nil, err
	}
	return l.datasource.CreateAffiliateRule(ctx, rule)
}

// GetAllAffiliateRules retrieves affiliate rules newest first.
func (l *Leadflow) GetAllAffiliateRules(ctx context.Context, limit, offset int) ([]model.AffiliateRule, error) {
	return l.datasource.GetAllAffiliateRules(ctx, limit, offset)
}

// CreateAdvertiserSetting adds a global-tier routing entry for an advertiser.
func (l *Leadflow) CreateAdvertiserSetting(ctx context.Context, setting *model.AdvertiserSetting) (*model.AdvertiserSetting, error) {
	if _, err := l.datasource.GetAdvertiser(ctx, setting.AdvertiserID); err != nil {
		return nil, err
	}
	return l.datasource.CreateAdvertiserSetting(ctx, setting)
}

// GetDistributions lists the append-only delivery audit trail, optionally
// filtered to one lead.
func (l *Leadflow) GetDistributions(ctx context.Context, leadID string, limit, offset int) ([]model.Distribution, error) {
	return l.datasource.GetDistributions(ctx, leadID, limit, offset)
}

// GetRejections lists recorded adapter refusals, optionally filtered to one
// lead.
func (l *Leadflow) GetRejections(ctx context.Context, leadID string, limit, offset int) ([]model.Rejection, error) {
	return l.datasource.GetRejections(ctx, leadID, limit, offset)
}
