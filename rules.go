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
	"time"

	"github.com/sirupsen/logrus"

	"github.com/leadflowhq/leadflow/internal/apierror"
	"github.com/leadflowhq/leadflow/model"
)

// ruleClock is swapped out by tests to pin the evaluation time.
var ruleClock = time.Now

// ResolveEligibleAdvertisers computes the set of advertisers a lead may be
// routed to, with resolved weights. Affiliate-tier rules for the lead's
// (affiliate, country) pair take the whole decision when any exist; the
// global setting tier is only consulted otherwise — the tiers never merge.
// An empty result is a normal outcome, not an error.
func (l *Leadflow) ResolveEligibleAdvertisers(ctx context.Context, lead *model.Lead, usage *CapacityUsage) ([]model.Candidate, error) {
	ctx, span := tracer.Start(ctx, "Resolving Eligible Advertisers")
	defer span.End()

	if lead.AffiliateID != "" {
		rules, err := l.datasource.GetActiveAffiliateRules(ctx, lead.AffiliateID, lead.Country)
		if err != nil {
			return nil, err
		}
		if len(rules) > 0 {
			return l.resolveAffiliateTier(ctx, rules, usage)
		}
	}

	return l.resolveGlobalTier(ctx, lead, usage)
}

func (l *Leadflow) resolveAffiliateTier(ctx context.Context, rules []model.AffiliateRule, usage *CapacityUsage) ([]model.Candidate, error) {
	var candidates []model.Candidate
	for _, rule := range rules {
		advertiser, err := l.datasource.GetAdvertiser(ctx, rule.AdvertiserID)
		if err != nil {
			if apiErr, ok := err.(apierror.APIError); ok && apiErr.Code == apierror.ErrNotFound {
				logrus.Warnf("affiliate rule %s references missing advertiser %s", rule.RuleID, rule.AdvertiserID)
				continue
			}
			return nil, err
		}
		if !advertiser.IsActive {
			continue
		}

		now := ruleClock().In(locationOrUTC(rule.Timezone))
		if rule.Schedule != nil {
			if !scheduleOpen(rule.Schedule, now) {
				continue
			}
		} else if !windowOpen(now, rule.StartTime, rule.EndTime) {
			continue
		}

		dailyCap := effectiveDailyCap(rule.DailyCap, advertiser.DailyCap)
		hourlyCap := firstCap(rule.HourlyCap, advertiser.HourlyCap)
		if !usage.HasDailyRoom(advertiser.AdvertiserID, dailyCap) {
			continue
		}
		if !usage.HasHourlyRoom(advertiser.AdvertiserID, hourlyCap) {
			continue
		}

		weight := model.DefaultWeight
		if rule.Weight != nil {
			weight = *rule.Weight
		}
		candidates = append(candidates, model.Candidate{Advertiser: *advertiser, Weight: weight})
	}
	return candidates, nil
}

func (l *Leadflow) resolveGlobalTier(ctx context.Context, lead *model.Lead, usage *CapacityUsage) ([]model.Candidate, error) {
	settings, err := l.datasource.GetActiveAdvertiserSettings(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []model.Candidate
	for _, setting := range settings {
		if !setting.AllowsCountry(lead.Country) {
			continue
		}
		if !setting.AllowsAffiliate(lead.AffiliateID) {
			continue
		}

		advertiser, err := l.datasource.GetAdvertiser(ctx, setting.AdvertiserID)
		if err != nil {
			if apiErr, ok := err.(apierror.APIError); ok && apiErr.Code == apierror.ErrNotFound {
				logrus.Warnf("advertiser setting %s references missing advertiser %s", setting.SettingID, setting.AdvertiserID)
				continue
			}
			return nil, err
		}
		if !advertiser.IsActive {
			continue
		}

		now := ruleClock().In(locationOrUTC(setting.Timezone))
		if !windowOpen(now, setting.StartTime, setting.EndTime) {
			continue
		}

		dailyCap := effectiveDailyCap(setting.DailyCap, advertiser.DailyCap)
		hourlyCap := firstCap(setting.HourlyCap, advertiser.HourlyCap)
		if !usage.HasDailyRoom(advertiser.AdvertiserID, dailyCap) {
			continue
		}
		if !usage.HasHourlyRoom(advertiser.AdvertiserID, hourlyCap) {
			continue
		}

		weight := advertiser.BaseWeight
		if setting.Weight != nil {
			weight = *setting.Weight
		}
		candidates = append(candidates, model.Candidate{Advertiser: *advertiser, Weight: weight})
	}
	return candidates, nil
}

// effectiveDailyCap resolves the daily cap cascade: rule override, then the
// advertiser default, then the hard fallback.
func effectiveDailyCap(override, advertiserCap *int) int {
	if override != nil {
		return *override
	}
	if advertiserCap != nil {
		return *advertiserCap
	}
	return model.DefaultDailyCap
}

// firstCap returns the first non-nil cap. Both nil means unlimited.
func firstCap(override, advertiserCap *int) *int {
	if override != nil {
		return override
	}
	return advertiserCap
}

// locationOrUTC loads a timezone by name, falling back to UTC when the name
// is empty or unknown.
func locationOrUTC(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logrus.Warnf("unknown timezone %q, falling back to UTC", name)
		return time.UTC
	}
	return loc
}

// scheduleOpen checks the weekly schedule entry for now's weekday.
func scheduleOpen(schedule *model.WeeklySchedule, now time.Time) bool {
	day := schedule.DayFor(now.Weekday())
	if !day.IsActive {
		return false
	}
	return windowOpen(now, day.StartTime, day.EndTime)
}

// windowOpen checks a flat HH:MM window against now's clock time. A window
// whose start is after its end spans midnight: the clock passes when it is
// at or after the start or at or before the end.
func windowOpen(now time.Time, start, end *string) bool {
	if !validClock(start) || !validClock(end) {
		return true
	}
	clock := now.Format("15:04")
	if *start > *end {
		return clock >= *start || clock <= *end
	}
	return clock >= *start && clock <= *end
}

// validClock accepts fixed-width 24h HH:MM strings, which compare correctly
// as plain strings.
func validClock(s *string) bool {
	if s == nil || *s == "" {
		return false
	}
	_, err := time.Parse("15:04", *s)
	return err == nil
}
