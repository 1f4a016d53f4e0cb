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
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/leadflowhq/leadflow/adapters"
	"github.com/leadflowhq/leadflow/model"
)

var tracer = otel.Tracer("leadflow.distribution")

// ErrNoEligibleAdvertisers means rules, windows, and caps excluded every
// advertiser for a lead. A normal terminal outcome: the lead is rejected and
// retrying within the same minute would not change eligibility.
var ErrNoEligibleAdvertisers = errors.New("no eligible advertisers for lead")

// ErrAllAdvertisersRejected means every eligible advertiser refused the lead
// during failover. Also terminal.
var ErrAllAdvertisersRejected = errors.New("all eligible advertisers rejected lead")

// DistributeLead runs failover over the eligible pool: pick by weight,
// deliver, and on refusal drop the advertiser and re-pick from the rest.
// Side effects are persisted before moving to the next candidate — there is
// never a speculative parallel attempt that could charge one lead to two
// advertisers. On success the usage counters are bumped so later leads in
// the same batch see the updated capacity.
func (l *Leadflow) DistributeLead(ctx context.Context, lead *model.Lead, pool []model.Candidate, usage *CapacityUsage) error {
	ctx, span := tracer.Start(ctx, "Distributing Lead")
	defer span.End()

	if len(pool) == 0 {
		if err := l.datasource.UpdateLeadStatus(ctx, lead.LeadID, model.LeadStatusRejected); err != nil {
			return err
		}
		if err := SendWebhook(NewWebhook{Event: "lead.rejected", Payload: lead}); err != nil {
			logrus.Error(err)
		}
		return ErrNoEligibleAdvertisers
	}

	remaining := make([]model.Candidate, len(pool))
	copy(remaining, pool)

	for len(remaining) > 0 {
		candidate := SelectWeighted(remaining)
		advertiser := candidate.Advertiser

		adapter, ok := l.adapters.Get(advertiser.AdvertiserType)
		if !ok {
			// A configuration gap, not a lead failure: drop the advertiser
			// from this pass and keep going.
			logrus.Warnf("no adapter registered for advertiser %s (type %s), skipping", advertiser.AdvertiserID, advertiser.AdvertiserType)
			remaining = removeCandidate(remaining, advertiser.AdvertiserID)
			continue
		}

		result, err := adapter.Deliver(ctx, lead, &advertiser)
		if err == nil && result.Success {
			dist := &model.Distribution{
				LeadID:         lead.LeadID,
				AdvertiserID:   advertiser.AdvertiserID,
				AffiliateID:    lead.AffiliateID,
				Status:         model.DistributionStatusSent,
				Response:       result.Body,
				ExternalLeadID: result.ExternalLeadID,
				Payout:         advertiser.Payout,
			}
			if _, err := l.datasource.RecordDistribution(ctx, dist); err != nil {
				return err
			}
			usage.RecordSend(advertiser.AdvertiserID)

			if err := SendWebhook(NewWebhook{Event: "lead.distributed", Payload: dist}); err != nil {
				logrus.Error(err)
			}
			logrus.Infof("lead %s distributed to advertiser %s", lead.LeadID, advertiser.AdvertiserID)
			return nil
		}

		reason := rejectionReason(result, err)
		rejection := &model.Rejection{
			LeadID:       lead.LeadID,
			AdvertiserID: advertiser.AdvertiserID,
			Reason:       reason,
		}
		if _, err := l.datasource.RecordRejection(ctx, rejection); err != nil {
			return err
		}
		logrus.Infof("advertiser %s rejected lead %s: %s", advertiser.AdvertiserID, lead.LeadID, reason)

		remaining = removeCandidate(remaining, advertiser.AdvertiserID)
	}

	if err := l.datasource.UpdateLeadStatus(ctx, lead.LeadID, model.LeadStatusRejected); err != nil {
		return err
	}
	if err := SendWebhook(NewWebhook{Event: "lead.rejected", Payload: lead}); err != nil {
		logrus.Error(err)
	}
	return ErrAllAdvertisersRejected
}

func rejectionReason(result *adapters.Result, err error) string {
	if err != nil {
		return err.Error()
	}
	if result.Body != "" {
		return fmt.Sprintf("HTTP %d: %s", result.StatusCode, result.Body)
	}
	return fmt.Sprintf("HTTP %d", result.StatusCode)
}

func removeCandidate(pool []model.Candidate, advertiserID string) []model.Candidate {
	out := pool[:0]
	for _, c := range pool {
		if c.Advertiser.AdvertiserID != advertiserID {
			out = append(out, c)
		}
	}
	return out
}
