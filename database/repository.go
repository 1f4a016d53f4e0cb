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

package database

import (
	"context"
	"time"

	"github.com/leadflowhq/leadflow/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	lead         // Interface for lead-related operations
	advertiser   // Interface for advertiser-related operations
	rule         // Interface for routing rule operations
	distribution // Interface for distribution audit operations
	queue        // Interface for the durable distribution queue
}

// lead defines methods for handling leads.
type lead interface {
	CreateLead(ctx context.Context, lead *model.Lead) (*model.Lead, error)     // Persists a new lead
	GetLead(ctx context.Context, id string) (*model.Lead, error)               // Retrieves a lead by ID
	GetAllLeads(ctx context.Context, limit, offset int) ([]model.Lead, error)  // Retrieves leads, newest first
	UpdateLeadStatus(ctx context.Context, id string, status string) error      // Updates a lead's lifecycle status
	LeadExistsByEmail(ctx context.Context, email string) (bool, error)         // Checks the system-wide email uniqueness
}

// advertiser defines methods for handling advertisers.
type advertiser interface {
	CreateAdvertiser(ctx context.Context, advertiser *model.Advertiser) (*model.Advertiser, error)
	GetAdvertiser(ctx context.Context, id string) (*model.Advertiser, error)
	GetAllAdvertisers(ctx context.Context, limit, offset int) ([]model.Advertiser, error)
	GetActiveAdvertisers(ctx context.Context) ([]model.Advertiser, error)
}

// rule defines methods for the two routing rule tiers.
type rule interface {
	CreateAffiliateRule(ctx context.Context, rule *model.AffiliateRule) (*model.AffiliateRule, error)
	GetActiveAffiliateRules(ctx context.Context, affiliateID, country string) ([]model.AffiliateRule, error) // Rules scoped to one (affiliate, country) pair
	GetAllAffiliateRules(ctx context.Context, limit, offset int) ([]model.AffiliateRule, error)
	CreateAdvertiserSetting(ctx context.Context, setting *model.AdvertiserSetting) (*model.AdvertiserSetting, error)
	GetActiveAdvertiserSettings(ctx context.Context) ([]model.AdvertiserSetting, error) // The global fallback tier
}

// distribution defines methods for the append-only delivery audit trail.
type distribution interface {
	RecordDistribution(ctx context.Context, dist *model.Distribution) (*model.Distribution, error)       // Records a delivery and stamps the lead as distributed in one transaction
	RecordRejection(ctx context.Context, rejection *model.Rejection) (*model.Rejection, error)           // Records one adapter-level refusal
	GetDistributions(ctx context.Context, leadID string, limit, offset int) ([]model.Distribution, error)
	GetRejections(ctx context.Context, leadID string, limit, offset int) ([]model.Rejection, error)
	CountSentToday(ctx context.Context) (map[string]int, error)    // Sent distributions per advertiser since UTC midnight
	CountSentLastHour(ctx context.Context) (map[string]int, error) // Sent distributions per advertiser in the rolling hour
}

// queue defines methods for the durable distribution queue.
type queue interface {
	EnqueueLead(ctx context.Context, leadID string, maxAttempts int) (*model.QueueItem, error) // Creates the single pending item for a lead
	ClaimPendingItems(ctx context.Context, n int) ([]model.QueueItem, error)                   // Atomically moves up to n oldest pending items to processing
	MarkItemCompleted(ctx context.Context, itemID string) error
	MarkItemFailed(ctx context.Context, itemID string, errorMessage string) error                      // Terminal failure, bypasses the retry budget
	RecordItemFailure(ctx context.Context, itemID string, errorMessage string) (*model.QueueItem, error) // Burns one attempt; parks the item or re-pends it
	ReclaimStaleItems(ctx context.Context, olderThan time.Duration) (int64, error)                     // Returns crashed processing items to pending
	GetQueueItem(ctx context.Context, itemID string) (*model.QueueItem, error)
}
