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
	"time"

	"github.com/sirupsen/logrus"

	"github.com/leadflowhq/leadflow/config"
	"github.com/leadflowhq/leadflow/internal/apierror"
	"github.com/leadflowhq/leadflow/model"
)

// ProcessResult summarizes one processing pass over the queue.
type ProcessResult struct {
	Claimed   int `json:"claimed"`
	Succeeded int `json:"succeeded"`
	Rejected  int `json:"rejected"`
	Retried   int `json:"retried"`
	Failed    int `json:"failed"`
	Reclaimed int `json:"reclaimed"`
}

// ProcessQueue claims one batch of pending queue items and distributes their
// leads sequentially. The batch is sequential on purpose: capacity counters
// mutate as each lead lands and the next lead must read those writes for
// caps to hold within the batch. Concurrency across batches is safe because
// the claim transition is atomic.
func (l *Leadflow) ProcessQueue(ctx context.Context, batchSize int) (*ProcessResult, error) {
	ctx, span := tracer.Start(ctx, "Processing Distribution Queue")
	defer span.End()

	cnf, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	if batchSize <= 0 {
		batchSize = cnf.Queue.BatchSize
	}
	if batchSize > config.MaxBatchSize {
		batchSize = config.MaxBatchSize
	}

	result := &ProcessResult{}

	// Sweep items orphaned in processing by a crashed run before claiming.
	reclaimed, err := l.datasource.ReclaimStaleItems(ctx, time.Duration(cnf.Queue.StaleClaimTimeoutSec)*time.Second)
	if err != nil {
		return nil, err
	}
	result.Reclaimed = int(reclaimed)
	if reclaimed > 0 {
		logrus.Warnf("reclaimed %d stale queue items", reclaimed)
	}

	items, err := l.datasource.ClaimPendingItems(ctx, batchSize)
	if err != nil {
		return nil, err
	}
	result.Claimed = len(items)
	if len(items) == 0 {
		return result, nil
	}

	usage, err := l.SnapshotCapacity(ctx)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		l.processItem(ctx, item, usage, result)
	}

	logrus.Infof("queue pass done: claimed=%d succeeded=%d rejected=%d retried=%d failed=%d",
		result.Claimed, result.Succeeded, result.Rejected, result.Retried, result.Failed)
	return result, nil
}

func (l *Leadflow) processItem(ctx context.Context, item model.QueueItem, usage *CapacityUsage, result *ProcessResult) {
	lead, err := l.datasource.GetLead(ctx, item.LeadID)
	if err != nil {
		if apiErr, ok := err.(apierror.APIError); ok && apiErr.Code == apierror.ErrNotFound {
			// A missing lead is not transient; no retry budget spent.
			if err := l.datasource.MarkItemFailed(ctx, item.ItemID, "Lead not found"); err != nil {
				logrus.Error(err)
			}
			result.Failed++
			return
		}
		l.recordTransientFailure(ctx, item, err, result)
		return
	}

	pool, err := l.ResolveEligibleAdvertisers(ctx, lead, usage)
	if err != nil {
		l.recordTransientFailure(ctx, item, err, result)
		return
	}

	err = l.DistributeLead(ctx, lead, pool, usage)
	switch {
	case err == nil:
		if err := l.datasource.MarkItemCompleted(ctx, item.ItemID); err != nil {
			logrus.Error(err)
		}
		result.Succeeded++
	case errors.Is(err, ErrNoEligibleAdvertisers), errors.Is(err, ErrAllAdvertisersRejected):
		// Terminal: eligibility will not change by retrying, and failover
		// already exhausted every advertiser that would take the lead.
		if err := l.datasource.MarkItemFailed(ctx, item.ItemID, err.Error()); err != nil {
			logrus.Error(err)
		}
		result.Rejected++
	default:
		l.recordTransientFailure(ctx, item, err, result)
	}
}

func (l *Leadflow) recordTransientFailure(ctx context.Context, item model.QueueItem, cause error, result *ProcessResult) {
	updated, err := l.datasource.RecordItemFailure(ctx, item.ItemID, cause.Error())
	if err != nil {
		logrus.Error(err)
		result.Failed++
		return
	}
	if updated.Status == model.QueueStatusFailed {
		logrus.Warnf("queue item %s exhausted its %d attempts: %v", item.ItemID, updated.MaxAttempts, cause)
		result.Failed++
		return
	}
	result.Retried++
}
