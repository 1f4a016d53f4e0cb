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
)

// CapacityUsage is a batch-scoped snapshot of how many leads each advertiser
// has already received today and in the rolling hour. The processor mutates
// it in memory as deliveries succeed so later leads in the same batch see
// updated counts, and throws it away when the batch ends; the next batch
// recomputes from persisted truth.
//
// Capacity checks are advisory: two processors racing at an advertiser's cap
// boundary can each read a stale count and both deliver, overshooting by a
// small margin. Accepted trade-off for lead routing; the queue claim is the
// only strict concurrency boundary.
type CapacityUsage struct {
	Daily  map[string]int
	Hourly map[string]int
}

// SnapshotCapacity reads the current per-advertiser sent counts from the
// distribution history.
func (l *Leadflow) SnapshotCapacity(ctx context.Context) (*CapacityUsage, error) {
	ctx, span := tracer.Start(ctx, "Snapshotting Advertiser Capacity")
	defer span.End()

	daily, err := l.datasource.CountSentToday(ctx)
	if err != nil {
		return nil, err
	}
	hourly, err := l.datasource.CountSentLastHour(ctx)
	if err != nil {
		return nil, err
	}
	return &CapacityUsage{Daily: daily, Hourly: hourly}, nil
}

// DailyCount returns today's sent count for an advertiser.
func (u *CapacityUsage) DailyCount(advertiserID string) int {
	return u.Daily[advertiserID]
}

// HourlyCount returns the rolling-hour sent count for an advertiser.
func (u *CapacityUsage) HourlyCount(advertiserID string) int {
	return u.Hourly[advertiserID]
}

// RecordSend bumps both counters after a successful delivery.
func (u *CapacityUsage) RecordSend(advertiserID string) {
	u.Daily[advertiserID]++
	u.Hourly[advertiserID]++
}

// HasDailyRoom reports whether the advertiser is under the given daily cap.
func (u *CapacityUsage) HasDailyRoom(advertiserID string, cap int) bool {
	return u.DailyCount(advertiserID) < cap
}

// HasHourlyRoom reports whether the advertiser is under the given hourly
// cap. A nil cap means unlimited.
func (u *CapacityUsage) HasHourlyRoom(advertiserID string, cap *int) bool {
	if cap == nil {
		return true
	}
	return u.HourlyCount(advertiserID) < *cap
}
