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
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
)

var queueItemTestColumns = []string{"item_id", "lead_id", "status", "attempts", "max_attempts", "error_message", "claimed_at", "created_at", "updated_at"}

var leadTestColumns = []string{"lead_id", "first_name", "last_name", "email", "phone", "country", "ip_address", "offer_id", "affiliate_id", "status", "distributed_at", "created_at", "meta_data"}

func expectReclaim(mock sqlmock.Sqlmock, reclaimed int64) {
	mock.ExpectExec("UPDATE leadflow.distribution_queue").
		WithArgs("300 seconds").
		WillReturnResult(sqlmock.NewResult(0, reclaimed))
}

func expectClaim(mock sqlmock.Sqlmock, batchSize int, rows *sqlmock.Rows) {
	mock.ExpectQuery("UPDATE leadflow.distribution_queue").
		WithArgs(batchSize).
		WillReturnRows(rows)
}

func expectCapacitySnapshot(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT advertiser_id, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"advertiser_id", "count"}))
	mock.ExpectQuery("SELECT advertiser_id, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"advertiser_id", "count"}))
}

func claimedItemRow(itemID, leadID string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(queueItemTestColumns).
		AddRow(itemID, leadID, "processing", 0, 3, nil, now, now, now)
}

func expectGetLead(mock sqlmock.Sqlmock, leadID, affiliateID string) {
	rows := sqlmock.NewRows(leadTestColumns).
		AddRow(leadID, "Jane", "Doe", "jane.doe@example.com", "+15555550100", "US", "", "", affiliateID, "new", nil, time.Now(), nil)
	mock.ExpectQuery("SELECT lead_id, first_name, last_name").
		WithArgs(leadID).
		WillReturnRows(rows)
}

func TestProcessQueueEmptyBatch(t *testing.T) {
	l, mock := newTestLeadflow(t)

	expectReclaim(mock, 0)
	expectClaim(mock, 50, sqlmock.NewRows(queueItemTestColumns))

	result, err := l.ProcessQueue(context.Background(), 0)

	assert.NoError(t, err)
	assert.Equal(t, 0, result.Claimed)
	assert.Equal(t, 0, result.Reclaimed)

	// An empty batch must not snapshot capacity or touch any lead.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestProcessQueueClampsBatchSize(t *testing.T) {
	l, mock := newTestLeadflow(t)

	expectReclaim(mock, 0)
	expectClaim(mock, 100, sqlmock.NewRows(queueItemTestColumns))

	_, err := l.ProcessQueue(context.Background(), 1000)

	assert.NoError(t, err)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestProcessQueueCountsReclaimedItems(t *testing.T) {
	l, mock := newTestLeadflow(t)

	expectReclaim(mock, 2)
	expectClaim(mock, 50, sqlmock.NewRows(queueItemTestColumns))

	result, err := l.ProcessQueue(context.Background(), 0)

	assert.NoError(t, err)
	assert.Equal(t, 2, result.Reclaimed)
}

func TestProcessQueueDistributesClaimedLead(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	l, mock := newTestLeadflow(t)

	expectReclaim(mock, 0)
	expectClaim(mock, 50, claimedItemRow("qitem_1", "lead_1"))
	expectCapacitySnapshot(mock)
	expectGetLead(mock, "lead_1", "aff_1")

	ruleRows := sqlmock.NewRows(ruleColumns).
		AddRow("rule_1", "aff_1", "adv_1", "US", 40, nil, nil, nil, nil, nil, nil, true, time.Now())
	mock.ExpectQuery("SELECT rule_id, affiliate_id, advertiser_id").
		WithArgs("aff_1", "US").
		WillReturnRows(ruleRows)
	expectAdvertiserRow(mock, "adv_1", true, 100, nil)

	httpmock.RegisterResponder("POST", "https://api.acme.test/leads",
		httpmock.NewStringResponder(200, `{"lead_id":"ext-9"}`))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO leadflow.distributions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE leadflow.leads").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	mock.ExpectExec("UPDATE leadflow.distribution_queue").
		WithArgs("qitem_1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	result, err := l.ProcessQueue(context.Background(), 0)

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Claimed)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 0, result.Failed)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestProcessQueueCapExhaustedWithinBatch(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	l, mock := newTestLeadflow(t)

	expectReclaim(mock, 0)
	now := time.Now()
	claimed := sqlmock.NewRows(queueItemTestColumns).
		AddRow("qitem_1", "lead_1", "processing", 0, 3, nil, now, now, now).
		AddRow("qitem_2", "lead_2", "processing", 0, 3, nil, now, now, now)
	expectClaim(mock, 50, claimed)
	expectCapacitySnapshot(mock)

	// Both leads resolve through the same rule, whose daily cap is one.
	capRule := func() *sqlmock.Rows {
		return sqlmock.NewRows(ruleColumns).
			AddRow("rule_1", "aff_1", "adv_1", "US", 50, 1, nil, nil, nil, nil, nil, true, time.Now())
	}

	expectGetLead(mock, "lead_1", "aff_1")
	mock.ExpectQuery("SELECT rule_id, affiliate_id, advertiser_id").
		WithArgs("aff_1", "US").
		WillReturnRows(capRule())
	expectAdvertiserRow(mock, "adv_1", true, 100, nil)

	httpmock.RegisterResponder("POST", "https://api.acme.test/leads",
		httpmock.NewStringResponder(200, `{"lead_id":"ext-1"}`))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO leadflow.distributions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE leadflow.leads").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectExec("UPDATE leadflow.distribution_queue").
		WithArgs("qitem_1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	// The second lead sees the first send through the in-memory counters:
	// the advertiser is at cap, the pool is empty, and no delivery happens.
	expectGetLead(mock, "lead_2", "aff_1")
	mock.ExpectQuery("SELECT rule_id, affiliate_id, advertiser_id").
		WithArgs("aff_1", "US").
		WillReturnRows(capRule())
	expectAdvertiserRow(mock, "adv_1", true, 100, nil)
	mock.ExpectExec("UPDATE leadflow.leads").
		WithArgs("lead_2", "rejected").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE leadflow.distribution_queue").
		WithArgs("qitem_2", ErrNoEligibleAdvertisers.Error()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	result, err := l.ProcessQueue(context.Background(), 0)

	assert.NoError(t, err)
	assert.Equal(t, 2, result.Claimed)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, 1, httpmock.GetTotalCallCount(), "the capped advertiser gets exactly one delivery")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestProcessQueueMissingLeadFailsWithoutRetry(t *testing.T) {
	l, mock := newTestLeadflow(t)

	expectReclaim(mock, 0)
	expectClaim(mock, 50, claimedItemRow("qitem_1", "lead_gone"))
	expectCapacitySnapshot(mock)

	mock.ExpectQuery("SELECT lead_id, first_name, last_name").
		WithArgs("lead_gone").
		WillReturnError(sql.ErrNoRows)

	mock.ExpectExec("UPDATE leadflow.distribution_queue").
		WithArgs("qitem_1", "Lead not found").
		WillReturnResult(sqlmock.NewResult(1, 1))

	result, err := l.ProcessQueue(context.Background(), 0)

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 0, result.Retried)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestProcessQueueRejectedLeadIsTerminal(t *testing.T) {
	l, mock := newTestLeadflow(t)

	expectReclaim(mock, 0)
	expectClaim(mock, 50, claimedItemRow("qitem_1", "lead_1"))
	expectCapacitySnapshot(mock)
	expectGetLead(mock, "lead_1", "aff_1")

	// No affiliate rules and no global settings: the pool is empty.
	mock.ExpectQuery("SELECT rule_id, affiliate_id, advertiser_id").
		WithArgs("aff_1", "US").
		WillReturnRows(sqlmock.NewRows(ruleColumns))
	mock.ExpectQuery("SELECT setting_id, advertiser_id").
		WillReturnRows(sqlmock.NewRows(settingColumns))

	mock.ExpectExec("UPDATE leadflow.leads").
		WithArgs("lead_1", "rejected").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE leadflow.distribution_queue").
		WithArgs("qitem_1", ErrNoEligibleAdvertisers.Error()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	result, err := l.ProcessQueue(context.Background(), 0)

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, 0, result.Retried)
	assert.Equal(t, 0, result.Failed)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestProcessQueueTransientFailureBurnsOneAttempt(t *testing.T) {
	l, mock := newTestLeadflow(t)

	expectReclaim(mock, 0)
	expectClaim(mock, 50, claimedItemRow("qitem_1", "lead_1"))
	expectCapacitySnapshot(mock)
	expectGetLead(mock, "lead_1", "aff_1")

	mock.ExpectQuery("SELECT rule_id, affiliate_id, advertiser_id").
		WithArgs("aff_1", "US").
		WillReturnError(errors.New("connection reset by peer"))

	retriedRow := sqlmock.NewRows(queueItemTestColumns).
		AddRow("qitem_1", "lead_1", "pending", 1, 3, "connection reset by peer", nil, time.Now(), time.Now())
	mock.ExpectQuery("UPDATE leadflow.distribution_queue").
		WillReturnRows(retriedRow)

	result, err := l.ProcessQueue(context.Background(), 0)

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Retried)
	assert.Equal(t, 0, result.Failed)
}

func TestProcessQueueExhaustedAttemptsParkItemAsFailed(t *testing.T) {
	l, mock := newTestLeadflow(t)

	expectReclaim(mock, 0)
	expectClaim(mock, 50, claimedItemRow("qitem_1", "lead_1"))
	expectCapacitySnapshot(mock)
	expectGetLead(mock, "lead_1", "aff_1")

	mock.ExpectQuery("SELECT rule_id, affiliate_id, advertiser_id").
		WithArgs("aff_1", "US").
		WillReturnError(errors.New("connection reset by peer"))

	failedRow := sqlmock.NewRows(queueItemTestColumns).
		AddRow("qitem_1", "lead_1", "failed", 3, 3, "connection reset by peer", nil, time.Now(), time.Now())
	mock.ExpectQuery("UPDATE leadflow.distribution_queue").
		WillReturnRows(failedRow)

	result, err := l.ProcessQueue(context.Background(), 0)

	assert.NoError(t, err)
	assert.Equal(t, 0, result.Retried)
	assert.Equal(t, 1, result.Failed)
}
