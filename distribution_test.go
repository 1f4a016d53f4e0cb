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
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/leadflowhq/leadflow/model"
)

func TestDistributeLeadDeliversAndRecordsDistribution(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	l, mock := newTestLeadflow(t)
	lead := getLeadMock()
	advertiser := getAdvertiserMock("jsonpost", "https://api.acme.test/leads")
	pool := []model.Candidate{{Advertiser: advertiser, Weight: 50}}

	httpmock.RegisterResponder("POST", advertiser.URL,
		httpmock.NewStringResponder(200, `{"lead_id":"ext-1"}`))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO leadflow.distributions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE leadflow.leads").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	usage := emptyUsage()
	err := l.DistributeLead(context.Background(), lead, pool, usage)

	assert.NoError(t, err)
	assert.Equal(t, 1, usage.DailyCount(advertiser.AdvertiserID))
	assert.Equal(t, 1, usage.HourlyCount(advertiser.AdvertiserID))

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestDistributeLeadFailsOverToNextCandidate(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	l, mock := newTestLeadflow(t)
	lead := getLeadMock()
	primary := getAdvertiserMock("jsonpost", "https://api.primary.test/leads")
	fallback := getAdvertiserMock("jsonpost", "https://api.fallback.test/leads")

	// The zero-weight fallback can never win a draw against the primary, so
	// the attempt order is fixed: primary refuses, fallback accepts.
	pool := []model.Candidate{
		{Advertiser: primary, Weight: 100},
		{Advertiser: fallback, Weight: 0},
	}

	httpmock.RegisterResponder("POST", primary.URL,
		httpmock.NewStringResponder(500, `{"error":"duplicate lead"}`))
	httpmock.RegisterResponder("POST", fallback.URL,
		httpmock.NewStringResponder(200, `{"lead_id":"ext-2"}`))

	mock.ExpectExec("INSERT INTO leadflow.rejections").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO leadflow.distributions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE leadflow.leads").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	usage := emptyUsage()
	err := l.DistributeLead(context.Background(), lead, pool, usage)

	assert.NoError(t, err)
	assert.Equal(t, 0, usage.DailyCount(primary.AdvertiserID))
	assert.Equal(t, 1, usage.DailyCount(fallback.AdvertiserID))

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestDistributeLeadEmptyPoolRejectsLead(t *testing.T) {
	l, mock := newTestLeadflow(t)
	lead := getLeadMock()

	mock.ExpectExec("UPDATE leadflow.leads").
		WithArgs(lead.LeadID, model.LeadStatusRejected).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := l.DistributeLead(context.Background(), lead, nil, emptyUsage())

	assert.ErrorIs(t, err, ErrNoEligibleAdvertisers)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestDistributeLeadAllCandidatesRejected(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	l, mock := newTestLeadflow(t)
	lead := getLeadMock()
	advertiser := getAdvertiserMock("jsonpost", "https://api.acme.test/leads")
	pool := []model.Candidate{{Advertiser: advertiser, Weight: 50}}

	httpmock.RegisterResponder("POST", advertiser.URL,
		httpmock.NewStringResponder(422, `{"error":"invalid phone"}`))

	mock.ExpectExec("INSERT INTO leadflow.rejections").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE leadflow.leads").
		WithArgs(lead.LeadID, model.LeadStatusRejected).
		WillReturnResult(sqlmock.NewResult(1, 1))

	usage := emptyUsage()
	err := l.DistributeLead(context.Background(), lead, pool, usage)

	assert.ErrorIs(t, err, ErrAllAdvertisersRejected)
	assert.Equal(t, 0, usage.DailyCount(advertiser.AdvertiserID))

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestDistributeLeadSkipsAdvertiserWithoutAdapter(t *testing.T) {
	l, mock := newTestLeadflow(t)
	lead := getLeadMock()
	advertiser := getAdvertiserMock("soap", "https://api.acme.test/leads")
	pool := []model.Candidate{{Advertiser: advertiser, Weight: 50}}

	// No delivery attempt is made; the pool drains and the lead is rejected.
	mock.ExpectExec("UPDATE leadflow.leads").
		WithArgs(lead.LeadID, model.LeadStatusRejected).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := l.DistributeLead(context.Background(), lead, pool, emptyUsage())

	assert.ErrorIs(t, err, ErrAllAdvertisersRejected)
}
