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
	"log"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"github.com/leadflowhq/leadflow/adapters"
	"github.com/leadflowhq/leadflow/config"
	"github.com/leadflowhq/leadflow/database"
	"github.com/leadflowhq/leadflow/model"
)

func newTestDataSource() (database.IDataSource, sqlmock.Sqlmock, error) {
	config.MockConfig(&config.Configuration{})
	db, mock, err := sqlmock.New()
	if err != nil {
		log.Printf("an error '%s' was not expected when opening a stub database Connection", err)
	}
	return &database.Datasource{Conn: db, Cache: nil}, mock, nil
}

// newTestLeadflow builds an engine over a stub database without Redis; the
// resolver, selector, and orchestrator never touch the task queue.
func newTestLeadflow(t *testing.T) (*Leadflow, sqlmock.Sqlmock) {
	t.Helper()
	datasource, mock, err := newTestDataSource()
	if err != nil {
		t.Fatalf("Error creating test data source: %s", err)
	}
	return &Leadflow{datasource: datasource, adapters: adapters.DefaultRegistry()}, mock
}

// newQueuedTestLeadflow builds a full engine against an in-process Redis for
// the paths that enqueue tasks.
func newQueuedTestLeadflow(t *testing.T) (*Leadflow, sqlmock.Sqlmock) {
	t.Helper()
	mr := miniredis.RunT(t)
	config.MockConfig(&config.Configuration{
		Redis: config.RedisConfig{Dns: mr.Addr()},
	})

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database Connection", err)
	}
	datasource := &database.Datasource{Conn: db, Cache: nil}

	l, err := NewLeadflow(datasource)
	if err != nil {
		t.Fatalf("Error creating Leadflow instance: %s", err)
	}
	return l, mock
}

func getLeadMock() *model.Lead {
	return &model.Lead{
		LeadID:      "lead_" + gofakeit.UUID(),
		FirstName:   gofakeit.FirstName(),
		LastName:    gofakeit.LastName(),
		Email:       gofakeit.Email(),
		Phone:       gofakeit.Phone(),
		Country:     "US",
		AffiliateID: "aff_" + gofakeit.UUID(),
		Status:      model.LeadStatusNew,
	}
}

func getAdvertiserMock(advertiserType, url string) model.Advertiser {
	return model.Advertiser{
		AdvertiserID:   "adv_" + gofakeit.UUID(),
		Name:           gofakeit.Company(),
		AdvertiserType: advertiserType,
		IsActive:       true,
		BaseWeight:     model.DefaultWeight,
		Payout:         decimal.NewFromFloat(25.5),
		URL:            url,
	}
}

func emptyUsage() *CapacityUsage {
	return &CapacityUsage{Daily: map[string]int{}, Hourly: map[string]int{}}
}
