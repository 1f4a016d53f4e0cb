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

package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/leadflowhq/leadflow"
	model2 "github.com/leadflowhq/leadflow/api/model"
	"github.com/leadflowhq/leadflow/config"
	"github.com/leadflowhq/leadflow/database"
	"github.com/leadflowhq/leadflow/internal/request"
	"github.com/leadflowhq/leadflow/model"
)

type TestRequest struct {
	Payload  io.Reader
	Router   *gin.Engine
	Response interface{}
	Method   string
	Route    string
	Auth     string
	Header   map[string]string
}

func SetUpTestRequest(s TestRequest) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(s.Method, s.Route, s.Payload)
	for key, value := range s.Header {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	s.Router.ServeHTTP(resp, req)

	err := json.NewDecoder(resp.Body).Decode(&s.Response)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func setupRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()

	mr := miniredis.RunT(t)
	config.MockConfig(&config.Configuration{
		Redis: config.RedisConfig{Dns: mr.Addr()},
	})

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database Connection", err)
	}
	datasource := &database.Datasource{Conn: db}

	newLeadflow, err := leadflow.NewLeadflow(datasource)
	if err != nil {
		t.Fatalf("Error creating Leadflow instance: %s", err)
	}
	router := NewAPI(newLeadflow).Router()
	return router, mock
}

func validCreateLeadPayload() model2.CreateLead {
	return model2.CreateLead{
		FirstName:   "Jane",
		LastName:    "Doe",
		Email:       "jane.doe@example.com",
		Phone:       "+15555550100",
		Country:     "US",
		AffiliateID: "aff_1",
	}
}

func TestCreateLeadAPI(t *testing.T) {
	router, mock := setupRouter(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("jane.doe@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO leadflow.leads").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO leadflow.distribution_queue").
		WillReturnResult(sqlmock.NewResult(1, 1))

	payloadBytes, _ := request.ToJsonReq(validCreateLeadPayload())
	var response model.Lead
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  payloadBytes,
		Response: &response,
		Method:   "POST",
		Route:    "/leads",
		Router:   router,
	})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "jane.doe@example.com", response.Email)
	assert.Contains(t, response.LeadID, "lead_")
	assert.Equal(t, model.LeadStatusNew, response.Status)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestCreateLeadAPIValidation(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name         string
		payload      model2.CreateLead
		expectedCode int
	}{
		{
			name: "missing email",
			payload: model2.CreateLead{
				FirstName:   "Jane",
				LastName:    "Doe",
				Country:     "US",
				AffiliateID: "aff_1",
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "three letter country",
			payload: model2.CreateLead{
				FirstName:   "Jane",
				LastName:    "Doe",
				Email:       "jane.doe@example.com",
				Country:     "USA",
				AffiliateID: "aff_1",
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "missing affiliate",
			payload: model2.CreateLead{
				FirstName: "Jane",
				LastName:  "Doe",
				Email:     "jane.doe@example.com",
				Country:   "US",
			},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payloadBytes, _ := request.ToJsonReq(&tt.payload)
			var response map[string]interface{}
			resp, _ := SetUpTestRequest(TestRequest{
				Payload:  payloadBytes,
				Response: &response,
				Method:   "POST",
				Route:    "/leads",
				Router:   router,
			})
			assert.Equal(t, tt.expectedCode, resp.Code)
		})
	}
}

func TestCreateLeadAPIDuplicateEmail(t *testing.T) {
	router, mock := setupRouter(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("jane.doe@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	payloadBytes, _ := request.ToJsonReq(validCreateLeadPayload())
	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  payloadBytes,
		Response: &response,
		Method:   "POST",
		Route:    "/leads",
		Router:   router,
	})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestGetLeadAPI(t *testing.T) {
	router, mock := setupRouter(t)

	rows := sqlmock.NewRows([]string{"lead_id", "first_name", "last_name", "email", "phone", "country", "ip_address", "offer_id", "affiliate_id", "status", "distributed_at", "created_at", "meta_data"}).
		AddRow("lead_1", "Jane", "Doe", "jane.doe@example.com", "+15555550100", "US", "", "", "aff_1", "new", nil, time.Now(), nil)
	mock.ExpectQuery("SELECT lead_id, first_name, last_name").
		WithArgs("lead_1").
		WillReturnRows(rows)

	var response model.Lead
	resp, err := SetUpTestRequest(TestRequest{
		Response: &response,
		Method:   "GET",
		Route:    "/leads/lead_1",
		Router:   router,
	})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "lead_1", response.LeadID)
}

func TestUpdateLeadStatusAPI(t *testing.T) {
	router, mock := setupRouter(t)

	mock.ExpectExec("UPDATE leadflow.leads").
		WithArgs("lead_1", "contacted").
		WillReturnResult(sqlmock.NewResult(1, 1))

	payloadBytes, _ := request.ToJsonReq(model2.UpdateLeadStatus{Status: "contacted"})
	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  payloadBytes,
		Response: &response,
		Method:   "PUT",
		Route:    "/leads/lead_1/status",
		Router:   router,
	})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "contacted", response["status"])
}

func TestUpdateLeadStatusAPIRejectsUnknownStatus(t *testing.T) {
	router, _ := setupRouter(t)

	payloadBytes, _ := request.ToJsonReq(model2.UpdateLeadStatus{Status: "archived"})
	var response map[string]interface{}
	resp, _ := SetUpTestRequest(TestRequest{
		Payload:  payloadBytes,
		Response: &response,
		Method:   "PUT",
		Route:    "/leads/lead_1/status",
		Router:   router,
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestProcessDistributionsHealthCheck(t *testing.T) {
	router, mock := setupRouter(t)

	payloadBytes, _ := request.ToJsonReq(map[string]interface{}{"health_check": true})
	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  payloadBytes,
		Response: &response,
		Method:   "POST",
		Route:    "/distributions/process",
		Router:   router,
	})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "ok", response["status"])

	// A health check must not touch the queue.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestProcessDistributionsRunsPass(t *testing.T) {
	router, mock := setupRouter(t)

	mock.ExpectExec("UPDATE leadflow.distribution_queue").
		WithArgs("300 seconds").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("UPDATE leadflow.distribution_queue").
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "lead_id", "status", "attempts", "max_attempts", "error_message", "claimed_at", "created_at", "updated_at"}))

	var response leadflow.ProcessResult
	resp, err := SetUpTestRequest(TestRequest{
		Response: &response,
		Method:   "POST",
		Route:    "/distributions/process",
		Router:   router,
	})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 0, response.Claimed)
}
