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

	"github.com/sirupsen/logrus"

	"github.com/leadflowhq/leadflow/config"
	"github.com/leadflowhq/leadflow/internal/apierror"
	"github.com/leadflowhq/leadflow/model"
)

// CreateLead persists a submitted lead and queues it for distribution.
// Field-level validation happens at the API boundary; the email uniqueness
// check here is the last line of defense before the database constraint.
func (l *Leadflow) CreateLead(ctx context.Context, lead *model.Lead) (*model.Lead, error) {
	ctx, span := tracer.Start(ctx, "Creating Lead")
	defer span.End()

	exists, err := l.datasource.LeadExistsByEmail(ctx, lead.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Lead with email '%s' already exists", lead.Email), nil)
	}

	lead.Status = model.LeadStatusNew
	created, err := l.datasource.CreateLead(ctx, lead)
	if err != nil {
		return nil, err
	}

	cnf, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	if _, err := l.datasource.EnqueueLead(ctx, created.LeadID, cnf.Queue.MaxAttempts); err != nil {
		return nil, err
	}

	// Nudge the processor so a fresh lead does not wait for the next
	// scheduled pass. Failure here is harmless; the scheduler will pick the
	// item up anyway.
	if err := l.queue.EnqueueProcessTask(ctx, 0); err != nil {
		logrus.Warnf("could not enqueue process trigger for lead %s: %v", created.LeadID, err)
	}

	if err := SendWebhook(NewWebhook{Event: "lead.created", Payload: created}); err != nil {
		logrus.Error(err)
	}

	return created, nil
}

// GetLead retrieves a lead by its ID.
func (l *Leadflow) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	return l.datasource.GetLead(ctx, id)
}

// GetAllLeads retrieves leads newest first.
func (l *Leadflow) GetAllLeads(ctx context.Context, limit, offset int) ([]model.Lead, error) {
	return l.datasource.GetAllLeads(ctx, limit, offset)
}

// UpdateLeadStatus moves a lead through its lifecycle. Distribution outcomes
// set rejected / distributed internally; this is for the downstream sales
// statuses (contacted, qualified, converted, lost).
func (l *Leadflow) UpdateLeadStatus(ctx context.Context, id string, status string) error {
	switch status {
	case model.LeadStatusNew, model.LeadStatusContacted, model.LeadStatusQualified,
		model.LeadStatusConverted, model.LeadStatusLost, model.LeadStatusRejected:
	default:
		return apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("'%s' is not a valid lead status", status), nil)
	}
	return l.datasource.UpdateLeadStatus(ctx, id, status)
}
