package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/leadflowhq/leadflow/internal/apierror"
	"github.com/leadflowhq/leadflow/model"

	_ "github.com/lib/pq"
)

func (d Datasource) CreateLead(ctx context.Context, lead *model.Lead) (*model.Lead, error) {
	ctx, span := otel.Tracer("leadflow.database").Start(ctx, "Saving lead to db")
	defer span.End()

	metaDataJSON, err := json.Marshal(lead.MetaData)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	lead.LeadID = GenerateUUIDWithSuffix("lead")
	lead.CreatedAt = now()
	if lead.Status == "" {
		lead.Status = model.LeadStatusNew
	}

	_, err = d.Conn.ExecContext(ctx,
		`INSERT INTO leadflow.leads(lead_id,first_name,last_name,email,phone,country,ip_address,offer_id,affiliate_id,status,created_at,meta_data) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		lead.LeadID, lead.FirstName, lead.LastName, lead.Email, lead.Phone, lead.Country, lead.IPAddress, lead.OfferID, lead.AffiliateID, lead.Status, lead.CreatedAt, metaDataJSON,
	)

	if err != nil {
		if pqDuplicateErr(err) {
			return nil, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Lead with email '%s' already exists", lead.Email), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create lead", err)
	}

	return lead, nil
}

func (d Datasource) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT lead_id, first_name, last_name, email, phone, country, ip_address, offer_id, affiliate_id, status, distributed_at, created_at, meta_data
		FROM leadflow.leads
		WHERE lead_id = $1
	`, id)

	lead := &model.Lead{}
	var metaDataJSON []byte
	err := row.Scan(&lead.LeadID, &lead.FirstName, &lead.LastName, &lead.Email, &lead.Phone, &lead.Country, &lead.IPAddress, &lead.OfferID, &lead.AffiliateID, &lead.Status, &lead.DistributedAt, &lead.CreatedAt, &metaDataJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Lead with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve lead", err)
	}

	if len(metaDataJSON) > 0 {
		err = json.Unmarshal(metaDataJSON, &lead.MetaData)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal metadata", err)
		}
	}

	return lead, nil
}

func (d Datasource) GetAllLeads(ctx context.Context, limit, offset int) ([]model.Lead, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT lead_id, first_name, last_name, email, phone, country, ip_address, offer_id, affiliate_id, status, distributed_at, created_at, meta_data
		FROM leadflow.leads
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve leads", err)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead := model.Lead{}
		var metaDataJSON []byte
		err = rows.Scan(&lead.LeadID, &lead.FirstName, &lead.LastName, &lead.Email, &lead.Phone, &lead.Country, &lead.IPAddress, &lead.OfferID, &lead.AffiliateID, &lead.Status, &lead.DistributedAt, &lead.CreatedAt, &metaDataJSON)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan lead", err)
		}
		if len(metaDataJSON) > 0 {
			if err := json.Unmarshal(metaDataJSON, &lead.MetaData); err != nil {
				return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal metadata", err)
			}
		}
		leads = append(leads, lead)
	}

	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error iterating leads", err)
	}

	return leads, nil
}

func (d Datasource) UpdateLeadStatus(ctx context.Context, id string, status string) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE leadflow.leads
		SET status = $2
		WHERE lead_id = $1
	`, id, status)

	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update lead status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Lead with ID '%s' not found", id), nil)
	}

	return nil
}

func (d Datasource) LeadExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := d.Conn.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM leadflow.leads WHERE email = $1)
	`, email).Scan(&exists)

	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check if lead exists", err)
	}

	return exists, nil
}
