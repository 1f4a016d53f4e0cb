package database

import (
	"context"
	"database/sql"

	"go.opentelemetry.io/otel"

	"github.com/leadflowhq/leadflow/internal/apierror"
	"github.com/leadflowhq/leadflow/model"
)

// RecordDistribution persists a sent distribution and stamps the lead as
// distributed in the same transaction, so a crash can never leave a
// distribution row without the matching lead update.
func (d Datasource) RecordDistribution(ctx context.Context, dist *model.Distribution) (*model.Distribution, error) {
	ctx, span := otel.Tracer("leadflow.database").Start(ctx, "Saving distribution to db")
	defer span.End()

	dist.DistributionID = GenerateUUIDWithSuffix("dist")
	dist.CreatedAt = now()

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO leadflow.distributions(distribution_id,lead_id,advertiser_id,affiliate_id,status,response,external_lead_id,payout,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		dist.DistributionID, dist.LeadID, dist.AdvertiserID, dist.AffiliateID, dist.Status, dist.Response, dist.ExternalLeadID, dist.Payout, dist.CreatedAt,
	)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record distribution", err)
	}

	if dist.Status == model.DistributionStatusSent {
		_, err = tx.ExecContext(ctx,
			`UPDATE leadflow.leads SET distributed_at = $2, status = $3 WHERE lead_id = $1`,
			dist.LeadID, dist.CreatedAt, model.LeadStatusNew,
		)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update lead after distribution", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit distribution", err)
	}

	return dist, nil
}

func (d Datasource) RecordRejection(ctx context.Context, rejection *model.Rejection) (*model.Rejection, error) {
	rejection.RejectionID = GenerateUUIDWithSuffix("rej")
	rejection.CreatedAt = now()

	_, err := d.Conn.ExecContext(ctx,
		`INSERT INTO leadflow.rejections(rejection_id,lead_id,advertiser_id,reason,created_at) VALUES ($1,$2,$3,$4,$5)`,
		rejection.RejectionID, rejection.LeadID, rejection.AdvertiserID, rejection.Reason, rejection.CreatedAt,
	)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record rejection", err)
	}

	return rejection, nil
}

func (d Datasource) GetDistributions(ctx context.Context, leadID string, limit, offset int) ([]model.Distribution, error) {
	query := `
		SELECT distribution_id, lead_id, advertiser_id, affiliate_id, status, response, external_lead_id, payout, created_at
		FROM leadflow.distributions`
	args := []interface{}{limit, offset}
	if leadID != "" {
		query += ` WHERE lead_id = $3`
		args = append(args, leadID)
	}
	query += `
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := d.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve distributions", err)
	}
	defer rows.Close()

	var distributions []model.Distribution
	for rows.Next() {
		dist := model.Distribution{}
		var affiliateID, response, externalLeadID sql.NullString
		err = rows.Scan(&dist.DistributionID, &dist.LeadID, &dist.AdvertiserID, &affiliateID, &dist.Status, &response, &externalLeadID, &dist.Payout, &dist.CreatedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan distribution", err)
		}
		dist.AffiliateID = affiliateID.String
		dist.Response = response.String
		dist.ExternalLeadID = externalLeadID.String
		distributions = append(distributions, dist)
	}

	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error iterating distributions", err)
	}

	return distributions, nil
}

func (d Datasource) GetRejections(ctx context.Context, leadID string, limit, offset int) ([]model.Rejection, error) {
	query := `
		SELECT rejection_id, lead_id, advertiser_id, reason, created_at
		FROM leadflow.rejections`
	args := []interface{}{limit, offset}
	if leadID != "" {
		query += ` WHERE lead_id = $3`
		args = append(args, leadID)
	}
	query += `
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := d.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve rejections", err)
	}
	defer rows.Close()

	var rejections []model.Rejection
	for rows.Next() {
		rejection := model.Rejection{}
		err = rows.Scan(&rejection.RejectionID, &rejection.LeadID, &rejection.AdvertiserID, &rejection.Reason, &rejection.CreatedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan rejection", err)
		}
		rejections = append(rejections, rejection)
	}

	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error iterating rejections", err)
	}

	return rejections, nil
}

// CountSentToday returns sent distributions per advertiser since UTC midnight.
func (d Datasource) CountSentToday(ctx context.Context) (map[string]int, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT advertiser_id, COUNT(*)
		FROM leadflow.distributions
		WHERE status = 'sent' AND created_at >= date_trunc('day', NOW() AT TIME ZONE 'UTC')
		GROUP BY advertiser_id
	`)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to count daily distributions", err)
	}
	defer rows.Close()

	return collectCounts(rows)
}

// CountSentLastHour returns sent distributions per advertiser in the rolling
// hour ending now.
func (d Datasource) CountSentLastHour(ctx context.Context) (map[string]int, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT advertiser_id, COUNT(*)
		FROM leadflow.distributions
		WHERE status = 'sent' AND created_at >= NOW() - INTERVAL '1 hour'
		GROUP BY advertiser_id
	`)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to count hourly distributions", err)
	}
	defer rows.Close()

	return collectCounts(rows)
}

func collectCounts(rows *sql.Rows) (map[string]int, error) {
	counts := make(map[string]int)
	for rows.Next() {
		var advertiserID string
		var count int
		if err := rows.Scan(&advertiserID, &count); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan count", err)
		}
		counts[advertiserID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error iterating counts", err)
	}
	return counts, nil
}
