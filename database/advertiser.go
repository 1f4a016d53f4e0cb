package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/leadflowhq/leadflow/internal/apierror"
	"github.com/leadflowhq/leadflow/model"

	_ "github.com/lib/pq"
)

const advertiserColumns = `advertiser_id, name, advertiser_type, is_active, daily_cap, hourly_cap, base_weight, payout, url, api_key, settings, created_at`

func (d Datasource) CreateAdvertiser(ctx context.Context, advertiser *model.Advertiser) (*model.Advertiser, error) {
	settingsJSON, err := json.Marshal(advertiser.Settings)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal settings", err)
	}

	advertiser.AdvertiserID = GenerateUUIDWithSuffix("adv")
	advertiser.CreatedAt = now()
	if advertiser.BaseWeight <= 0 {
		advertiser.BaseWeight = model.DefaultWeight
	}

	_, err = d.Conn.ExecContext(ctx,
		`INSERT INTO leadflow.advertisers(advertiser_id,name,advertiser_type,is_active,daily_cap,hourly_cap,base_weight,payout,url,api_key,settings,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		advertiser.AdvertiserID, advertiser.Name, advertiser.AdvertiserType, advertiser.IsActive, advertiser.DailyCap, advertiser.HourlyCap, advertiser.BaseWeight, advertiser.Payout, advertiser.URL, advertiser.APIKey, settingsJSON, advertiser.CreatedAt,
	)

	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create advertiser", err)
	}

	return advertiser, nil
}

func scanAdvertiser(row interface{ Scan(...interface{}) error }) (*model.Advertiser, error) {
	advertiser := &model.Advertiser{}
	var settingsJSON []byte
	err := row.Scan(&advertiser.AdvertiserID, &advertiser.Name, &advertiser.AdvertiserType, &advertiser.IsActive, &advertiser.DailyCap, &advertiser.HourlyCap, &advertiser.BaseWeight, &advertiser.Payout, &advertiser.URL, &advertiser.APIKey, &settingsJSON, &advertiser.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(settingsJSON) > 0 {
		if err := json.Unmarshal(settingsJSON, &advertiser.Settings); err != nil {
			return nil, err
		}
	}
	return advertiser, nil
}

func (d Datasource) GetAdvertiser(ctx context.Context, id string) (*model.Advertiser, error) {
	cacheKey := fmt.Sprintf("advertiser:%s", id)

	var cached model.Advertiser
	if d.Cache != nil {
		if err := d.Cache.Get(ctx, cacheKey, &cached); err == nil && cached.AdvertiserID != "" {
			return &cached, nil
		}
	}

	row := d.Conn.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM leadflow.advertisers
		WHERE advertiser_id = $1
	`, advertiserColumns), id)

	advertiser, err := scanAdvertiser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Advertiser with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve advertiser", err)
	}

	if d.Cache != nil {
		if err := d.Cache.Set(ctx, cacheKey, advertiser, 5*time.Minute); err != nil {
			// Stale reads are bounded by the TTL, so a failed cache write is
			// not worth failing the lookup over.
			log.Printf("Failed to cache advertiser: %v", err)
		}
	}

	return advertiser, nil
}

func (d Datasource) GetAllAdvertisers(ctx context.Context, limit, offset int) ([]model.Advertiser, error) {
	rows, err := d.Conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM leadflow.advertisers
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, advertiserColumns), limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve advertisers", err)
	}
	defer rows.Close()

	return collectAdvertisers(rows)
}

func (d Datasource) GetActiveAdvertisers(ctx context.Context) ([]model.Advertiser, error) {
	rows, err := d.Conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM leadflow.advertisers
		WHERE is_active
		ORDER BY created_at ASC
	`, advertiserColumns))
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve active advertisers", err)
	}
	defer rows.Close()

	return collectAdvertisers(rows)
}

func collectAdvertisers(rows *sql.Rows) ([]model.Advertiser, error) {
	var advertisers []model.Advertiser
	for rows.Next() {
		advertiser, err := scanAdvertiser(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan advertiser", err)
		}
		advertisers = append(advertisers, *advertiser)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error iterating advertisers", err)
	}
	return advertisers, nil
}
