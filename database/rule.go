package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"

	"github.com/leadflowhq/leadflow/internal/apierror"
	"github.com/leadflowhq/leadflow/model"
)

func (d Datasource) CreateAffiliateRule(ctx context.Context, rule *model.AffiliateRule) (*model.AffiliateRule, error) {
	var scheduleJSON []byte
	var err error
	if rule.Schedule != nil {
		scheduleJSON, err = json.Marshal(rule.Schedule)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal schedule", err)
		}
	}

	rule.RuleID = GenerateUUIDWithSuffix("rule")
	rule.CreatedAt = now()

	_, err = d.Conn.ExecContext(ctx,
		`INSERT INTO leadflow.affiliate_rules(rule_id,affiliate_id,advertiser_id,country,weight,daily_cap,hourly_cap,timezone,start_time,end_time,schedule,is_active,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		rule.RuleID, rule.AffiliateID, rule.AdvertiserID, rule.Country, rule.Weight, rule.DailyCap, rule.HourlyCap, rule.Timezone, rule.StartTime, rule.EndTime, scheduleJSON, rule.IsActive, rule.CreatedAt,
	)

	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create affiliate rule", err)
	}

	return rule, nil
}

const affiliateRuleColumns = `rule_id, affiliate_id, advertiser_id, country, weight, daily_cap, hourly_cap, timezone, start_time, end_time, schedule, is_active, created_at`

func scanAffiliateRule(rows *sql.Rows) (*model.AffiliateRule, error) {
	rule := &model.AffiliateRule{}
	var scheduleJSON []byte
	var timezone, startTime, endTime sql.NullString
	err := rows.Scan(&rule.RuleID, &rule.AffiliateID, &rule.AdvertiserID, &rule.Country, &rule.Weight, &rule.DailyCap, &rule.HourlyCap, &timezone, &startTime, &endTime, &scheduleJSON, &rule.IsActive, &rule.CreatedAt)
	if err != nil {
		return nil, err
	}
	rule.Timezone = timezone.String
	if startTime.Valid {
		rule.StartTime = &startTime.String
	}
	if endTime.Valid {
		rule.EndTime = &endTime.String
	}
	if len(scheduleJSON) > 0 {
		schedule := &model.WeeklySchedule{}
		if err := json.Unmarshal(scheduleJSON, schedule); err != nil {
			return nil, err
		}
		rule.Schedule = schedule
	}
	return rule, nil
}

func (d Datasource) GetActiveAffiliateRules(ctx context.Context, affiliateID, country string) ([]model.AffiliateRule, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+affiliateRuleColumns+`
		FROM leadflow.affiliate_rules
		WHERE affiliate_id = $1 AND country = $2 AND is_active
		ORDER BY created_at ASC
	`, affiliateID, country)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve affiliate rules", err)
	}
	defer rows.Close()

	return collectAffiliateRules(rows)
}

func (d Datasource) GetAllAffiliateRules(ctx context.Context, limit, offset int) ([]model.AffiliateRule, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+affiliateRuleColumns+`
		FROM leadflow.affiliate_rules
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve affiliate rules", err)
	}
	defer rows.Close()

	return collectAffiliateRules(rows)
}

func collectAffiliateRules(rows *sql.Rows) ([]model.AffiliateRule, error) {
	var rules []model.AffiliateRule
	for rows.Next() {
		rule, err := scanAffiliateRule(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan affiliate rule", err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error iterating affiliate rules", err)
	}
	return rules, nil
}

func (d Datasource) CreateAdvertiserSetting(ctx context.Context, setting *model.AdvertiserSetting) (*model.AdvertiserSetting, error) {
	setting.SettingID = GenerateUUIDWithSuffix("setting")
	setting.CreatedAt = now()

	_, err := d.Conn.ExecContext(ctx,
		`INSERT INTO leadflow.advertiser_settings(setting_id,advertiser_id,weight,daily_cap,hourly_cap,allowed_countries,allowed_affiliates,timezone,start_time,end_time,is_active,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		setting.SettingID, setting.AdvertiserID, setting.Weight, setting.DailyCap, setting.HourlyCap, pq.Array(setting.AllowedCountries), pq.Array(setting.AllowedAffiliates), setting.Timezone, setting.StartTime, setting.EndTime, setting.IsActive, setting.CreatedAt,
	)

	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create advertiser setting", err)
	}

	return setting, nil
}

func (d Datasource) GetActiveAdvertiserSettings(ctx context.Context) ([]model.AdvertiserSetting, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT setting_id, advertiser_id, weight, daily_cap, hourly_cap, allowed_countries, allowed_affiliates, timezone, start_time, end_time, is_active, created_at
		FROM leadflow.advertiser_settings
		WHERE is_active
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve advertiser settings", err)
	}
	defer rows.Close()

	var settings []model.AdvertiserSetting
	for rows.Next() {
		setting := model.AdvertiserSetting{}
		var timezone, startTime, endTime sql.NullString
		err = rows.Scan(&setting.SettingID, &setting.AdvertiserID, &setting.Weight, &setting.DailyCap, &setting.HourlyCap, pq.Array(&setting.AllowedCountries), pq.Array(&setting.AllowedAffiliates), &timezone, &startTime, &endTime, &setting.IsActive, &setting.CreatedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan advertiser setting", err)
		}
		setting.Timezone = timezone.String
		if startTime.Valid {
			setting.StartTime = &startTime.String
		}
		if endTime.Valid {
			setting.EndTime = &endTime.String
		}
		settings = append(settings, setting)
	}

	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error iterating advertiser settings", err)
	}

	return settings, nil
}
