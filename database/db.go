package database

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/leadflowhq/leadflow/config"
	"github.com/leadflowhq/leadflow/internal/cache"
)

// Declare a package-level variable to hold the singleton instance.
// Ensure the instance is not accessible outside the package.
var instance *Datasource
var once sync.Once

type Datasource struct {
	Conn  *sql.DB
	Cache cache.Cache
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		newCache, errCache := cache.NewCache()
		if errCache != nil {
			log.Printf("cache unavailable, reads fall through to Postgres: %v", errCache)
		}
		instance = &Datasource{Conn: con, Cache: newCache}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}

	// The database container may still be warming up; retry the ping briefly
	// instead of failing the whole process on first contact.
	ping := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
	err = backoff.Retry(db.Ping, ping)
	if err != nil {
		log.Printf("database Connection error ❌: %v", err)
		return nil, err
	}

	if _, err := db.Exec(`CREATE SCHEMA IF NOT EXISTS leadflow`); err != nil {
		return nil, err
	}
	err = createLeadTable(db)
	if err != nil {
		return nil, err
	}
	err = createAdvertiserTable(db)
	if err != nil {
		return nil, err
	}
	err = createAffiliateRuleTable(db)
	if err != nil {
		return nil, err
	}
	err = createAdvertiserSettingTable(db)
	if err != nil {
		return nil, err
	}
	err = createDistributionTable(db)
	if err != nil {
		return nil, err
	}
	err = createRejectionTable(db)
	if err != nil {
		return nil, err
	}
	err = createDistributionQueueTable(db)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	return fmt.Sprintf("%s_%s", module, id.String())
}

// now is separated out so tests can pin the clock.
var now = time.Now

// createLeadTable creates a PostgreSQL table for the Lead struct
func createLeadTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS leadflow.leads (
			id SERIAL PRIMARY KEY,
			lead_id TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			phone TEXT,
			country TEXT NOT NULL,
			ip_address TEXT,
			offer_id TEXT,
			affiliate_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'new',
			distributed_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			meta_data JSONB
		)
	`)
	if err != nil {
		log.Printf("Error creating leads table: %v", err)
	}
	return err
}

// createAdvertiserTable creates a PostgreSQL table for the Advertiser struct
func createAdvertiserTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS leadflow.advertisers (
			id SERIAL PRIMARY KEY,
			advertiser_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			advertiser_type TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			daily_cap INTEGER,
			hourly_cap INTEGER,
			base_weight INTEGER NOT NULL DEFAULT 100,
			payout NUMERIC(20,4) NOT NULL DEFAULT 0,
			url TEXT NOT NULL,
			api_key TEXT,
			settings JSONB,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		log.Printf("Error creating advertisers table: %v", err)
	}
	return err
}

// createAffiliateRuleTable creates a PostgreSQL table for the AffiliateRule struct
func createAffiliateRuleTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS leadflow.affiliate_rules (
			id SERIAL PRIMARY KEY,
			rule_id TEXT NOT NULL UNIQUE,
			affiliate_id TEXT NOT NULL,
			advertiser_id TEXT NOT NULL REFERENCES leadflow.advertisers(advertiser_id),
			country TEXT NOT NULL,
			weight INTEGER,
			daily_cap INTEGER,
			hourly_cap INTEGER,
			timezone TEXT,
			start_time TEXT,
			end_time TEXT,
			schedule JSONB,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_affiliate_rules_lookup
			ON leadflow.affiliate_rules (affiliate_id, country) WHERE is_active
	`)
	if err != nil {
		log.Printf("Error creating affiliate_rules table: %v", err)
	}
	return err
}

// createAdvertiserSettingTable creates a PostgreSQL table for the AdvertiserSetting struct
func createAdvertiserSettingTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS leadflow.advertiser_settings (
			id SERIAL PRIMARY KEY,
			setting_id TEXT NOT NULL UNIQUE,
			advertiser_id TEXT NOT NULL REFERENCES leadflow.advertisers(advertiser_id),
			weight INTEGER,
			daily_cap INTEGER,
			hourly_cap INTEGER,
			allowed_countries TEXT[],
			allowed_affiliates TEXT[],
			timezone TEXT,
			start_time TEXT,
			end_time TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		log.Printf("Error creating advertiser_settings table: %v", err)
	}
	return err
}

// createDistributionTable creates a PostgreSQL table for the Distribution struct
func createDistributionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS leadflow.distributions (
			id SERIAL PRIMARY KEY,
			distribution_id TEXT NOT NULL UNIQUE,
			lead_id TEXT NOT NULL REFERENCES leadflow.leads(lead_id),
			advertiser_id TEXT NOT NULL REFERENCES leadflow.advertisers(advertiser_id),
			affiliate_id TEXT,
			status TEXT NOT NULL,
			response TEXT,
			external_lead_id TEXT,
			payout NUMERIC(20,4) NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_distributions_capacity
			ON leadflow.distributions (advertiser_id, created_at) WHERE status = 'sent'
	`)
	if err != nil {
		log.Printf("Error creating distributions table: %v", err)
	}
	return err
}

// createRejectionTable creates a PostgreSQL table for the Rejection struct
func createRejectionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS leadflow.rejections (
			id SERIAL PRIMARY KEY,
			rejection_id TEXT NOT NULL UNIQUE,
			lead_id TEXT NOT NULL REFERENCES leadflow.leads(lead_id),
			advertiser_id TEXT NOT NULL REFERENCES leadflow.advertisers(advertiser_id),
			reason TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		log.Printf("Error creating rejections table: %v", err)
	}
	return err
}

// createDistributionQueueTable creates a PostgreSQL table for the QueueItem struct
func createDistributionQueueTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS leadflow.distribution_queue (
			id SERIAL PRIMARY KEY,
			item_id TEXT NOT NULL UNIQUE,
			lead_id TEXT NOT NULL UNIQUE REFERENCES leadflow.leads(lead_id),
			status TEXT NOT NULL DEFAULT 'pending',
			attempts INTEGER NOT NULL DEFAULT 0,
			max_attempts INTEGER NOT NULL DEFAULT 3,
			error_message TEXT,
			claimed_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_distribution_queue_pending
			ON leadflow.distribution_queue (created_at) WHERE status = 'pending'
	`)
	if err != nil {
		log.Printf("Error creating distribution_queue table: %v", err)
	}
	return err
}
