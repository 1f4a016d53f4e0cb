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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5002"

	// DefaultBatchSize is how many queue items one processing pass claims
	// when the caller does not ask for a specific size.
	DefaultBatchSize = 50

	// MaxBatchSize is the hard upper bound on a single claimed batch.
	MaxBatchSize = 100
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"LEADFLOW_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"LEADFLOW_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"LEADFLOW_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"LEADFLOW_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"LEADFLOW_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"LEADFLOW_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"LEADFLOW_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"LEADFLOW_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"LEADFLOW_REDIS_SKIP_TLS_VERIFY"`
}

type QueueConfig struct {
	ProcessQueue         string `json:"process_queue" envconfig:"LEADFLOW_QUEUE_PROCESS"`
	WebhookQueue         string `json:"webhook_queue" envconfig:"LEADFLOW_QUEUE_WEBHOOK"`
	BatchSize            int    `json:"batch_size" envconfig:"LEADFLOW_QUEUE_BATCH_SIZE"`
	MaxAttempts          int    `json:"max_attempts" envconfig:"LEADFLOW_QUEUE_MAX_ATTEMPTS"`
	StaleClaimTimeoutSec int    `json:"stale_claim_timeout_sec" envconfig:"LEADFLOW_QUEUE_STALE_CLAIM_TIMEOUT_SEC"`
	SchedulerIntervalSec int    `json:"scheduler_interval_sec" envconfig:"LEADFLOW_QUEUE_SCHEDULER_INTERVAL_SEC"`
	MonitoringPort       string `json:"monitoring_port" envconfig:"LEADFLOW_QUEUE_MONITORING_PORT"`
}

type DeliveryConfig struct {
	TimeoutSec       int `json:"timeout_sec" envconfig:"LEADFLOW_DELIVERY_TIMEOUT_SEC"`
	MaxResponseChars int `json:"max_response_chars" envconfig:"LEADFLOW_DELIVERY_MAX_RESPONSE_CHARS"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"LEADFLOW_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"LEADFLOW_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"LEADFLOW_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack   SlackWebhook `json:"slack"`
	Webhook struct {
		Url     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

type Configuration struct {
	ProjectName  string           `json:"project_name" envconfig:"LEADFLOW_PROJECT_NAME"`
	Server       ServerConfig     `json:"server"`
	DataSource   DataSourceConfig `json:"data_source"`
	Redis        RedisConfig      `json:"redis"`
	Queue        QueueConfig      `json:"queue"`
	Delivery     DeliveryConfig   `json:"delivery"`
	Notification Notification     `json:"notification"`
	RateLimit    RateLimitConfig  `json:"rate_limit"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("leadflow", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called leadflow.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Leadflow Server"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	cnf.applyQueueAndDeliveryDefaults()

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

func (cnf *Configuration) applyQueueAndDeliveryDefaults() {
	if cnf.Queue.ProcessQueue == "" {
		cnf.Queue.ProcessQueue = "leadflow:process"
	}
	if cnf.Queue.WebhookQueue == "" {
		cnf.Queue.WebhookQueue = "leadflow:webhook"
	}
	if cnf.Queue.BatchSize <= 0 {
		cnf.Queue.BatchSize = DefaultBatchSize
	}
	if cnf.Queue.BatchSize > MaxBatchSize {
		log.Printf("Warning: Queue batch size %d exceeds the hard cap. Clamping to %d", cnf.Queue.BatchSize, MaxBatchSize)
		cnf.Queue.BatchSize = MaxBatchSize
	}
	if cnf.Queue.MaxAttempts <= 0 {
		cnf.Queue.MaxAttempts = 3
	}
	if cnf.Queue.StaleClaimTimeoutSec <= 0 {
		// Items stuck in processing after a crash are reclaimed after this long.
		cnf.Queue.StaleClaimTimeoutSec = 300
	}
	if cnf.Queue.SchedulerIntervalSec <= 0 {
		cnf.Queue.SchedulerIntervalSec = 30
	}
	if cnf.Queue.MonitoringPort == "" {
		cnf.Queue.MonitoringPort = "5003"
	}

	if cnf.Delivery.TimeoutSec <= 0 {
		cnf.Delivery.TimeoutSec = 15
	}
	if cnf.Delivery.MaxResponseChars <= 0 {
		cnf.Delivery.MaxResponseChars = 1000
	}
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	mockConfig.applyQueueAndDeliveryDefaults()
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
