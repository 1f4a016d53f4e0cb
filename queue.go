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
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"

	"github.com/leadflowhq/leadflow/config"
	redis_db "github.com/leadflowhq/leadflow/internal/redis-db"
)

// Queue wraps the asynq client used to trigger distribution passes and to
// deliver webhook notifications.
type Queue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
}

// ProcessTaskPayload is the payload of a distribution trigger task.
type ProcessTaskPayload struct {
	BatchSize int `json:"batch_size"`
}

// redisClientOption builds the asynq Redis connection options from the
// configured Redis DSN.
func redisClientOption(conf *config.Configuration) (asynq.RedisClientOpt, error) {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{Addr: redisOption.Addr, Password: redisOption.Password, DB: redisOption.DB, TLSConfig: redisOption.TLSConfig}, nil
}

// NewQueue initializes a new Queue instance with the provided configuration.
func NewQueue(conf *config.Configuration) *Queue {
	queueOptions, err := redisClientOption(conf)
	if err != nil {
		log.Fatalf("Error parsing Redis URL: %v", err)
	}

	client := asynq.NewClient(queueOptions)
	inspector := asynq.NewInspector(queueOptions)
	return &Queue{
		Client:    client,
		Inspector: inspector,
	}
}

// EnqueueProcessTask enqueues a task that asks a worker to run one queue
// processing pass. A batchSize of zero lets the worker use the configured
// default. Passes are cheap and idempotent, so duplicate triggers are
// harmless; the durable queue in Postgres is the source of truth.
func (q *Queue) EnqueueProcessTask(ctx context.Context, batchSize int) error {
	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(ProcessTaskPayload{BatchSize: batchSize})
	if err != nil {
		return err
	}

	task := asynq.NewTask(cfg.Queue.ProcessQueue, payload, asynq.Queue(cfg.Queue.ProcessQueue))
	info, err := q.Client.EnqueueContext(ctx, task, asynq.MaxRetry(5))
	if err != nil {
		log.Println(err, info)
		return err
	}
	return nil
}
