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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.elastic.co/apm/module/apmlogrus/v2"
	"go.opentelemetry.io/otel"

	"github.com/leadflowhq/leadflow"
	"github.com/leadflowhq/leadflow/config"
	redis_db "github.com/leadflowhq/leadflow/internal/redis-db"
)

func init() {
	logrus.AddHook(&apmlogrus.Hook{})
}

// processQueuePass runs one distribution pass when a trigger task arrives.
// The pass claims its own batch from Postgres, so a lost or duplicated
// trigger never loses or double-sends a lead.
func (b *leadflowInstance) processQueuePass(ctx context.Context, t *asynq.Task) error {
	ctx, span := otel.Tracer("leadflow.distribution.worker").Start(ctx, "Process Distribution Trigger")
	defer span.End()

	var payload leadflow.ProcessTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logrus.Error(err)
		return err
	}

	result, err := b.leadflow.ProcessQueue(ctx, payload.BatchSize)
	if err != nil {
		logrus.Errorf("distribution pass failed, pushed back for retry: %v", err)
		return err
	}

	log.Printf(" [*] Distribution pass complete: claimed=%d succeeded=%d rejected=%d retried=%d failed=%d",
		result.Claimed, result.Succeeded, result.Rejected, result.Retried, result.Failed)
	return nil
}

func initializeQueues() map[string]int {
	cfg, err := config.Fetch()
	if err != nil {
		log.Printf("Error fetching config, using defaults: %v", err)
		return nil
	}

	queues := make(map[string]int)
	queues[cfg.Queue.WebhookQueue] = 3
	queues[cfg.Queue.ProcessQueue] = 1
	return queues
}

func initializeWorkerServer(conf *config.Configuration, queues map[string]int) (*asynq.Server, error) {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return nil, fmt.Errorf("error parsing Redis URL: %v", err)
	}

	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:      redisOption.Addr,
			Password:  redisOption.Password,
			DB:        redisOption.DB,
			TLSConfig: redisOption.TLSConfig,
		},
		asynq.Config{
			Concurrency: 1,
			Queues:      queues,
		},
	), nil
}

func initializeTaskHandlers(b *leadflowInstance, mux *asynq.ServeMux) {
	cfg, err := config.Fetch()
	if err != nil {
		log.Printf("Error fetching config, using defaults: %v", err)
		return
	}

	mux.HandleFunc(cfg.Queue.ProcessQueue, b.processQueuePass)
	mux.HandleFunc(cfg.Queue.WebhookQueue, leadflow.ProcessWebhook)
}

// startScheduler registers a periodic trigger so pending leads are picked up
// even when no API call asks for a pass.
func startScheduler(conf *config.Configuration, redisOption asynq.RedisClientOpt) {
	scheduler := asynq.NewScheduler(redisOption, nil)

	payload, err := json.Marshal(leadflow.ProcessTaskPayload{})
	if err != nil {
		log.Fatalf("could not build scheduler payload: %v", err)
	}
	task := asynq.NewTask(conf.Queue.ProcessQueue, payload, asynq.Queue(conf.Queue.ProcessQueue))
	spec := fmt.Sprintf("@every %ds", conf.Queue.SchedulerIntervalSec)
	if _, err := scheduler.Register(spec, task); err != nil {
		log.Fatalf("could not register periodic distribution trigger: %v", err)
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			log.Fatalf("could not run scheduler: %v", err)
		}
	}()
}

// workerCommands defines the "workers" command to start worker processes.
// The workers listen to the distribution trigger and webhook queues.
func workerCommands(b *leadflowInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workers",
		Short: "start leadflow workers",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			conf, err := config.Fetch()
			if err != nil {
				log.Fatal("Error fetching config:", err)
			}

			shutdown, err := initializeTracing(ctx)
			if err != nil {
				log.Fatal(err)
			}
			defer func() {
				if err := shutdown(ctx); err != nil {
					log.Printf("Error during shutdown: %v", err)
				}
			}()

			queues := initializeQueues()

			srv, err := initializeWorkerServer(conf, queues)
			if err != nil {
				log.Fatal(err)
			}

			mux := asynq.NewServeMux()
			initializeTaskHandlers(b, mux)

			redisOption, _ := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
			redisOpt := asynq.RedisClientOpt{
				Addr:      redisOption.Addr,
				Password:  redisOption.Password,
				DB:        redisOption.DB,
				TLSConfig: redisOption.TLSConfig,
			}

			startScheduler(conf, redisOpt)

			// Start asynqmon server for health checks and monitoring
			h := asynqmon.New(asynqmon.Options{
				RootPath:     "/monitoring",
				RedisConnOpt: redisOpt,
			})

			go func() {
				monitoringAddr := fmt.Sprintf(":%s", conf.Queue.MonitoringPort)
				log.Printf("Asynqmon server listening on %s/monitoring", monitoringAddr)
				if err := http.ListenAndServe(monitoringAddr, h); err != nil {
					log.Fatalf("could not start asynqmon server: %v", err)
				}
			}()

			if err := srv.Run(mux); err != nil {
				log.Fatalf("could not run server: %v", err)
			}
		},
	}

	return cmd
}
