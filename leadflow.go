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
	"embed"
	"fmt"

	"github.com/leadflowhq/leadflow/adapters"
	"github.com/leadflowhq/leadflow/config"
	"github.com/leadflowhq/leadflow/database"
	redis_db "github.com/leadflowhq/leadflow/internal/redis-db"
	"github.com/redis/go-redis/v9"
)

// Leadflow is the main struct for the lead distribution engine. It wires the
// datasource, the task queue, Redis, and the delivery adapter registry.
type Leadflow struct {
	queue      *Queue
	redis      redis.UniversalClient
	datasource database.IDataSource
	adapters   *adapters.Registry
}

//go:embed sql/*.sql
var SQLFiles embed.FS

// NewLeadflow initializes a new instance of Leadflow with the provided
// database datasource.
func NewLeadflow(db database.IDataSource) (*Leadflow, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{fmt.Sprintf("redis://%s", configuration.Redis.Dns)}, configuration.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}
	newQueue := NewQueue(configuration)

	return &Leadflow{
		datasource: db,
		queue:      newQueue,
		redis:      redisClient.Client(),
		adapters:   adapters.DefaultRegistry(),
	}, nil
}

// Adapters exposes the delivery adapter registry so deployments can register
// custom advertiser types before starting workers.
func (l *Leadflow) Adapters() *adapters.Registry {
	return l.adapters
}
