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
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"

	"github.com/leadflowhq/leadflow/config"
)

func TestEnqueueProcessTask(t *testing.T) {
	mr := miniredis.RunT(t)
	config.MockConfig(&config.Configuration{
		Redis: config.RedisConfig{Dns: mr.Addr()},
	})

	queue := NewQueue(&config.Configuration{
		Redis: config.RedisConfig{Dns: mr.Addr()},
	})
	defer func() {
		_ = queue.Client.Close()
	}()

	err := queue.EnqueueProcessTask(context.Background(), 25)
	assert.NoError(t, err)

	tasks, err := queue.Inspector.ListPendingTasks("leadflow:process")
	assert.NoError(t, err)
	if assert.Len(t, tasks, 1) {
		var payload ProcessTaskPayload
		assert.NoError(t, json.Unmarshal(tasks[0].Payload, &payload))
		assert.Equal(t, 25, payload.BatchSize)
	}
}
