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

// Package adapters holds the delivery adapters that translate a lead into an
// advertiser's wire format and interpret the response. Adapters perform one
// attempt per call; failover and retry live in the orchestrator.
package adapters

import (
	"context"
	"sort"
	"sync"

	"github.com/leadflowhq/leadflow/model"
)

// Result is the outcome of a single delivery attempt. Success mirrors the
// advertiser's verdict; a well-formed HTTP error response is a failed Result,
// not an error.
type Result struct {
	Success        bool
	StatusCode     int
	Body           string
	ExternalLeadID string
}

// Adapter delivers one lead to one advertiser.
type Adapter interface {
	Deliver(ctx context.Context, lead *model.Lead, advertiser *model.Advertiser) (*Result, error)
}

// Registry maps advertiser types to their adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// DefaultRegistry returns a registry with the built-in adapters installed.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("jsonpost", &JSONPostAdapter{})
	r.Register("formpost", &FormPostAdapter{})
	r.Register("querystring", &QueryStringAdapter{})
	return r
}

func (r *Registry) Register(advertiserType string, adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[advertiserType] = adapter
}

// Get returns the adapter for an advertiser type. A missing adapter is a
// configuration gap the caller handles by skipping the advertiser.
func (r *Registry) Get(advertiserType string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[advertiserType]
	return adapter, ok
}

// Types lists the registered advertiser types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.adapters))
	for t := range r.adapters {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
