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
	"math/rand"

	"github.com/leadflowhq/leadflow/model"
)

// SelectWeighted picks one candidate with probability proportional to its
// weight. A singleton pool short-circuits without drawing randomness, which
// keeps single-candidate behavior deterministic. A zero-weight candidate
// stays in the pool but can never win the draw; it only receives leads as
// the last one standing. Callers must not pass an empty pool.
func SelectWeighted(candidates []model.Candidate) model.Candidate {
	if len(candidates) == 1 {
		return candidates[0]
	}

	total := 0
	for _, c := range candidates {
		if c.Weight > 0 {
			total += c.Weight
		}
	}
	if total <= 0 {
		// Every weight is zero; proportional selection is undefined, so the
		// first candidate wins.
		return candidates[0]
	}

	draw := rand.Intn(total)
	cumulative := 0
	for _, c := range candidates {
		if c.Weight <= 0 {
			continue
		}
		cumulative += c.Weight
		if cumulative > draw {
			return c
		}
	}
	return candidates[len(candidates)-1]
}
