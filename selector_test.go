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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leadflowhq/leadflow/model"
)

func candidateWithWeight(id string, weight int) model.Candidate {
	return model.Candidate{
		Advertiser: model.Advertiser{AdvertiserID: id, IsActive: true},
		Weight:     weight,
	}
}

func TestSelectWeightedSingleCandidateIsDeterministic(t *testing.T) {
	pool := []model.Candidate{candidateWithWeight("adv_only", 0)}
	for i := 0; i < 100; i++ {
		picked := SelectWeighted(pool)
		assert.Equal(t, "adv_only", picked.Advertiser.AdvertiserID)
	}
}

func TestSelectWeightedProportions(t *testing.T) {
	pool := []model.Candidate{
		candidateWithWeight("adv_light", 10),
		candidateWithWeight("adv_heavy", 90),
	}

	const draws = 10000
	counts := map[string]int{}
	for i := 0; i < draws; i++ {
		picked := SelectWeighted(pool)
		counts[picked.Advertiser.AdvertiserID]++
	}

	assert.Equal(t, draws, counts["adv_light"]+counts["adv_heavy"])
	// 10% expected share; bounds are wide enough to never flake.
	assert.Greater(t, counts["adv_light"], draws/20)
	assert.Less(t, counts["adv_light"], draws/5)
}

func TestSelectWeightedZeroWeightNeverWinsADraw(t *testing.T) {
	pool := []model.Candidate{
		candidateWithWeight("adv_zero", 0),
		candidateWithWeight("adv_live", 50),
	}

	for i := 0; i < 1000; i++ {
		picked := SelectWeighted(pool)
		assert.Equal(t, "adv_live", picked.Advertiser.AdvertiserID)
	}
}

func TestSelectWeightedAllZeroFallsBackToFirst(t *testing.T) {
	pool := []model.Candidate{
		candidateWithWeight("adv_first", 0),
		candidateWithWeight("adv_second", 0),
	}

	picked := SelectWeighted(pool)
	assert.Equal(t, "adv_first", picked.Advertiser.AdvertiserID)
}
