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
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type processRequest struct {
	BatchSize   int  `json:"batch_size"`
	HealthCheck bool `json:"health_check"`
}

// ProcessDistributions runs one processing pass over the distribution queue.
// A health_check request answers without touching the queue, so monitors can
// probe the endpoint without consuming pending leads.
func (a Api) ProcessDistributions(c *gin.Context) {
	var req processRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
			return
		}
	}

	if req.HealthCheck {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	result, err := a.leadflow.ProcessQueue(c.Request.Context(), req.BatchSize)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (a Api) GetDistributions(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)
	leadID := c.DefaultQuery("lead_id", "")

	resp, err := a.leadflow.GetDistributions(c.Request.Context(), leadID, limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) GetRejections(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)
	leadID := c.DefaultQuery("lead_id", "")

	resp, err := a.leadflow.GetRejections(c.Request.Context(), leadID, limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
