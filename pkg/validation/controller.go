/*
Copyright 2026.

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

package validation

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/telekom/careflow/pkg/apiresponses"
	"github.com/telekom/careflow/pkg/model"
)

// Controller exposes the validation queue operations over HTTP.
type Controller struct {
	manager *Manager
	log     *zap.SugaredLogger
}

func NewController(log *zap.SugaredLogger, manager *Manager) *Controller {
	return &Controller{manager: manager, log: log}
}

func (Controller) BasePath() string {
	return "validation/"
}

func (vc Controller) Handlers() []gin.HandlerFunc {
	return nil
}

func (vc *Controller) Register(rg *gin.RouterGroup) error {
	rg.POST("/submit", vc.handleSubmit)
	rg.POST("/decisions", vc.handleDecision)
	rg.GET("/episodes/:episodeId/status", vc.handleGetStatus)
	rg.GET("/queue", vc.handleGetQueue)
	return nil
}

type submitRequest struct {
	EpisodeID    string `json:"episodeId"`
	SupervisorID string `json:"supervisorId,omitempty"`
}

func (vc *Controller) handleSubmit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiresponses.RespondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.EpisodeID == "" {
		apiresponses.RespondMissingField(c, "episodeId")
		return
	}

	result, err := vc.manager.SubmitForValidation(c.Request.Context(), req.EpisodeID, req.SupervisorID)
	if err != nil {
		apiresponses.RespondFault(c, "submit episode for validation", err, vc.log)
		return
	}
	c.JSON(http.StatusOK, result)
}

type decisionRequest struct {
	EpisodeID      string `json:"episodeId"`
	SupervisorID   string `json:"supervisorId"`
	Approved       *bool  `json:"approved"`
	OverrideReason string `json:"overrideReason,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

func (vc *Controller) handleDecision(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiresponses.RespondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.EpisodeID == "" {
		apiresponses.RespondMissingField(c, "episodeId")
		return
	}
	if req.SupervisorID == "" {
		apiresponses.RespondMissingField(c, "supervisorId")
		return
	}
	if req.Approved == nil {
		apiresponses.RespondMissingField(c, "approved")
		return
	}

	result, err := vc.manager.RecordDecision(c.Request.Context(), req.EpisodeID, req.SupervisorID, *req.Approved, req.OverrideReason, req.Notes)
	if err != nil {
		apiresponses.RespondFault(c, "record validation decision", err, vc.log)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (vc *Controller) handleGetStatus(c *gin.Context) {
	status, err := vc.manager.GetStatus(c.Request.Context(), c.Param("episodeId"))
	if err != nil {
		apiresponses.RespondFault(c, "get validation status", err, vc.log)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (vc *Controller) handleGetQueue(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			apiresponses.RespondBadRequest(c, "invalid limit: "+raw)
			return
		}
		limit = parsed
	}
	filter := QueueFilter{
		SupervisorID: c.Query("supervisorId"),
		UrgencyLevel: model.UrgencyLevel(c.Query("urgencyLevel")),
	}

	queue, err := vc.manager.GetQueue(c.Request.Context(), filter, limit)
	if err != nil {
		apiresponses.RespondFault(c, "get validation queue", err, vc.log)
		return
	}
	c.JSON(http.StatusOK, queue)
}
