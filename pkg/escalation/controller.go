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

package escalation

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/telekom/careflow/pkg/apiresponses"
	"github.com/telekom/careflow/pkg/episode"
	"github.com/telekom/careflow/pkg/model"
)

// Controller exposes the escalation operations over HTTP.
type Controller struct {
	coordinator *Coordinator
	assessor    *Assessor
	episodes    episode.Store
	log         *zap.SugaredLogger
}

func NewController(log *zap.SugaredLogger, coordinator *Coordinator, assessor *Assessor, episodes episode.Store) *Controller {
	return &Controller{
		coordinator: coordinator,
		assessor:    assessor,
		episodes:    episodes,
		log:         log,
	}
}

func (Controller) BasePath() string {
	return "escalations/"
}

func (ec Controller) Handlers() []gin.HandlerFunc {
	return nil
}

func (ec *Controller) Register(rg *gin.RouterGroup) error {
	rg.POST("", ec.handleProcess)
	rg.POST("/assess/:episodeId", ec.handleAssess)
	rg.PATCH("/:escalationId/status", ec.handleUpdateStatus)
	rg.GET("/episode/:episodeId", ec.handleGetActive)
	return nil
}

type processEscalationRequest struct {
	EpisodeID      string                `json:"episodeId"`
	Reason         string                `json:"reason"`
	TargetLevel    model.EscalationLevel `json:"targetLevel,omitempty"`
	UrgentResponse bool                  `json:"urgentResponse,omitempty"`
}

func (ec *Controller) handleProcess(c *gin.Context) {
	var req processEscalationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiresponses.RespondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.EpisodeID == "" {
		apiresponses.RespondMissingField(c, "episodeId")
		return
	}
	if req.Reason == "" {
		apiresponses.RespondMissingField(c, "reason")
		return
	}

	result, err := ec.coordinator.ProcessEscalation(c.Request.Context(), req.EpisodeID, req.Reason, req.TargetLevel, req.UrgentResponse)
	if err != nil {
		apiresponses.RespondFault(c, "process escalation", err, ec.log)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"escalation":              result.Protocol,
		"escalationLevel":         result.Level,
		"assignedSupervisors":     result.AssignedSupervisors,
		"expectedResponseMinutes": result.ExpectedResponseMinutes,
	})
}

// handleAssess runs the escalation decision function for an episode and, when
// escalation is required, creates the protocol in the same request.
func (ec *Controller) handleAssess(c *gin.Context) {
	episodeID := c.Param("episodeId")
	ep, err := ec.episodes.Get(c.Request.Context(), episodeID)
	if err != nil {
		apiresponses.RespondFault(c, "assess episode", err, ec.log)
		return
	}

	assessment := ec.assessor.Assess(ep)
	if !assessment.Required {
		c.JSON(http.StatusOK, gin.H{"assessment": assessment})
		return
	}

	result, err := ec.coordinator.ProcessEscalation(c.Request.Context(), episodeID, assessment.Reason, assessment.TargetLevel, assessment.UrgentResponse)
	if err != nil {
		apiresponses.RespondFault(c, "escalate assessed episode", err, ec.log)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"assessment": assessment,
		"escalation": result.Protocol,
	})
}

type updateStatusRequest struct {
	Status        model.ProtocolStatus `json:"status"`
	FailureReason string               `json:"failureReason,omitempty"`
}

func (ec *Controller) handleUpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiresponses.RespondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Status == "" {
		apiresponses.RespondMissingField(c, "status")
		return
	}

	escalationID := c.Param("escalationId")
	if err := ec.coordinator.UpdateEscalationStatus(c.Request.Context(), escalationID, req.Status, req.FailureReason); err != nil {
		apiresponses.RespondFault(c, "update escalation status", err, ec.log)
		return
	}
	c.JSON(http.StatusOK, gin.H{"escalationId": escalationID, "status": req.Status})
}

func (ec *Controller) handleGetActive(c *gin.Context) {
	escalations, err := ec.coordinator.GetActiveEscalations(c.Request.Context(), c.Param("episodeId"))
	if err != nil {
		apiresponses.RespondFault(c, "list active escalations", err, ec.log)
		return
	}
	c.JSON(http.StatusOK, escalations)
}
