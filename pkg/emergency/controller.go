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

package emergency

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/telekom/careflow/pkg/apiresponses"
	"github.com/telekom/careflow/pkg/model"
)

// Controller exposes the emergency alert operations over HTTP.
type Controller struct {
	coordinator *Coordinator
	log         *zap.SugaredLogger
}

func NewController(log *zap.SugaredLogger, coordinator *Coordinator) *Controller {
	return &Controller{coordinator: coordinator, log: log}
}

func (Controller) BasePath() string {
	return "emergency/"
}

func (ac Controller) Handlers() []gin.HandlerFunc {
	return nil
}

func (ac *Controller) Register(rg *gin.RouterGroup) error {
	rg.POST("/alerts", ac.handleProcessAlert)
	rg.GET("/episodes/:episodeId/status", ac.handleGetStatus)
	rg.GET("/queue", ac.handleGetQueue)
	rg.POST("/episodes/:episodeId/response", ac.handleUpdateResponse)
	return nil
}

type alertRequest struct {
	EpisodeID      string              `json:"episodeId"`
	AlertType      string              `json:"alertType"`
	Severity       model.AlertSeverity `json:"severity"`
	AdditionalInfo map[string]string   `json:"additionalInfo,omitempty"`
}

func (ac *Controller) handleProcessAlert(c *gin.Context) {
	var req alertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiresponses.RespondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.EpisodeID == "" {
		apiresponses.RespondMissingField(c, "episodeId")
		return
	}
	if req.AlertType == "" {
		apiresponses.RespondMissingField(c, "alertType")
		return
	}

	result, err := ac.coordinator.ProcessEmergencyAlert(c.Request.Context(), req.EpisodeID, req.AlertType, req.Severity, req.AdditionalInfo)
	if err != nil {
		apiresponses.RespondFault(c, "process emergency alert", err, ac.log)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"alertId":         result.Alert.AlertID,
		"supervisorCount": result.SupervisorCount,
		"responseMinutes": result.ResponseMinutes,
	})
}

func (ac *Controller) handleGetStatus(c *gin.Context) {
	status, err := ac.coordinator.GetEmergencyStatus(c.Request.Context(), c.Param("episodeId"))
	if err != nil {
		apiresponses.RespondFault(c, "get emergency status", err, ac.log)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (ac *Controller) handleGetQueue(c *gin.Context) {
	queue, err := ac.coordinator.GetEmergencyQueue(c.Request.Context(), c.Query("supervisorId"))
	if err != nil {
		apiresponses.RespondFault(c, "get emergency queue", err, ac.log)
		return
	}
	c.JSON(http.StatusOK, queue)
}

type responseRequest struct {
	SupervisorID string `json:"supervisorId"`
	Action       string `json:"action"`
	Notes        string `json:"notes,omitempty"`
}

func (ac *Controller) handleUpdateResponse(c *gin.Context) {
	var req responseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiresponses.RespondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.SupervisorID == "" {
		apiresponses.RespondMissingField(c, "supervisorId")
		return
	}
	if req.Action == "" {
		apiresponses.RespondMissingField(c, "action")
		return
	}

	episodeID := c.Param("episodeId")
	if err := ac.coordinator.UpdateEmergencyResponse(c.Request.Context(), episodeID, req.SupervisorID, req.Action, req.Notes); err != nil {
		apiresponses.RespondFault(c, "record emergency response", err, ac.log)
		return
	}
	c.JSON(http.StatusOK, gin.H{"episodeId": episodeID, "action": req.Action})
}
