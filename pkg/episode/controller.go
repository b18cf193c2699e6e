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

package episode

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/telekom/careflow/pkg/apiresponses"
	"github.com/telekom/careflow/pkg/model"
)

// Controller exposes episode intake and lookup over HTTP. Intake normally
// happens upstream of the workflow engine; this surface exists for local
// runs and for operators replaying episodes.
type Controller struct {
	store Store
	log   *zap.SugaredLogger
}

func NewController(log *zap.SugaredLogger, store Store) *Controller {
	return &Controller{store: store, log: log}
}

func (Controller) BasePath() string {
	return "episodes/"
}

func (ec Controller) Handlers() []gin.HandlerFunc {
	return nil
}

func (ec *Controller) Register(rg *gin.RouterGroup) error {
	rg.POST("", ec.handleCreate)
	rg.GET("/:episodeId", ec.handleGet)
	return nil
}

type createEpisodeRequest struct {
	PatientID string         `json:"patientId"`
	Symptoms  model.Symptoms `json:"symptoms"`
	Triage    *model.Triage  `json:"triage,omitempty"`
}

func (ec *Controller) handleCreate(c *gin.Context) {
	var req createEpisodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiresponses.RespondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.PatientID == "" {
		apiresponses.RespondMissingField(c, "patientId")
		return
	}

	now := time.Now().UTC()
	ep := &model.Episode{
		EpisodeID: "ep-" + uuid.NewString(),
		PatientID: req.PatientID,
		Status:    model.EpisodeActive,
		Symptoms:  req.Symptoms,
		Triage:    req.Triage,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := ec.store.Create(c.Request.Context(), ep); err != nil {
		apiresponses.RespondFault(c, "create episode", err, ec.log)
		return
	}

	ec.log.Infow("Episode created", "episodeId", ep.EpisodeID, "patientId", ep.PatientID)
	c.JSON(http.StatusCreated, ep)
}

func (ec *Controller) handleGet(c *gin.Context) {
	ep, err := ec.store.Get(c.Request.Context(), c.Param("episodeId"))
	if err != nil {
		apiresponses.RespondFault(c, "get episode", err, ec.log)
		return
	}
	c.JSON(http.StatusOK, ep)
}
