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

// Package emergency tracks emergency alerts for episodes flagged EMERGENCY.
// The alert track is independent of the escalation ladder: severity tiers
// drive supervisor fan-out and response targets, and open alerts surface in
// a priority-ordered queue.
package emergency

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/telekom/careflow/pkg/config"
	"github.com/telekom/careflow/pkg/episode"
	"github.com/telekom/careflow/pkg/faults"
	"github.com/telekom/careflow/pkg/metrics"
	"github.com/telekom/careflow/pkg/model"
	"github.com/telekom/careflow/pkg/notify"
)

// Response actions supervisors may record against an active alert.
const (
	ActionAcknowledge = "acknowledge"
	ActionResolve     = "resolve"
)

// Publisher delivers formatted notifications. notify.Dispatcher satisfies it.
type Publisher interface {
	Publish(ctx context.Context, msg notify.Message) error
}

// AlertResult is the outcome of ProcessEmergencyAlert.
type AlertResult struct {
	Alert           *model.EmergencyAlert
	SupervisorCount int
	ResponseMinutes int
}

// Status summarizes the emergency track of one episode.
type Status struct {
	IsEmergency    bool                  `json:"isEmergency"`
	ActiveAlerts   []model.EmergencyAlert `json:"activeAlerts"`
	ResponseStatus string                `json:"responseStatus"`
}

// QueueEntry is one open emergency case in the priority queue.
type QueueEntry struct {
	EpisodeID           string              `json:"episodeId"`
	PatientID           string              `json:"patientId"`
	AlertID             string              `json:"alertId"`
	Severity            model.AlertSeverity `json:"severity"`
	AssignedSupervisors []string            `json:"assignedSupervisors"`
	WaitMinutes         int                 `json:"waitMinutes"`
}

// Coordinator manages emergency alerts: raising them with a severity-driven
// roster, recording supervisor responses, and exposing the open-alert queue.
type Coordinator struct {
	episodes episode.Store
	policy   config.Policy
	notifier Publisher
	log      *zap.SugaredLogger
	now      func() time.Time
}

// NewCoordinator creates a Coordinator. The policy must have defaults
// applied.
func NewCoordinator(episodes episode.Store, policy config.Policy, notifier Publisher, log *zap.SugaredLogger) *Coordinator {
	return &Coordinator{
		episodes: episodes,
		policy:   policy,
		notifier: notifier,
		log:      log.Named("emergency"),
		now:      time.Now,
	}
}

// WithClock overrides the coordinator's clock; used by tests.
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// ProcessEmergencyAlert raises a new alert on the episode. The severity tier
// selects a roster prefix from the emergency supervisor list and a response
// target. Like escalations, every call creates a new alert record.
func (c *Coordinator) ProcessEmergencyAlert(ctx context.Context, episodeID, alertType string, severity model.AlertSeverity, additionalInfo map[string]string) (*AlertResult, error) {
	if !severity.Valid() {
		return nil, faults.InvalidInput(fmt.Sprintf("invalid alert severity: %s", severity))
	}

	ep, err := c.episodes.Get(ctx, episodeID)
	if err != nil {
		return nil, errors.Wrap(err, "loading episode for emergency alert")
	}

	sp := c.policy.Severities[string(severity)]
	roster := c.rosterFor(sp.SupervisorCount)

	alert := model.EmergencyAlert{
		AlertID:             "alert-" + uuid.NewString(),
		EpisodeID:           episodeID,
		AlertType:           alertType,
		Severity:            severity,
		AssignedSupervisors: roster,
		Status:              model.AlertActive,
		CreatedAt:           c.now().UTC(),
		AdditionalInfo:      additionalInfo,
	}

	ep.EmergencyAlerts = append(ep.EmergencyAlerts, alert)
	ep.AppendInteraction("emergency_alert_raised", "system", map[string]string{
		"alertId":   alert.AlertID,
		"alertType": alertType,
		"severity":  string(severity),
	})
	if err := c.episodes.Update(ctx, ep); err != nil {
		return nil, errors.Wrap(err, "attaching emergency alert to episode")
	}

	metrics.AlertRaised.WithLabelValues(string(severity)).Inc()
	c.log.Infow("Emergency alert raised",
		"alertId", alert.AlertID,
		"episodeId", episodeID,
		"severity", severity,
		"supervisors", len(roster),
		"responseMinutes", sp.ResponseMinutes)

	result := &AlertResult{
		Alert:           &alert,
		SupervisorCount: len(roster),
		ResponseMinutes: sp.ResponseMinutes,
	}

	if err := c.notifier.Publish(ctx, notify.NewEmergencyAlert(ep, &alert, sp.ResponseMinutes)); err != nil {
		// The alert record stands; the operator can re-trigger delivery.
		return result, errors.Wrap(err, "publishing emergency alert")
	}
	return result, nil
}

// rosterFor returns the first count supervisors of the emergency roster.
func (c *Coordinator) rosterFor(count int) []string {
	if count <= 0 {
		count = 1
	}
	if count > len(c.policy.EmergencyRoster) {
		count = len(c.policy.EmergencyRoster)
	}
	return append([]string(nil), c.policy.EmergencyRoster[:count]...)
}

// GetEmergencyStatus reports the episode's emergency track: open alerts and
// a coarse response status. With no open alert the status is "resolved";
// an open alert without a recorded response is "pending"; otherwise the
// alert's own status is reported.
func (c *Coordinator) GetEmergencyStatus(ctx context.Context, episodeID string) (*Status, error) {
	ep, err := c.episodes.Get(ctx, episodeID)
	if err != nil {
		return nil, errors.Wrap(err, "loading episode for emergency status")
	}

	var active []model.EmergencyAlert
	for _, a := range ep.EmergencyAlerts {
		if a.Status != model.AlertResolved {
			active = append(active, a)
		}
	}

	status := &Status{
		IsEmergency:  len(active) > 0 || (ep.Triage != nil && ep.Triage.UrgencyLevel == model.UrgencyEmergency),
		ActiveAlerts: active,
	}

	switch {
	case len(active) == 0:
		status.ResponseStatus = "resolved"
	case !c.hasResponse(ep, active[len(active)-1].AlertID):
		status.ResponseStatus = "pending"
	default:
		status.ResponseStatus = string(active[len(active)-1].Status)
	}
	return status, nil
}

func (c *Coordinator) hasResponse(ep *model.Episode, alertID string) bool {
	for _, r := range ep.EmergencyResponses {
		if r.AlertID == alertID {
			return true
		}
	}
	return false
}

// GetEmergencyQueue lists all open alerts across episodes, most severe
// first and, within a severity, longest-waiting first. A non-empty
// supervisorID filters to alerts assigned to that supervisor.
func (c *Coordinator) GetEmergencyQueue(ctx context.Context, supervisorID string) ([]QueueEntry, error) {
	eps, err := c.episodes.List(ctx, func(ep *model.Episode) bool {
		return ep.ActiveEmergencyAlert() != nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "scanning episodes for emergency queue")
	}

	now := c.now()
	entries := make([]QueueEntry, 0, len(eps))
	for _, ep := range eps {
		for _, a := range ep.EmergencyAlerts {
			if a.Status == model.AlertResolved {
				continue
			}
			if supervisorID != "" && !contains(a.AssignedSupervisors, supervisorID) {
				continue
			}
			entries = append(entries, QueueEntry{
				EpisodeID:           ep.EpisodeID,
				PatientID:           ep.PatientID,
				AlertID:             a.AlertID,
				Severity:            a.Severity,
				AssignedSupervisors: a.AssignedSupervisors,
				WaitMinutes:         int(now.Sub(a.CreatedAt).Minutes()),
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Severity.Rank() != entries[j].Severity.Rank() {
			return entries[i].Severity.Rank() > entries[j].Severity.Rank()
		}
		return entries[i].WaitMinutes > entries[j].WaitMinutes
	})
	return entries, nil
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

// UpdateEmergencyResponse records a supervisor acknowledging or resolving
// the episode's active alert. Resolve closes the alert; acknowledge keeps
// it open with an updated status.
func (c *Coordinator) UpdateEmergencyResponse(ctx context.Context, episodeID, supervisorID, action, notes string) error {
	if supervisorID == "" {
		return faults.InvalidInput("supervisorId is required")
	}
	if action != ActionAcknowledge && action != ActionResolve {
		return faults.InvalidInput(fmt.Sprintf("invalid response action: %s", action))
	}

	ep, err := c.episodes.Get(ctx, episodeID)
	if err != nil {
		return errors.Wrap(err, "loading episode for emergency response")
	}
	alert := ep.ActiveEmergencyAlert()
	if alert == nil {
		return faults.PreconditionFailed(fmt.Sprintf("episode %s has no active emergency alert", episodeID))
	}

	resp := model.EmergencyResponse{
		AlertID:      alert.AlertID,
		SupervisorID: supervisorID,
		Action:       action,
		Notes:        notes,
		Timestamp:    c.now().UTC(),
	}
	ep.EmergencyResponses = append(ep.EmergencyResponses, resp)

	switch action {
	case ActionAcknowledge:
		alert.Status = model.AlertAcknowledged
	case ActionResolve:
		alert.Status = model.AlertResolved
		metrics.AlertResolved.WithLabelValues(string(alert.Severity)).Inc()
	}

	ep.AppendInteraction("emergency_response_recorded", supervisorID, map[string]string{
		"alertId": alert.AlertID,
		"action":  action,
	})
	if err := c.episodes.Update(ctx, ep); err != nil {
		return errors.Wrap(err, "recording emergency response")
	}

	c.log.Infow("Emergency response recorded",
		"alertId", alert.AlertID,
		"episodeId", episodeID,
		"supervisorId", supervisorID,
		"action", action)

	if err := c.notifier.Publish(ctx, notify.NewResponseConfirmation(ep, &resp)); err != nil {
		return errors.Wrap(err, "publishing response confirmation")
	}
	return nil
}
