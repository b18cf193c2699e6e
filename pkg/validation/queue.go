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

// Package validation manages the supervisor review queue: episodes enter
// after triage, a supervisor approves or overrides the assessment, and
// overrides hand the episode to the escalation track.
package validation

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/telekom/careflow/pkg/episode"
	"github.com/telekom/careflow/pkg/escalation"
	"github.com/telekom/careflow/pkg/faults"
	"github.com/telekom/careflow/pkg/metrics"
	"github.com/telekom/careflow/pkg/model"
	"github.com/telekom/careflow/pkg/notify"
)

var supervisorIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// Publisher delivers formatted notifications. notify.Dispatcher satisfies it.
type Publisher interface {
	Publish(ctx context.Context, msg notify.Message) error
}

// Escalator hands an overridden episode to the escalation track.
// escalation.Coordinator satisfies it.
type Escalator interface {
	ProcessEscalation(ctx context.Context, episodeID, reason string, targetLevel model.EscalationLevel, urgentResponse bool) (*escalation.Result, error)
}

// SubmitResult is the outcome of SubmitForValidation.
type SubmitResult struct {
	EpisodeID    string             `json:"episodeId"`
	SupervisorID string             `json:"supervisorId,omitempty"`
	UrgencyLevel model.UrgencyLevel `json:"urgencyLevel"`
}

// DecisionResult is the outcome of RecordDecision.
type DecisionResult struct {
	Approved  bool                `json:"approved"`
	NewStatus model.EpisodeStatus `json:"newStatus"`
}

// ValidationStatus reports whether an episode has been reviewed.
type ValidationStatus struct {
	ValidationStatus string                 `json:"validationStatus"` // pending | completed
	Validation       *model.HumanValidation `json:"validation,omitempty"`
}

// QueueItem is one episode awaiting validation.
type QueueItem struct {
	EpisodeID          string             `json:"episodeId"`
	PatientID          string             `json:"patientId"`
	UrgencyLevel       model.UrgencyLevel `json:"urgencyLevel"`
	AssignedSupervisor string             `json:"assignedSupervisor,omitempty"`
	QueuedAt           time.Time          `json:"queuedAt"`
	WaitMinutes        int                `json:"waitMinutes"`
}

// QueueFilter narrows GetQueue results.
type QueueFilter struct {
	SupervisorID string
	UrgencyLevel model.UrgencyLevel
}

// Manager owns the validation queue.
type Manager struct {
	episodes  episode.Store
	escalator Escalator
	notifier  Publisher
	log       *zap.SugaredLogger
	now       func() time.Time
}

// NewManager creates a Manager.
func NewManager(episodes episode.Store, escalator Escalator, notifier Publisher, log *zap.SugaredLogger) *Manager {
	return &Manager{
		episodes:  episodes,
		escalator: escalator,
		notifier:  notifier,
		log:       log.Named("validation"),
		now:       time.Now,
	}
}

// WithClock overrides the manager's clock; used by tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// SubmitForValidation places a triaged episode in the review queue and
// notifies supervisors. EMERGENCY episodes notify on the emergency channel.
// The episode must already carry a triage assessment. Re-submitting a queued
// episode re-sends the notification without re-queueing.
func (m *Manager) SubmitForValidation(ctx context.Context, episodeID, supervisorID string) (*SubmitResult, error) {
	ep, err := m.episodes.Get(ctx, episodeID)
	if err != nil {
		return nil, errors.Wrap(err, "loading episode for validation submit")
	}
	if ep.Triage == nil {
		return nil, faults.PreconditionFailed(fmt.Sprintf("episode %s has no triage assessment", episodeID))
	}

	if ep.QueuedAt == nil {
		now := m.now().UTC()
		ep.QueuedAt = &now
		ep.AssignedSupervisor = supervisorID
		ep.AppendInteraction("validation_queued", "system", map[string]string{
			"supervisorId": supervisorID,
			"urgencyLevel": string(ep.Triage.UrgencyLevel),
		})
		if err := m.episodes.Update(ctx, ep); err != nil {
			return nil, errors.Wrap(err, "queueing episode for validation")
		}
		metrics.ValidationQueued.WithLabelValues(string(ep.Triage.UrgencyLevel)).Inc()
	}

	m.log.Infow("Episode submitted for validation",
		"episodeId", episodeID,
		"supervisorId", ep.AssignedSupervisor,
		"urgencyLevel", ep.Triage.UrgencyLevel)

	result := &SubmitResult{
		EpisodeID:    episodeID,
		SupervisorID: ep.AssignedSupervisor,
		UrgencyLevel: ep.Triage.UrgencyLevel,
	}
	if err := m.notifier.Publish(ctx, notify.NewValidationRequired(ep)); err != nil {
		return result, errors.Wrap(err, "publishing validation request")
	}
	return result, nil
}

// RecordDecision writes a supervisor's approve/override decision. Approval
// keeps the episode ACTIVE; an override requires a reason, moves the episode
// to ESCALATED, and hands it to the escalation track. A decision is recorded
// at most once per review cycle.
func (m *Manager) RecordDecision(ctx context.Context, episodeID, supervisorID string, approved bool, overrideReason, notes string) (*DecisionResult, error) {
	if !supervisorIDPattern.MatchString(supervisorID) {
		return nil, faults.InvalidInput("invalid validation data: malformed supervisorId")
	}
	if !approved && overrideReason == "" {
		return nil, faults.InvalidInput("overrideReason is required when overriding a triage assessment")
	}

	ep, err := m.episodes.Get(ctx, episodeID)
	if err != nil {
		return nil, errors.Wrap(err, "loading episode for validation decision")
	}
	if ep.Triage == nil {
		return nil, faults.PreconditionFailed(fmt.Sprintf("episode %s has no triage assessment", episodeID))
	}
	if ep.IsValidated() {
		return nil, faults.PreconditionFailed(fmt.Sprintf("episode %s already has a validation decision", episodeID))
	}

	decision := &model.HumanValidation{
		SupervisorID:   supervisorID,
		Approved:       approved,
		OverrideReason: overrideReason,
		Timestamp:      m.now().UTC(),
		Notes:          notes,
	}
	ep.Triage.HumanValidation = decision

	newStatus := model.EpisodeActive
	if !approved {
		newStatus = model.EpisodeEscalated
	}
	ep.Status = newStatus
	ep.AppendInteraction("validation_decided", supervisorID, map[string]string{
		"approved":  fmt.Sprintf("%t", approved),
		"newStatus": string(newStatus),
	})
	if err := m.episodes.Update(ctx, ep); err != nil {
		return nil, errors.Wrap(err, "recording validation decision")
	}

	if approved {
		metrics.ValidationApproved.WithLabelValues(string(ep.Triage.UrgencyLevel)).Inc()
	} else {
		metrics.ValidationOverridden.WithLabelValues(string(ep.Triage.UrgencyLevel)).Inc()
	}
	m.log.Infow("Validation decision recorded",
		"episodeId", episodeID,
		"supervisorId", supervisorID,
		"approved", approved,
		"newStatus", newStatus)

	result := &DecisionResult{Approved: approved, NewStatus: newStatus}

	if approved {
		if err := m.notifier.Publish(ctx, notify.NewValidationCompleted(ep, decision)); err != nil {
			return result, errors.Wrap(err, "publishing validation completion")
		}
		return result, nil
	}

	// An override hands the episode to the escalation track, which carries
	// its own emergency-channel notification.
	reason := "triage assessment overridden by supervisor: " + overrideReason
	if _, err := m.escalator.ProcessEscalation(ctx, episodeID, reason, "", false); err != nil {
		return result, errors.Wrap(err, "escalating overridden episode")
	}
	return result, nil
}

// GetStatus reports whether the episode's review is still pending.
func (m *Manager) GetStatus(ctx context.Context, episodeID string) (*ValidationStatus, error) {
	ep, err := m.episodes.Get(ctx, episodeID)
	if err != nil {
		return nil, errors.Wrap(err, "loading episode for validation status")
	}
	if !ep.IsValidated() {
		return &ValidationStatus{ValidationStatus: "pending"}, nil
	}
	return &ValidationStatus{
		ValidationStatus: "completed",
		Validation:       ep.Triage.HumanValidation,
	}, nil
}

// GetQueue lists episodes queued and not yet validated, most urgent first
// and first-in-first-served within an urgency. A limit of zero or less
// returns the whole queue.
func (m *Manager) GetQueue(ctx context.Context, filter QueueFilter, limit int) ([]QueueItem, error) {
	eps, err := m.episodes.List(ctx, func(ep *model.Episode) bool {
		if ep.QueuedAt == nil || ep.IsValidated() || ep.Triage == nil {
			return false
		}
		if filter.SupervisorID != "" && ep.AssignedSupervisor != filter.SupervisorID {
			return false
		}
		if filter.UrgencyLevel != "" && ep.Triage.UrgencyLevel != filter.UrgencyLevel {
			return false
		}
		return true
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing validation queue")
	}

	now := m.now()
	items := make([]QueueItem, 0, len(eps))
	for _, ep := range eps {
		items = append(items, QueueItem{
			EpisodeID:          ep.EpisodeID,
			PatientID:          ep.PatientID,
			UrgencyLevel:       ep.Triage.UrgencyLevel,
			AssignedSupervisor: ep.AssignedSupervisor,
			QueuedAt:           *ep.QueuedAt,
			WaitMinutes:        int(now.Sub(*ep.QueuedAt).Minutes()),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].UrgencyLevel.Rank() != items[j].UrgencyLevel.Rank() {
			return items[i].UrgencyLevel.Rank() > items[j].UrgencyLevel.Rank()
		}
		return items[i].QueuedAt.Before(items[j].QueuedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Stats counts the queue per urgency for the queue_status_update message.
func (m *Manager) Stats(ctx context.Context) (notify.QueueStats, error) {
	items, err := m.GetQueue(ctx, QueueFilter{}, 0)
	if err != nil {
		return notify.QueueStats{}, err
	}
	stats := notify.QueueStats{
		Total:     len(items),
		ByUrgency: make(map[model.UrgencyLevel]int),
	}
	for _, item := range items {
		stats.ByUrgency[item.UrgencyLevel]++
	}
	return stats, nil
}

// PublishQueueStatus publishes a queue_status_update to the general channel.
func (m *Manager) PublishQueueStatus(ctx context.Context) error {
	stats, err := m.Stats(ctx)
	if err != nil {
		return err
	}
	if err := m.notifier.Publish(ctx, notify.NewQueueStatusUpdate(stats)); err != nil {
		return errors.Wrap(err, "publishing queue status")
	}
	return nil
}
