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
	"context"
	"fmt"
	"sync"
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

// warningThreshold is the fraction of the timeout budget after which a
// timeout_warning notification goes out for a still-active escalation.
const warningThreshold = 0.8

// Publisher delivers formatted notifications. notify.Dispatcher satisfies it.
type Publisher interface {
	Publish(ctx context.Context, msg notify.Message) error
}

// Result is the outcome of ProcessEscalation.
type Result struct {
	Protocol                *model.EscalationProtocol
	Level                   model.EscalationLevel
	AssignedSupervisors     []string
	ExpectedResponseMinutes int
}

// Coordinator orchestrates escalation protocols: creation, status
// transitions, and timeout-driven re-escalation. Each operation is a
// stateless unit of work over the stores; the timeout sweep is driven by an
// external ticker.
type Coordinator struct {
	episodes  episode.Store
	protocols ProtocolStore
	policy    config.Policy
	notifier  Publisher
	log       *zap.SugaredLogger
	now       func() time.Time

	warnedMu sync.Mutex
	warned   map[string]bool
}

// NewCoordinator creates a Coordinator. The policy must have defaults
// applied.
func NewCoordinator(episodes episode.Store, protocols ProtocolStore, policy config.Policy, notifier Publisher, log *zap.SugaredLogger) *Coordinator {
	return &Coordinator{
		episodes:  episodes,
		protocols: protocols,
		policy:    policy,
		notifier:  notifier,
		log:       log.Named("escalation"),
		now:       time.Now,
		warned:    make(map[string]bool),
	}
}

// WithClock overrides the coordinator's clock; used by tests.
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// ProcessEscalation creates a new escalation protocol for the episode at the
// given level (or a level derived from the episode's urgency when
// targetLevel is not a valid level) and notifies the level's roster.
// ProcessEscalation is not idempotent: every call creates a new protocol
// record; at-most-once semantics per trigger are the caller's concern.
func (c *Coordinator) ProcessEscalation(ctx context.Context, episodeID, reason string, targetLevel model.EscalationLevel, urgentResponse bool) (*Result, error) {
	ep, err := c.episodes.Get(ctx, episodeID)
	if err != nil {
		return nil, errors.Wrap(err, "loading episode for escalation")
	}

	level := targetLevel
	if !level.Valid() {
		level = deriveLevel(ep)
	}
	levelPolicy := c.policy.EscalationLevels[string(level)]

	now := c.now().UTC()
	proto := &model.EscalationProtocol{
		EscalationID:        "esc-" + uuid.NewString(),
		EpisodeID:           episodeID,
		Level:               level,
		Reason:              reason,
		UrgentResponse:      urgentResponse,
		Status:              model.ProtocolActive,
		AssignedSupervisors: append([]string(nil), levelPolicy.Supervisors...),
		EscalationPath:      pathFrom(level),
		TimeoutMinutes:      levelPolicy.TimeoutMinutes,
		CreatedAt:           now,
	}

	if err := c.protocols.Save(ctx, proto); err != nil {
		return nil, errors.Wrap(err, "saving escalation protocol")
	}

	// Refresh after an embedded save, which writes through the episode.
	ep, err = c.episodes.Get(ctx, episodeID)
	if err != nil {
		return nil, errors.Wrap(err, "reloading episode after escalation save")
	}
	ep.CurrentEscalation = proto.EscalationID
	ep.EscalationLevel = level
	ep.EscalationStatus = model.ProtocolActive
	if urgentResponse {
		ep.Status = model.EpisodeEscalated
	}
	ep.AppendInteraction("escalation_triggered", "system", map[string]string{
		"escalationId": proto.EscalationID,
		"level":        string(level),
		"reason":       reason,
	})
	if err := c.episodes.Update(ctx, ep); err != nil {
		return nil, errors.Wrap(err, "updating episode with escalation")
	}

	metrics.EscalationCreated.WithLabelValues(string(level)).Inc()
	c.log.Infow("Escalation created",
		"escalationId", proto.EscalationID,
		"episodeId", episodeID,
		"level", level,
		"urgentResponse", urgentResponse,
		"timeoutMinutes", proto.TimeoutMinutes,
		"supervisors", len(proto.AssignedSupervisors))

	expected := proto.TimeoutMinutes
	if urgentResponse {
		expected /= 2
	}

	result := &Result{
		Protocol:                proto,
		Level:                   level,
		AssignedSupervisors:     proto.AssignedSupervisors,
		ExpectedResponseMinutes: expected,
	}

	if err := c.notifier.Publish(ctx, notify.NewEscalationRequired(ep, proto, expected)); err != nil {
		// State is already mutated; the record stands and the operator can
		// re-trigger the notification.
		return result, errors.Wrap(err, "publishing escalation notification")
	}
	return result, nil
}

// deriveLevel picks a level from the episode's urgency and severity when the
// caller did not name one.
func deriveLevel(ep *model.Episode) model.EscalationLevel {
	if ep.Triage == nil {
		return model.Level1
	}
	switch ep.Triage.UrgencyLevel {
	case model.UrgencyEmergency:
		if ep.Symptoms.Severity >= 9 {
			return model.LevelCritical
		}
		return model.Level2
	case model.UrgencyUrgent:
		return model.Level1
	default:
		return model.Level1
	}
}

// pathFrom lists the ladder from the given level up to critical.
func pathFrom(level model.EscalationLevel) []model.EscalationLevel {
	var path []model.EscalationLevel
	for _, l := range model.Levels() {
		if l.Rank() >= level.Rank() {
			path = append(path, l)
		}
	}
	return path
}

// UpdateEscalationStatus transitions a protocol to in-progress, completed,
// or failed. Writing an identical terminal status again is a no-op; any
// other transition out of a terminal status is rejected.
func (c *Coordinator) UpdateEscalationStatus(ctx context.Context, escalationID string, status model.ProtocolStatus, failureReason string) error {
	switch status {
	case model.ProtocolInProgress, model.ProtocolCompleted, model.ProtocolFailed:
	default:
		return faults.InvalidInput(fmt.Sprintf("invalid escalation status: %s", status))
	}

	proto, err := c.protocols.Get(ctx, escalationID)
	if err != nil {
		return errors.Wrap(err, "loading escalation for status update")
	}
	if proto.Status.Terminal() {
		if proto.Status == status {
			return nil
		}
		return faults.PreconditionFailed(fmt.Sprintf("escalation %s is already %s", escalationID, proto.Status))
	}

	proto.Status = status
	if status == model.ProtocolCompleted {
		now := c.now().UTC()
		proto.CompletedAt = &now
		metrics.EscalationCompleted.WithLabelValues(string(proto.Level)).Inc()
	}
	if status == model.ProtocolFailed {
		proto.FailureReason = failureReason
		metrics.EscalationFailed.WithLabelValues(string(proto.Level)).Inc()
	}

	if err := c.protocols.Update(ctx, proto); err != nil {
		return errors.Wrap(err, "updating escalation status")
	}
	c.mirrorEpisodeStatus(ctx, proto)

	c.log.Infow("Escalation status updated",
		"escalationId", escalationID,
		"status", status,
		"failureReason", failureReason)
	return nil
}

// mirrorEpisodeStatus keeps the episode's fast-read escalation fields in
// sync with its current protocol. Failures are logged only; the protocol
// record is authoritative.
func (c *Coordinator) mirrorEpisodeStatus(ctx context.Context, proto *model.EscalationProtocol) {
	ep, err := c.episodes.Get(ctx, proto.EpisodeID)
	if err != nil || ep.CurrentEscalation != proto.EscalationID {
		return
	}
	ep.EscalationStatus = proto.Status
	if err := c.episodes.Update(ctx, ep); err != nil {
		c.log.Warnw("Failed to mirror escalation status onto episode",
			"episodeId", proto.EpisodeID,
			"escalationId", proto.EscalationID,
			"error", err)
	}
}

// GetActiveEscalations returns the episode's protocols that are still open.
func (c *Coordinator) GetActiveEscalations(ctx context.Context, episodeID string) ([]model.EscalationProtocol, error) {
	all, err := c.protocols.ListByEpisode(ctx, episodeID)
	if err != nil {
		return nil, errors.Wrap(err, "listing escalations for episode")
	}
	out := make([]model.EscalationProtocol, 0, len(all))
	for _, p := range all {
		if p.Status == model.ProtocolActive || p.Status == model.ProtocolInProgress {
			out = append(out, p)
		}
	}
	return out, nil
}

// CheckEscalationTimeouts sweeps all active protocols. Protocols past their
// timeout are re-escalated to the successor level with an urgent response
// and then marked failed; a critical protocol has no successor and simply
// fails, remaining visible to its already-assigned top-tier roster.
// The sweep runs on an external schedule that must be shorter than the
// smallest configured timeout.
func (c *Coordinator) CheckEscalationTimeouts(ctx context.Context) error {
	active, err := c.protocols.ListActive(ctx)
	if err != nil {
		return errors.Wrap(err, "listing active escalations")
	}

	now := c.now()
	for i := range active {
		proto := active[i]
		if !proto.TimedOut(now) {
			c.maybeWarn(ctx, &proto, now)
			continue
		}

		metrics.EscalationTimedOut.WithLabelValues(string(proto.Level)).Inc()
		c.log.Warnw("Escalation timed out",
			"escalationId", proto.EscalationID,
			"episodeId", proto.EpisodeID,
			"level", proto.Level,
			"timeoutMinutes", proto.TimeoutMinutes)

		if next, ok := proto.Level.Next(); ok {
			reason := fmt.Sprintf("no response within %d minutes at %s, re-escalating", proto.TimeoutMinutes, proto.Level)
			if _, err := c.ProcessEscalation(ctx, proto.EpisodeID, reason, next, true); err != nil {
				c.log.Errorw("Failed to re-escalate after timeout",
					"escalationId", proto.EscalationID,
					"episodeId", proto.EpisodeID,
					"nextLevel", next,
					"error", err)
			}
		}

		// The timed-out protocol fails regardless of whether a successor
		// level existed.
		if err := c.UpdateEscalationStatus(ctx, proto.EscalationID, model.ProtocolFailed, "timeout exceeded"); err != nil {
			c.log.Errorw("Failed to mark timed-out escalation failed",
				"escalationId", proto.EscalationID,
				"error", err)
		}
		c.clearWarned(proto.EscalationID)
	}
	return nil
}

// maybeWarn emits a single timeout_warning once a protocol passes the
// warning threshold of its budget.
func (c *Coordinator) maybeWarn(ctx context.Context, proto *model.EscalationProtocol, now time.Time) {
	budget := time.Duration(proto.TimeoutMinutes) * time.Minute
	elapsed := now.Sub(proto.CreatedAt)
	if elapsed < time.Duration(float64(budget)*warningThreshold) {
		return
	}

	c.warnedMu.Lock()
	already := c.warned[proto.EscalationID]
	c.warned[proto.EscalationID] = true
	c.warnedMu.Unlock()
	if already {
		return
	}

	ep, err := c.episodes.Get(ctx, proto.EpisodeID)
	if err != nil {
		c.log.Warnw("Failed to load episode for timeout warning",
			"episodeId", proto.EpisodeID, "error", err)
		return
	}
	remaining := int((budget - elapsed).Minutes())
	if err := c.notifier.Publish(ctx, notify.NewTimeoutWarning(ep, proto, remaining)); err != nil {
		c.log.Warnw("Failed to publish timeout warning",
			"escalationId", proto.EscalationID, "error", err)
	}
}

func (c *Coordinator) clearWarned(escalationID string) {
	c.warnedMu.Lock()
	delete(c.warned, escalationID)
	c.warnedMu.Unlock()
}
