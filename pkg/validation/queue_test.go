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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/telekom/careflow/pkg/episode"
	"github.com/telekom/careflow/pkg/escalation"
	"github.com/telekom/careflow/pkg/faults"
	"github.com/telekom/careflow/pkg/model"
	"github.com/telekom/careflow/pkg/notify"
)

type recordingPublisher struct {
	messages []notify.Message
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, msg notify.Message) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

type recordingEscalator struct {
	calls []string
	err   error
}

func (e *recordingEscalator) ProcessEscalation(_ context.Context, episodeID, reason string, _ model.EscalationLevel, _ bool) (*escalation.Result, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.calls = append(e.calls, episodeID+": "+reason)
	return &escalation.Result{Level: model.Level1}, nil
}

type fixture struct {
	episodes  *episode.MemoryStore
	publisher *recordingPublisher
	escalator *recordingEscalator
	manager   *Manager
	clock     *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Now().UTC()
	f := &fixture{
		episodes:  episode.NewMemoryStore(),
		publisher: &recordingPublisher{},
		escalator: &recordingEscalator{},
		clock:     &now,
	}
	f.manager = NewManager(f.episodes, f.escalator, f.publisher, zaptest.NewLogger(t).Sugar()).
		WithClock(func() time.Time { return *f.clock })
	return f
}

func (f *fixture) createEpisode(t *testing.T, id string, urgency model.UrgencyLevel) {
	t.Helper()
	ep := &model.Episode{
		EpisodeID: id,
		PatientID: "pat-" + id,
		Status:    model.EpisodeActive,
		Symptoms:  model.Symptoms{PrimaryComplaint: "headache", Severity: 4, Duration: "2h"},
		CreatedAt: *f.clock,
	}
	if urgency != "" {
		ep.Triage = &model.Triage{UrgencyLevel: urgency, RuleScore: 40, FinalScore: 45}
	}
	require.NoError(t, f.episodes.Create(context.Background(), ep))
}

func TestSubmitForValidation(t *testing.T) {
	f := newFixture(t)
	f.createEpisode(t, "ep-001", model.UrgencyUrgent)

	got, err := f.manager.SubmitForValidation(context.Background(), "ep-001", "sup-telehealth-001")
	require.NoError(t, err)
	assert.Equal(t, "sup-telehealth-001", got.SupervisorID)
	assert.Equal(t, model.UrgencyUrgent, got.UrgencyLevel)

	ep, err := f.episodes.Get(context.Background(), "ep-001")
	require.NoError(t, err)
	require.NotNil(t, ep.QueuedAt)
	assert.Equal(t, "sup-telehealth-001", ep.AssignedSupervisor)

	require.Len(t, f.publisher.messages, 1)
	msg := f.publisher.messages[0]
	assert.Equal(t, notify.KindValidationRequired, msg.Kind)
	assert.Equal(t, notify.ChannelGeneral, msg.Channel)
}

func TestSubmitForValidationEmergencyChannel(t *testing.T) {
	f := newFixture(t)
	f.createEpisode(t, "ep-001", model.UrgencyEmergency)

	_, err := f.manager.SubmitForValidation(context.Background(), "ep-001", "sup-telehealth-001")
	require.NoError(t, err)

	require.Len(t, f.publisher.messages, 1)
	assert.Equal(t, notify.ChannelEmergency, f.publisher.messages[0].Channel)
	assert.Contains(t, f.publisher.messages[0].Subject, "immediate")
}

func TestSubmitForValidationWithoutTriage(t *testing.T) {
	f := newFixture(t)
	f.createEpisode(t, "ep-001", "")

	_, err := f.manager.SubmitForValidation(context.Background(), "ep-001", "sup-telehealth-001")
	assert.True(t, faults.IsPreconditionFailed(err))
	assert.Empty(t, f.publisher.messages)

	_, err = f.manager.SubmitForValidation(context.Background(), "ep-missing", "sup-telehealth-001")
	assert.True(t, faults.IsNotFound(err))
}

func TestSubmitForValidationIdempotentQueueing(t *testing.T) {
	f := newFixture(t)
	f.createEpisode(t, "ep-001", model.UrgencyRoutine)
	ctx := context.Background()

	_, err := f.manager.SubmitForValidation(ctx, "ep-001", "sup-telehealth-001")
	require.NoError(t, err)
	queuedAt := func() time.Time {
		ep, err := f.episodes.Get(ctx, "ep-001")
		require.NoError(t, err)
		return *ep.QueuedAt
	}()

	*f.clock = f.clock.Add(5 * time.Minute)
	_, err = f.manager.SubmitForValidation(ctx, "ep-001", "sup-clinical-lead-001")
	require.NoError(t, err)

	ep, err := f.episodes.Get(ctx, "ep-001")
	require.NoError(t, err)
	// The original queue slot and assignment survive; only the
	// notification repeats.
	assert.Equal(t, queuedAt, *ep.QueuedAt)
	assert.Equal(t, "sup-telehealth-001", ep.AssignedSupervisor)
	assert.Len(t, f.publisher.messages, 2)
}

func TestRecordDecisionApproved(t *testing.T) {
	f := newFixture(t)
	f.createEpisode(t, "ep-001", model.UrgencyUrgent)

	got, err := f.manager.RecordDecision(context.Background(), "ep-001", "sup-telehealth-001", true, "", "looks right")
	require.NoError(t, err)
	assert.True(t, got.Approved)
	assert.Equal(t, model.EpisodeActive, got.NewStatus)

	ep, err := f.episodes.Get(context.Background(), "ep-001")
	require.NoError(t, err)
	require.True(t, ep.IsValidated())
	assert.True(t, ep.Triage.HumanValidation.Approved)
	assert.Equal(t, "looks right", ep.Triage.HumanValidation.Notes)

	require.Len(t, f.publisher.messages, 1)
	assert.Equal(t, notify.KindValidationCompleted, f.publisher.messages[0].Kind)
	assert.Empty(t, f.escalator.calls)
}

func TestRecordDecisionOverride(t *testing.T) {
	f := newFixture(t)
	f.createEpisode(t, "ep-001", model.UrgencyUrgent)

	got, err := f.manager.RecordDecision(context.Background(), "ep-001", "sup-telehealth-001", false, "patient deteriorating", "")
	require.NoError(t, err)
	assert.False(t, got.Approved)
	assert.Equal(t, model.EpisodeEscalated, got.NewStatus)

	ep, err := f.episodes.Get(context.Background(), "ep-001")
	require.NoError(t, err)
	assert.Equal(t, model.EpisodeEscalated, ep.Status)
	assert.Equal(t, "patient deteriorating", ep.Triage.HumanValidation.OverrideReason)

	// Overrides go to the escalation track instead of the plain completion
	// notification.
	require.Len(t, f.escalator.calls, 1)
	assert.Contains(t, f.escalator.calls[0], "patient deteriorating")
	assert.Empty(t, f.publisher.messages)
}

func TestRecordDecisionMissingOverrideReason(t *testing.T) {
	f := newFixture(t)
	f.createEpisode(t, "ep-001", model.UrgencyUrgent)

	_, err := f.manager.RecordDecision(context.Background(), "ep-001", "sup-telehealth-001", false, "", "")
	assert.True(t, faults.IsInvalidInput(err))

	// The failed decision must not have touched the episode.
	ep, err := f.episodes.Get(context.Background(), "ep-001")
	require.NoError(t, err)
	assert.False(t, ep.IsValidated())
	assert.Equal(t, model.EpisodeActive, ep.Status)
}

func TestRecordDecisionMalformedSupervisor(t *testing.T) {
	f := newFixture(t)
	f.createEpisode(t, "ep-001", model.UrgencyUrgent)

	for _, id := range []string{"", "sup visor", "sup;drop", ".leading"} {
		_, err := f.manager.RecordDecision(context.Background(), "ep-001", id, true, "", "")
		assert.True(t, faults.IsInvalidInput(err), "supervisorId %q", id)
	}
}

func TestRecordDecisionOnlyOnce(t *testing.T) {
	f := newFixture(t)
	f.createEpisode(t, "ep-001", model.UrgencyUrgent)
	ctx := context.Background()

	_, err := f.manager.RecordDecision(ctx, "ep-001", "sup-telehealth-001", true, "", "")
	require.NoError(t, err)

	_, err = f.manager.RecordDecision(ctx, "ep-001", "sup-clinical-lead-001", false, "changed my mind", "")
	assert.True(t, faults.IsPreconditionFailed(err))
}

func TestGetStatus(t *testing.T) {
	f := newFixture(t)
	f.createEpisode(t, "ep-001", model.UrgencyUrgent)
	ctx := context.Background()

	status, err := f.manager.GetStatus(ctx, "ep-001")
	require.NoError(t, err)
	assert.Equal(t, "pending", status.ValidationStatus)
	assert.Nil(t, status.Validation)

	_, err = f.manager.RecordDecision(ctx, "ep-001", "sup-telehealth-001", true, "", "")
	require.NoError(t, err)

	status, err = f.manager.GetStatus(ctx, "ep-001")
	require.NoError(t, err)
	assert.Equal(t, "completed", status.ValidationStatus)
	require.NotNil(t, status.Validation)
	assert.Equal(t, "sup-telehealth-001", status.Validation.SupervisorID)
}

func TestGetQueueOrderingAndFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createEpisode(t, "ep-routine", model.UrgencyRoutine)
	_, err := f.manager.SubmitForValidation(ctx, "ep-routine", "sup-telehealth-001")
	require.NoError(t, err)

	*f.clock = f.clock.Add(time.Minute)
	f.createEpisode(t, "ep-urgent-old", model.UrgencyUrgent)
	_, err = f.manager.SubmitForValidation(ctx, "ep-urgent-old", "sup-telehealth-001")
	require.NoError(t, err)

	*f.clock = f.clock.Add(time.Minute)
	f.createEpisode(t, "ep-urgent-new", model.UrgencyUrgent)
	_, err = f.manager.SubmitForValidation(ctx, "ep-urgent-new", "sup-clinical-lead-001")
	require.NoError(t, err)

	queue, err := f.manager.GetQueue(ctx, QueueFilter{}, 0)
	require.NoError(t, err)
	require.Len(t, queue, 3)
	assert.Equal(t, "ep-urgent-old", queue[0].EpisodeID)
	assert.Equal(t, "ep-urgent-new", queue[1].EpisodeID)
	assert.Equal(t, "ep-routine", queue[2].EpisodeID)

	queue, err = f.manager.GetQueue(ctx, QueueFilter{SupervisorID: "sup-clinical-lead-001"}, 0)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "ep-urgent-new", queue[0].EpisodeID)

	queue, err = f.manager.GetQueue(ctx, QueueFilter{UrgencyLevel: model.UrgencyRoutine}, 0)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "ep-routine", queue[0].EpisodeID)

	queue, err = f.manager.GetQueue(ctx, QueueFilter{}, 2)
	require.NoError(t, err)
	assert.Len(t, queue, 2)

	// Validated episodes leave the queue.
	_, err = f.manager.RecordDecision(ctx, "ep-urgent-old", "sup-telehealth-001", true, "", "")
	require.NoError(t, err)
	queue, err = f.manager.GetQueue(ctx, QueueFilter{}, 0)
	require.NoError(t, err)
	assert.Len(t, queue, 2)
}

func TestPublishQueueStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createEpisode(t, "ep-001", model.UrgencyUrgent)
	_, err := f.manager.SubmitForValidation(ctx, "ep-001", "sup-telehealth-001")
	require.NoError(t, err)
	f.createEpisode(t, "ep-002", model.UrgencyRoutine)
	_, err = f.manager.SubmitForValidation(ctx, "ep-002", "sup-telehealth-001")
	require.NoError(t, err)

	require.NoError(t, f.manager.PublishQueueStatus(ctx))

	last := f.publisher.messages[len(f.publisher.messages)-1]
	assert.Equal(t, notify.KindQueueStatusUpdate, last.Kind)
	assert.Equal(t, notify.ChannelGeneral, last.Channel)
	assert.Contains(t, last.Subject, "2 pending")
	assert.Contains(t, last.Body, "URGENT: 1")
}
