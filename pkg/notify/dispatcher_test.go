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

package notify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/telekom/careflow/pkg/faults"
	"github.com/telekom/careflow/pkg/model"
)

type recordingPersonal struct {
	enqueued [][]string
	failFor  map[string]bool
}

func (r *recordingPersonal) Enqueue(id string, receivers []string, subject, body string) error {
	if r.failFor != nil && len(receivers) == 1 && r.failFor[receivers[0]] {
		return fmt.Errorf("recipient rejected")
	}
	r.enqueued = append(r.enqueued, receivers)
	return nil
}

func emergencyEpisode() *model.Episode {
	return &model.Episode{
		EpisodeID: "ep-1",
		PatientID: "pat-1",
		Symptoms:  model.Symptoms{PrimaryComplaint: "severe chest pain", Severity: 9, Duration: "20m"},
		Triage:    &model.Triage{UrgencyLevel: model.UrgencyEmergency, FinalScore: 92, RuleScore: 88},
		CreatedAt: time.Now().Add(-10 * time.Minute),
		UpdatedAt: time.Now(),
	}
}

func TestPublishPrimaryAndFanOut(t *testing.T) {
	bus := NewMemoryBus()
	personal := &recordingPersonal{}
	d := NewDispatcher(bus, personal, "care.example", zaptest.NewLogger(t).Sugar())

	ep := emergencyEpisode()
	alert := &model.EmergencyAlert{
		AlertID:             "al-1",
		EpisodeID:           ep.EpisodeID,
		AlertType:           "cardiac",
		Severity:            model.SeverityCritical,
		AssignedSupervisors: []string{"sup-a", "sup-b", "sup-c"},
		Status:              model.AlertActive,
	}

	require.NoError(t, d.Publish(context.Background(), NewEmergencyAlert(ep, alert, 2)))

	published := bus.MessagesOn(ChannelEmergency)
	require.Len(t, published, 1)
	assert.Contains(t, published[0].Subject, "EMERGENCY:")
	assert.Contains(t, published[0].Subject, "ep-1")
	assert.Contains(t, published[0].Body, "Patient: pat-1")
	assert.Contains(t, published[0].Body, "Response target: 2 minutes")
	assert.Equal(t, "emergency_alert", published[0].Attributes["notificationType"])

	// One personal copy per supervisor, domain appended
	require.Len(t, personal.enqueued, 3)
	assert.Equal(t, []string{"sup-a@care.example"}, personal.enqueued[0])
}

func TestPublishPrimaryFailurePropagates(t *testing.T) {
	bus := NewMemoryBus()
	bus.FailWith(fmt.Errorf("broker down"))
	personal := &recordingPersonal{}
	d := NewDispatcher(bus, personal, "", zaptest.NewLogger(t).Sugar())

	err := d.Publish(context.Background(), NewQueueStatusUpdate(QueueStats{Total: 3}))
	require.Error(t, err)
	assert.True(t, faults.IsDependency(err))
	// No fan-out after a failed primary publish
	assert.Empty(t, personal.enqueued)
}

func TestFanOutFailureIsSwallowed(t *testing.T) {
	bus := NewMemoryBus()
	personal := &recordingPersonal{failFor: map[string]bool{"sup-b": true}}
	d := NewDispatcher(bus, personal, "", zaptest.NewLogger(t).Sugar())

	ep := emergencyEpisode()
	proto := &model.EscalationProtocol{
		EscalationID:        "esc-1",
		EpisodeID:           ep.EpisodeID,
		Level:               model.LevelCritical,
		Reason:              "critical emergency symptoms detected",
		UrgentResponse:      true,
		AssignedSupervisors: []string{"sup-a", "sup-b", "sup-c"},
	}

	require.NoError(t, d.Publish(context.Background(), NewEscalationRequired(ep, proto, 2)))
	// sup-b failed but sup-a and sup-c still went out
	assert.Len(t, personal.enqueued, 2)
}

func TestValidationRequiredChannelSelection(t *testing.T) {
	ep := emergencyEpisode()
	msg := NewValidationRequired(ep)
	assert.Equal(t, ChannelEmergency, msg.Channel)
	assert.Contains(t, msg.Subject, "immediate review")
	assert.Equal(t, "true", msg.Attributes["immediate"])

	ep.Triage.UrgencyLevel = model.UrgencyRoutine
	msg = NewValidationRequired(ep)
	assert.Equal(t, ChannelGeneral, msg.Channel)
	assert.NotContains(t, msg.Subject, "EMERGENCY")
}

func TestMessageBodiesCarryRequiredFields(t *testing.T) {
	ep := emergencyEpisode()
	confidence := 0.55
	ep.Triage.AI = model.AIAssessment{Used: true, Confidence: &confidence, Reasoning: "pattern match"}

	msg := NewValidationRequired(ep)
	assert.Contains(t, msg.Body, "Episode: ep-1")
	assert.Contains(t, msg.Body, "Patient: pat-1")
	assert.Contains(t, msg.Body, "Urgency: EMERGENCY")
	assert.Contains(t, msg.Body, "Supervisors: unassigned")
	assert.Contains(t, msg.Body, "severe chest pain")
	assert.Contains(t, msg.Body, "confidence 0.55")
}

func TestEscalationRequiredBackupLevel(t *testing.T) {
	ep := emergencyEpisode()
	proto := &model.EscalationProtocol{Level: model.Level2, AssignedSupervisors: []string{"sup-a"}}
	msg := NewEscalationRequired(ep, proto, 15)
	assert.Contains(t, msg.Body, "Backup level: level-3")

	proto.Level = model.LevelCritical
	msg = NewEscalationRequired(ep, proto, 2)
	assert.Contains(t, msg.Body, "Backup level: none")
}
