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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telekom/careflow/pkg/config"
	"github.com/telekom/careflow/pkg/model"
)

func testPolicy() config.Policy {
	var p config.Policy
	p.ApplyDefaults()
	return p
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func emergencyEpisode(severity int, complaint string, created time.Time) *model.Episode {
	return &model.Episode{
		EpisodeID: "ep-001",
		PatientID: "pat-001",
		Status:    model.EpisodeActive,
		Symptoms: model.Symptoms{
			PrimaryComplaint: complaint,
			Severity:         severity,
		},
		Triage:    &model.Triage{UrgencyLevel: model.UrgencyEmergency},
		CreatedAt: created,
	}
}

func TestAssessCriticalKeyword(t *testing.T) {
	now := time.Now()
	a := NewAssessor(testPolicy()).WithClock(fixedClock(now))

	ep := emergencyEpisode(5, "sudden Chest Pain radiating to left arm", now)
	got := a.Assess(ep)

	require.True(t, got.Required)
	assert.Equal(t, model.LevelCritical, got.TargetLevel)
	assert.True(t, got.UrgentResponse)
	assert.Equal(t, "critical emergency symptoms detected", got.Reason)
	assert.Equal(t, 5, got.TimeoutMinutes)
}

func TestAssessCriticalSeverity(t *testing.T) {
	now := time.Now()
	a := NewAssessor(testPolicy()).WithClock(fixedClock(now))

	ep := emergencyEpisode(8, "abdominal discomfort", now)
	got := a.Assess(ep)

	require.True(t, got.Required)
	assert.Equal(t, model.LevelCritical, got.TargetLevel)
	assert.True(t, got.UrgentResponse)
}

func TestAssessEmergencyWaitExceeded(t *testing.T) {
	created := time.Now().Add(-6 * time.Minute)
	a := NewAssessor(testPolicy()).WithClock(fixedClock(time.Now()))

	ep := emergencyEpisode(6, "high fever", created)
	got := a.Assess(ep)

	require.True(t, got.Required)
	assert.Equal(t, model.Level2, got.TargetLevel)
	assert.True(t, got.UrgentResponse)
	assert.Equal(t, "exceeded maximum wait time", got.Reason)
	assert.Equal(t, 15, got.TimeoutMinutes)
}

func TestAssessLowConfidenceAI(t *testing.T) {
	now := time.Now()
	a := NewAssessor(testPolicy()).WithClock(fixedClock(now))

	confidence := 0.55
	ep := emergencyEpisode(6, "high fever", now)
	ep.Triage.AI = model.AIAssessment{Used: true, Confidence: &confidence}

	got := a.Assess(ep)

	require.True(t, got.Required)
	assert.Equal(t, model.Level1, got.TargetLevel)
	assert.False(t, got.UrgentResponse)
	assert.Equal(t, "low-confidence AI assessment for emergency case", got.Reason)
}

func TestAssessConfidentAINoEscalation(t *testing.T) {
	now := time.Now()
	a := NewAssessor(testPolicy()).WithClock(fixedClock(now))

	confidence := 0.92
	ep := emergencyEpisode(6, "high fever", now)
	ep.Triage.AI = model.AIAssessment{Used: true, Confidence: &confidence}

	assert.False(t, a.Assess(ep).Required)
}

func TestAssessUrgentWaitExceeded(t *testing.T) {
	now := time.Now()
	a := NewAssessor(testPolicy()).WithClock(fixedClock(now))

	ep := emergencyEpisode(5, "persistent cough", now.Add(-45*time.Minute))
	ep.Triage.UrgencyLevel = model.UrgencyUrgent
	got := a.Assess(ep)

	require.True(t, got.Required)
	assert.Equal(t, model.Level1, got.TargetLevel)
	assert.False(t, got.UrgentResponse)

	// Inside the 30 minute budget nothing triggers.
	ep.CreatedAt = now.Add(-10 * time.Minute)
	assert.False(t, a.Assess(ep).Required)
}

func TestAssessRoutineNeverEscalates(t *testing.T) {
	now := time.Now()
	a := NewAssessor(testPolicy()).WithClock(fixedClock(now))

	// ROUTINE past even its own budget matches no rule.
	ep := emergencyEpisode(9, "severe chest pain", now.Add(-3*time.Hour))
	ep.Triage.UrgencyLevel = model.UrgencyRoutine

	assert.False(t, a.Assess(ep).Required)
}

func TestAssessNoTriage(t *testing.T) {
	a := NewAssessor(testPolicy())

	got := a.Assess(&model.Episode{EpisodeID: "ep-001"})

	assert.False(t, got.Required)
	assert.Equal(t, model.Level1, got.TargetLevel)
	assert.Equal(t, 10, got.TimeoutMinutes)
}

func TestAssessRulePriority(t *testing.T) {
	// An emergency case matching both the critical-symptom rule and the
	// wait-time rule reports the critical rule, which has priority.
	now := time.Now()
	a := NewAssessor(testPolicy()).WithClock(fixedClock(now))

	ep := emergencyEpisode(9, "severe chest pain", now.Add(-20*time.Minute))
	got := a.Assess(ep)

	require.True(t, got.Required)
	assert.Equal(t, model.LevelCritical, got.TargetLevel)
	assert.Equal(t, "critical emergency symptoms detected", got.Reason)
}
