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

// Package escalation implements the escalation ladder: the assessor decides
// whether an episode needs escalating, the coordinator drives protocols
// through their lifecycle and re-escalates on timeout.
package escalation

import (
	"strings"
	"time"

	"github.com/telekom/careflow/pkg/config"
	"github.com/telekom/careflow/pkg/model"
)

// criticalSeverityThreshold is the symptom severity at or above which an
// EMERGENCY episode escalates straight to the critical level.
const criticalSeverityThreshold = 8

// Assessment is the assessor's decision for one episode.
type Assessment struct {
	Required       bool
	Reason         string
	TargetLevel    model.EscalationLevel
	UrgentResponse bool
	TimeoutMinutes int
}

// Assessor is the pure escalation decision function. All thresholds come
// from the injected policy tables.
type Assessor struct {
	policy config.Policy
	now    func() time.Time
}

// NewAssessor creates an Assessor over the given policy. The policy must
// have defaults applied.
func NewAssessor(policy config.Policy) *Assessor {
	return &Assessor{policy: policy, now: time.Now}
}

// WithClock overrides the assessor's clock; used by tests.
func (a *Assessor) WithClock(now func() time.Time) *Assessor {
	a.now = now
	return a
}

// Assess decides whether the episode requires escalation. Rules are
// evaluated in priority order; the first match wins. Episodes without a
// triage assessment never require escalation.
func (a *Assessor) Assess(ep *model.Episode) Assessment {
	if ep.Triage == nil {
		return Assessment{TargetLevel: model.Level1, TimeoutMinutes: a.timeoutFor(model.Level1)}
	}

	urgency := ep.Triage.UrgencyLevel
	waitExceeded := a.waitExceeded(ep, urgency)

	switch {
	case urgency == model.UrgencyEmergency && (a.hasCriticalSymptoms(ep) || ep.Symptoms.Severity >= criticalSeverityThreshold):
		return a.assessment("critical emergency symptoms detected", model.LevelCritical, true)

	case urgency == model.UrgencyEmergency && waitExceeded:
		return a.assessment("exceeded maximum wait time", model.Level2, true)

	case urgency == model.UrgencyEmergency && a.lowConfidenceAI(ep):
		return a.assessment("low-confidence AI assessment for emergency case", model.Level1, false)

	case urgency == model.UrgencyUrgent && waitExceeded:
		return a.assessment("exceeded maximum wait time", model.Level1, false)
	}

	return Assessment{}
}

func (a *Assessor) assessment(reason string, level model.EscalationLevel, urgent bool) Assessment {
	return Assessment{
		Required:       true,
		Reason:         reason,
		TargetLevel:    level,
		UrgentResponse: urgent,
		TimeoutMinutes: a.timeoutFor(level),
	}
}

// hasCriticalSymptoms matches the primary complaint against the
// life-threatening keyword list, case-insensitively.
func (a *Assessor) hasCriticalSymptoms(ep *model.Episode) bool {
	complaint := strings.ToLower(ep.Symptoms.PrimaryComplaint)
	for _, keyword := range a.policy.CriticalKeywords {
		if strings.Contains(complaint, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// waitExceeded reports whether the episode has waited past its urgency
// class's budget.
func (a *Assessor) waitExceeded(ep *model.Episode, urgency model.UrgencyLevel) bool {
	budget, ok := a.policy.MaxWaitMinutes[string(urgency)]
	if !ok {
		budget = a.policy.DefaultWait
	}
	return a.now().Sub(ep.CreatedAt) > time.Duration(budget)*time.Minute
}

func (a *Assessor) lowConfidenceAI(ep *model.Episode) bool {
	ai := ep.Triage.AI
	return ai.Used && ai.Confidence != nil && *ai.Confidence < 0.7
}

func (a *Assessor) timeoutFor(level model.EscalationLevel) int {
	if lp, ok := a.policy.EscalationLevels[string(level)]; ok && lp.TimeoutMinutes > 0 {
		return lp.TimeoutMinutes
	}
	return 10
}
