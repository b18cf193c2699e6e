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

// Package model holds the record types shared by the careflow workflow
// engine: episodes, escalation protocols, and emergency alerts. Records are
// plain data; lifecycle rules live with the coordinators that own them.
package model

import (
	"time"
)

// EpisodeStatus is the coarse lifecycle state of a patient episode.
type EpisodeStatus string

const (
	EpisodeActive    EpisodeStatus = "ACTIVE"
	EpisodeEscalated EpisodeStatus = "ESCALATED"
	EpisodeResolved  EpisodeStatus = "RESOLVED"
)

// UrgencyLevel is the triage classification assigned before the workflow
// engine runs. Levels are totally ordered for alerting priority.
type UrgencyLevel string

const (
	UrgencyEmergency UrgencyLevel = "EMERGENCY"
	UrgencyUrgent    UrgencyLevel = "URGENT"
	UrgencyRoutine   UrgencyLevel = "ROUTINE"
	UrgencySelfCare  UrgencyLevel = "SELF_CARE"
)

// Rank returns the alerting priority of the urgency level; higher is more
// urgent. Unknown levels rank below SELF_CARE.
func (u UrgencyLevel) Rank() int {
	switch u {
	case UrgencyEmergency:
		return 4
	case UrgencyUrgent:
		return 3
	case UrgencyRoutine:
		return 2
	case UrgencySelfCare:
		return 1
	default:
		return 0
	}
}

// InputMethod records how the patient supplied their symptoms.
type InputMethod string

const (
	InputText       InputMethod = "text"
	InputVoice      InputMethod = "voice"
	InputStructured InputMethod = "structured"
)

// Symptoms is the patient-reported complaint attached to an episode.
type Symptoms struct {
	PrimaryComplaint   string      `json:"primaryComplaint"`
	Duration           string      `json:"duration"`
	Severity           int         `json:"severity"` // 1-10
	AssociatedSymptoms []string    `json:"associatedSymptoms,omitempty"`
	InputMethod        InputMethod `json:"inputMethod,omitempty"`
}

// AIAssessment captures whether and how the AI engine contributed to triage.
type AIAssessment struct {
	Used       bool     `json:"used"`
	Confidence *float64 `json:"confidence,omitempty"` // 0-1
	Reasoning  string   `json:"reasoning,omitempty"`
}

// HumanValidation is a supervisor's approve/override decision on a triage
// result. OverrideReason is required when Approved is false.
type HumanValidation struct {
	SupervisorID   string    `json:"supervisorId"`
	Approved       bool      `json:"approved"`
	OverrideReason string    `json:"overrideReason,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Notes          string    `json:"notes,omitempty"`
}

// Triage is the rules/AI urgency assessment for an episode.
type Triage struct {
	UrgencyLevel    UrgencyLevel     `json:"urgencyLevel"`
	RuleScore       int              `json:"ruleScore"`  // 0-100
	FinalScore      int              `json:"finalScore"` // 0-100
	AI              AIAssessment     `json:"aiAssessment"`
	HumanValidation *HumanValidation `json:"humanValidation,omitempty"`
}

// Interaction is one entry in the episode's append-only workflow log.
// Entries are never mutated after being appended.
type Interaction struct {
	Type      string            `json:"type"`
	Actor     string            `json:"actor"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}

// EmergencyResponse records a supervisor acknowledging or resolving an
// emergency alert on an episode.
type EmergencyResponse struct {
	AlertID      string    `json:"alertId"`
	SupervisorID string    `json:"supervisorId"`
	Action       string    `json:"action"` // acknowledge | resolve
	Notes        string    `json:"notes,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Episode is one patient case moving through triage, validation, and
// potential escalation.
type Episode struct {
	EpisodeID string        `json:"episodeId"`
	PatientID string        `json:"patientId"`
	Status    EpisodeStatus `json:"status"`

	Symptoms Symptoms `json:"symptoms"`
	Triage   *Triage  `json:"triage,omitempty"`

	Interactions []Interaction `json:"interactions,omitempty"`

	// Back-references to the most recent escalation for fast reads.
	CurrentEscalation string          `json:"currentEscalation,omitempty"`
	EscalationLevel   EscalationLevel `json:"escalationLevel,omitempty"`
	EscalationStatus  ProtocolStatus  `json:"escalationStatus,omitempty"`

	// Embedded escalation history, used by the fallback storage model when
	// no dedicated protocol table is available.
	Escalations []EscalationProtocol `json:"escalations,omitempty"`

	// Emergency alert track, independent of the escalation ladder.
	EmergencyAlerts    []EmergencyAlert    `json:"emergencyAlerts,omitempty"`
	EmergencyResponses []EmergencyResponse `json:"emergencyResponses,omitempty"`

	// Validation queue bookkeeping.
	AssignedSupervisor string     `json:"assignedSupervisor,omitempty"`
	QueuedAt           *time.Time `json:"queuedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Version supports optimistic-concurrency updates in the store.
	Version int64 `json:"version"`
}

// AppendInteraction adds a workflow log entry and bumps UpdatedAt.
func (e *Episode) AppendInteraction(interactionType, actor string, details map[string]string) {
	now := time.Now().UTC()
	e.Interactions = append(e.Interactions, Interaction{
		Type:      interactionType,
		Actor:     actor,
		Timestamp: now,
		Details:   details,
	})
	e.UpdatedAt = now
}

// ActiveEmergencyAlert returns the most recent alert that is not resolved,
// or nil when none is open.
func (e *Episode) ActiveEmergencyAlert() *EmergencyAlert {
	for i := len(e.EmergencyAlerts) - 1; i >= 0; i-- {
		if e.EmergencyAlerts[i].Status != AlertResolved {
			return &e.EmergencyAlerts[i]
		}
	}
	return nil
}

// IsValidated reports whether a supervisor decision has been recorded.
func (e *Episode) IsValidated() bool {
	return e.Triage != nil && e.Triage.HumanValidation != nil
}
