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

package model

import "time"

// AlertSeverity is the coarse emergency tier driving supervisor fan-out.
// It is independent of the escalation ladder's EscalationLevel.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityHigh     AlertSeverity = "high"
	SeverityMedium   AlertSeverity = "medium"
)

// Valid reports whether s is one of the defined severity tiers.
func (s AlertSeverity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium:
		return true
	}
	return false
}

// Rank orders severities for queueing; higher is more severe.
func (s AlertSeverity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// AlertStatus is the lifecycle state of an emergency alert.
type AlertStatus string

const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

// EmergencyAlert is raised for episodes flagged EMERGENCY, independent of
// any escalation protocol. Alerts are historical records and never deleted.
type EmergencyAlert struct {
	AlertID             string            `json:"alertId"`
	EpisodeID           string            `json:"episodeId"`
	AlertType           string            `json:"alertType"`
	Severity            AlertSeverity     `json:"severity"`
	AssignedSupervisors []string          `json:"assignedSupervisors"`
	Status              AlertStatus       `json:"status"`
	CreatedAt           time.Time         `json:"createdAt"`
	AdditionalInfo      map[string]string `json:"additionalInfo,omitempty"`
}
