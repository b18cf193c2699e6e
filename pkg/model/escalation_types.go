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

// EscalationLevel is one rung of the escalation ladder, distinct from the
// triage urgency level. Levels are totally ordered:
// level-1 < level-2 < level-3 < critical.
type EscalationLevel string

const (
	Level1        EscalationLevel = "level-1"
	Level2        EscalationLevel = "level-2"
	Level3        EscalationLevel = "level-3"
	LevelCritical EscalationLevel = "critical"
)

// Levels lists all escalation levels in ascending order.
func Levels() []EscalationLevel {
	return []EscalationLevel{Level1, Level2, Level3, LevelCritical}
}

// Valid reports whether l is one of the four defined levels.
func (l EscalationLevel) Valid() bool {
	switch l {
	case Level1, Level2, Level3, LevelCritical:
		return true
	}
	return false
}

// Rank returns the position of the level in the ladder, starting at 1.
// Unknown levels rank 0.
func (l EscalationLevel) Rank() int {
	switch l {
	case Level1:
		return 1
	case Level2:
		return 2
	case Level3:
		return 3
	case LevelCritical:
		return 4
	default:
		return 0
	}
}

// Next returns the successor level and true, or false for critical, which
// has no successor.
func (l EscalationLevel) Next() (EscalationLevel, bool) {
	switch l {
	case Level1:
		return Level2, true
	case Level2:
		return Level3, true
	case Level3:
		return LevelCritical, true
	default:
		return "", false
	}
}

// ProtocolStatus is the lifecycle state of an escalation protocol.
// Completed and failed are terminal.
type ProtocolStatus string

const (
	ProtocolActive     ProtocolStatus = "active"
	ProtocolInProgress ProtocolStatus = "in-progress"
	ProtocolCompleted  ProtocolStatus = "completed"
	ProtocolFailed     ProtocolStatus = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s ProtocolStatus) Terminal() bool {
	return s == ProtocolCompleted || s == ProtocolFailed
}

// EscalationProtocol is one escalation attempt for an episode. An episode
// may accumulate a chain of protocols, each strictly later and at an
// equal-or-higher level than its predecessor. Protocols are historical
// records: they are mutated only through status transitions, never deleted.
type EscalationProtocol struct {
	EscalationID string          `json:"escalationId"`
	EpisodeID    string          `json:"episodeId"`
	Level        EscalationLevel `json:"escalationLevel"`
	Reason       string          `json:"reason"`

	UrgentResponse bool           `json:"urgentResponse"`
	Status         ProtocolStatus `json:"status"`

	AssignedSupervisors []string          `json:"assignedSupervisors"`
	EscalationPath      []EscalationLevel `json:"escalationPath"`
	TimeoutMinutes      int               `json:"timeoutMinutes"`

	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	FailureReason string     `json:"failureReason,omitempty"`
}

// TimedOut reports whether the protocol's timeout budget has elapsed at the
// given instant. Only meaningful for active protocols.
func (p *EscalationProtocol) TimedOut(now time.Time) bool {
	return now.Sub(p.CreatedAt) > time.Duration(p.TimeoutMinutes)*time.Minute
}
