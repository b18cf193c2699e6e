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

// Package notify formats and delivers workflow notifications. Message
// construction is pure; delivery goes through a Bus for the primary channel
// and an optional per-supervisor mail fan-out.
package notify

import (
	"fmt"
	"strings"

	"github.com/telekom/careflow/pkg/model"
)

// Kind identifies the notification message type.
type Kind string

const (
	KindValidationRequired   Kind = "validation_required"
	KindEmergencyAlert       Kind = "emergency_alert"
	KindValidationCompleted  Kind = "validation_completed"
	KindEscalationRequired   Kind = "escalation_required"
	KindQueueStatusUpdate    Kind = "queue_status_update"
	KindResponseConfirmation Kind = "response_confirmation"
	KindTimeoutWarning       Kind = "timeout_warning"
)

// Channel is a logical delivery destination.
type Channel string

const (
	// ChannelGeneral carries routine validation and queue notifications.
	ChannelGeneral Channel = "general"
	// ChannelEmergency carries emergency alerts and escalations at a
	// higher subscriber priority.
	ChannelEmergency Channel = "emergency"
)

const emergencySubjectPrefix = "EMERGENCY: "

// Message is one fully formatted notification ready for delivery.
type Message struct {
	Kind        Kind
	Channel     Channel
	Subject     string
	Body        string
	Attributes  map[string]string
	Supervisors []string
}

func baseAttributes(kind Kind, ep *model.Episode) map[string]string {
	attrs := map[string]string{
		"notificationType": string(kind),
		"episodeId":        ep.EpisodeID,
	}
	if ep.Triage != nil {
		attrs["urgencyLevel"] = string(ep.Triage.UrgencyLevel)
	}
	return attrs
}

func writeHeader(b *strings.Builder, ep *model.Episode, supervisors []string) {
	fmt.Fprintf(b, "Episode: %s\n", ep.EpisodeID)
	fmt.Fprintf(b, "Patient: %s\n", ep.PatientID)
	urgency := "unknown"
	if ep.Triage != nil {
		urgency = string(ep.Triage.UrgencyLevel)
	}
	fmt.Fprintf(b, "Urgency: %s\n", urgency)
	if len(supervisors) > 0 {
		fmt.Fprintf(b, "Supervisors: %s\n", strings.Join(supervisors, ", "))
	} else {
		b.WriteString("Supervisors: unassigned\n")
	}
}

func writeSymptomSummary(b *strings.Builder, ep *model.Episode) {
	fmt.Fprintf(b, "Complaint: %s (severity %d/10, duration %s)\n",
		ep.Symptoms.PrimaryComplaint, ep.Symptoms.Severity, ep.Symptoms.Duration)
	if len(ep.Symptoms.AssociatedSymptoms) > 0 {
		fmt.Fprintf(b, "Associated symptoms: %s\n", strings.Join(ep.Symptoms.AssociatedSymptoms, ", "))
	}
}

func writeAISummary(b *strings.Builder, ep *model.Episode) {
	if ep.Triage == nil || !ep.Triage.AI.Used {
		return
	}
	if ep.Triage.AI.Confidence != nil {
		fmt.Fprintf(b, "AI assessment: confidence %.2f\n", *ep.Triage.AI.Confidence)
	} else {
		b.WriteString("AI assessment: used\n")
	}
	if ep.Triage.AI.Reasoning != "" {
		fmt.Fprintf(b, "AI reasoning: %s\n", ep.Triage.AI.Reasoning)
	}
}

func episodeSupervisors(ep *model.Episode) []string {
	if ep.AssignedSupervisor != "" {
		return []string{ep.AssignedSupervisor}
	}
	return nil
}

// NewValidationRequired builds the message sent when an episode enters the
// validation queue. EMERGENCY episodes route to the emergency channel with
// an immediate-review framing.
func NewValidationRequired(ep *model.Episode) Message {
	supervisors := episodeSupervisors(ep)
	channel := ChannelGeneral
	subject := fmt.Sprintf("Validation required for episode %s", ep.EpisodeID)
	immediate := ep.Triage != nil && ep.Triage.UrgencyLevel == model.UrgencyEmergency
	if immediate {
		channel = ChannelEmergency
		subject = emergencySubjectPrefix + subject + " - immediate review"
	}

	var b strings.Builder
	writeHeader(&b, ep, supervisors)
	writeSymptomSummary(&b, ep)
	writeAISummary(&b, ep)
	if ep.Triage != nil {
		fmt.Fprintf(&b, "Triage score: %d (rules %d)\n", ep.Triage.FinalScore, ep.Triage.RuleScore)
	}

	attrs := baseAttributes(KindValidationRequired, ep)
	attrs["immediate"] = fmt.Sprintf("%t", immediate)
	if ep.AssignedSupervisor != "" {
		attrs["supervisorId"] = ep.AssignedSupervisor
	}

	return Message{
		Kind:        KindValidationRequired,
		Channel:     channel,
		Subject:     subject,
		Body:        b.String(),
		Attributes:  attrs,
		Supervisors: supervisors,
	}
}

// NewEmergencyAlert builds the message for a freshly raised emergency alert.
func NewEmergencyAlert(ep *model.Episode, alert *model.EmergencyAlert, responseMinutes int) Message {
	subject := fmt.Sprintf("%s%s alert for episode %s", emergencySubjectPrefix, alert.AlertType, ep.EpisodeID)

	var b strings.Builder
	writeHeader(&b, ep, alert.AssignedSupervisors)
	writeSymptomSummary(&b, ep)
	fmt.Fprintf(&b, "Alert: %s (severity %s)\n", alert.AlertType, alert.Severity)
	fmt.Fprintf(&b, "Response target: %d minutes\n", responseMinutes)
	for k, v := range alert.AdditionalInfo {
		fmt.Fprintf(&b, "%s: %s\n", k, v)
	}

	attrs := baseAttributes(KindEmergencyAlert, ep)
	attrs["alertId"] = alert.AlertID
	attrs["severity"] = string(alert.Severity)

	return Message{
		Kind:        KindEmergencyAlert,
		Channel:     ChannelEmergency,
		Subject:     subject,
		Body:        b.String(),
		Attributes:  attrs,
		Supervisors: alert.AssignedSupervisors,
	}
}

// NewValidationCompleted builds the message sent after a supervisor approves
// a triage assessment.
func NewValidationCompleted(ep *model.Episode, decision *model.HumanValidation) Message {
	var b strings.Builder
	writeHeader(&b, ep, []string{decision.SupervisorID})
	fmt.Fprintf(&b, "Decision: approved\n")
	if decision.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", decision.Notes)
	}

	attrs := baseAttributes(KindValidationCompleted, ep)
	attrs["supervisorId"] = decision.SupervisorID
	attrs["approved"] = "true"

	return Message{
		Kind:       KindValidationCompleted,
		Channel:    ChannelGeneral,
		Subject:    fmt.Sprintf("Validation completed for episode %s", ep.EpisodeID),
		Body:       b.String(),
		Attributes: attrs,
	}
}

// NewEscalationRequired builds the message for a newly created escalation
// protocol. The expected response time already accounts for urgency halving.
func NewEscalationRequired(ep *model.Episode, proto *model.EscalationProtocol, expectedResponseMinutes int) Message {
	subject := fmt.Sprintf("Escalation to %s for episode %s", proto.Level, ep.EpisodeID)
	if proto.UrgentResponse {
		subject = emergencySubjectPrefix + subject
	}

	var b strings.Builder
	writeHeader(&b, ep, proto.AssignedSupervisors)
	fmt.Fprintf(&b, "Reason: %s\n", proto.Reason)
	fmt.Fprintf(&b, "Expected response: %d minutes\n", expectedResponseMinutes)
	waitMinutes := int(ep.UpdatedAt.Sub(ep.CreatedAt).Minutes())
	if waitMinutes > 0 {
		fmt.Fprintf(&b, "Patient wait so far: %d minutes\n", waitMinutes)
	}
	if next, ok := proto.Level.Next(); ok {
		fmt.Fprintf(&b, "Backup level: %s\n", next)
	} else {
		b.WriteString("Backup level: none (highest tier)\n")
	}

	attrs := baseAttributes(KindEscalationRequired, ep)
	attrs["escalationId"] = proto.EscalationID
	attrs["escalationLevel"] = string(proto.Level)
	attrs["urgentResponse"] = fmt.Sprintf("%t", proto.UrgentResponse)

	return Message{
		Kind:        KindEscalationRequired,
		Channel:     ChannelEmergency,
		Subject:     subject,
		Body:        b.String(),
		Attributes:  attrs,
		Supervisors: proto.AssignedSupervisors,
	}
}

// QueueStats summarizes the validation queue for status updates.
type QueueStats struct {
	Total     int
	ByUrgency map[model.UrgencyLevel]int
}

// NewQueueStatusUpdate builds a periodic queue statistics message.
func NewQueueStatusUpdate(stats QueueStats) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Queued episodes: %d\n", stats.Total)
	for _, u := range []model.UrgencyLevel{model.UrgencyEmergency, model.UrgencyUrgent, model.UrgencyRoutine, model.UrgencySelfCare} {
		if n := stats.ByUrgency[u]; n > 0 {
			fmt.Fprintf(&b, "%s: %d\n", u, n)
		}
	}

	return Message{
		Kind:    KindQueueStatusUpdate,
		Channel: ChannelGeneral,
		Subject: fmt.Sprintf("Validation queue status: %d pending", stats.Total),
		Body:    b.String(),
		Attributes: map[string]string{
			"notificationType": string(KindQueueStatusUpdate),
			"queuedTotal":      fmt.Sprintf("%d", stats.Total),
		},
	}
}

// NewResponseConfirmation builds the message confirming a supervisor's
// emergency response.
func NewResponseConfirmation(ep *model.Episode, resp *model.EmergencyResponse) Message {
	var b strings.Builder
	writeHeader(&b, ep, []string{resp.SupervisorID})
	fmt.Fprintf(&b, "Action: %s\n", resp.Action)
	if resp.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", resp.Notes)
	}

	attrs := baseAttributes(KindResponseConfirmation, ep)
	attrs["supervisorId"] = resp.SupervisorID
	attrs["action"] = resp.Action

	return Message{
		Kind:       KindResponseConfirmation,
		Channel:    ChannelGeneral,
		Subject:    fmt.Sprintf("Emergency response recorded for episode %s", ep.EpisodeID),
		Body:       b.String(),
		Attributes: attrs,
	}
}

// NewTimeoutWarning builds the message warning that an active escalation is
// approaching its timeout budget.
func NewTimeoutWarning(ep *model.Episode, proto *model.EscalationProtocol, remainingMinutes int) Message {
	var b strings.Builder
	writeHeader(&b, ep, proto.AssignedSupervisors)
	fmt.Fprintf(&b, "Escalation level: %s\n", proto.Level)
	fmt.Fprintf(&b, "Time remaining: %d minutes\n", remainingMinutes)
	fmt.Fprintf(&b, "Reason: %s\n", proto.Reason)

	attrs := baseAttributes(KindTimeoutWarning, ep)
	attrs["escalationId"] = proto.EscalationID
	attrs["escalationLevel"] = string(proto.Level)

	return Message{
		Kind:        KindTimeoutWarning,
		Channel:     ChannelEmergency,
		Subject:     fmt.Sprintf("%sEscalation timeout approaching for episode %s", emergencySubjectPrefix, ep.EpisodeID),
		Body:        b.String(),
		Attributes:  attrs,
		Supervisors: proto.AssignedSupervisors,
	}
}
