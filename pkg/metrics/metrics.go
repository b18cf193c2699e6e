package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Escalation lifecycle metrics
	EscalationCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careflow_escalation_created_total",
		Help: "Total number of escalation protocols created",
	}, []string{"level"})
	EscalationCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careflow_escalation_completed_total",
		Help: "Total number of escalation protocols marked completed",
	}, []string{"level"})
	EscalationFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careflow_escalation_failed_total",
		Help: "Total number of escalation protocols marked failed",
	}, []string{"level"})
	EscalationTimedOut = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careflow_escalation_timeout_total",
		Help: "Total number of escalation protocols that exceeded their timeout",
	}, []string{"level"})

	// Emergency alert metrics
	AlertRaised = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careflow_emergency_alert_raised_total",
		Help: "Total number of emergency alerts raised",
	}, []string{"severity"})
	AlertResolved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careflow_emergency_alert_resolved_total",
		Help: "Total number of emergency alerts resolved",
	}, []string{"severity"})

	// Validation metrics
	ValidationQueued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careflow_validation_queued_total",
		Help: "Total number of episodes submitted for supervisor validation",
	}, []string{"urgency"})
	ValidationApproved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careflow_validation_approved_total",
		Help: "Total number of triage assessments approved by a supervisor",
	}, []string{"urgency"})
	ValidationOverridden = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careflow_validation_overridden_total",
		Help: "Total number of triage assessments overridden by a supervisor",
	}, []string{"urgency"})

	// Notification metrics
	NotificationPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careflow_notification_published_total",
		Help: "Total number of notifications published to the message bus",
	}, []string{"channel", "type"})
	NotificationFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careflow_notification_failed_total",
		Help: "Total number of notification publish failures",
	}, []string{"channel", "type"})
	PersonalAlertFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careflow_personal_alert_failed_total",
		Help: "Total number of best-effort personal supervisor alerts that failed",
	}, []string{"type"})

	// Mail metrics
	MailSendSuccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careflow_mail_send_success_total",
		Help: "Total number of successful mail sends",
	}, []string{"host"})
	MailSendFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careflow_mail_send_failure_total",
		Help: "Total number of failed mail sends",
	}, []string{"host"})
	MailQueued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careflow_mail_queued_total",
		Help: "Total number of mails accepted into the send queue",
	}, []string{"host"})
	MailQueueDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careflow_mail_queue_dropped_total",
		Help: "Total number of mails dropped because the queue was full or stopped",
	}, []string{"host"})
	MailRetryScheduled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careflow_mail_retry_scheduled_total",
		Help: "Total number of mail send retries scheduled",
	}, []string{"host"})
	MailFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careflow_mail_failed_total",
		Help: "Total number of mails that failed after all retries",
	}, []string{"host"})
)

func init() {
	prometheus.MustRegister(EscalationCreated)
	prometheus.MustRegister(EscalationCompleted)
	prometheus.MustRegister(EscalationFailed)
	prometheus.MustRegister(EscalationTimedOut)
	prometheus.MustRegister(AlertRaised)
	prometheus.MustRegister(AlertResolved)
	prometheus.MustRegister(ValidationQueued)
	prometheus.MustRegister(ValidationApproved)
	prometheus.MustRegister(ValidationOverridden)
	prometheus.MustRegister(NotificationPublished)
	prometheus.MustRegister(NotificationFailed)
	prometheus.MustRegister(PersonalAlertFailed)
	prometheus.MustRegister(MailSendSuccess)
	prometheus.MustRegister(MailSendFailure)
	prometheus.MustRegister(MailQueued)
	prometheus.MustRegister(MailQueueDropped)
	prometheus.MustRegister(MailRetryScheduled)
	prometheus.MustRegister(MailFailed)
}

// MetricsHandler returns an http.Handler exposing Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
