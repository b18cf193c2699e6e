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
	"strings"

	"go.uber.org/zap"

	"github.com/telekom/careflow/pkg/faults"
	"github.com/telekom/careflow/pkg/metrics"
)

// PersonalSender enqueues a personal copy of a notification for individual
// supervisors. mail.Queue satisfies this.
type PersonalSender interface {
	Enqueue(id string, receivers []string, subject, body string) error
}

// Dispatcher delivers formatted messages: the primary channel publish must
// succeed (failure propagates to the caller), while the per-supervisor
// personal fan-out is best-effort — one bad recipient never blocks the rest.
type Dispatcher struct {
	bus              Bus
	personal         PersonalSender
	supervisorDomain string
	log              *zap.SugaredLogger
}

// NewDispatcher creates a Dispatcher. personal may be nil to disable the
// mail fan-out.
func NewDispatcher(bus Bus, personal PersonalSender, supervisorDomain string, log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		bus:              bus,
		personal:         personal,
		supervisorDomain: supervisorDomain,
		log:              log.Named("dispatcher"),
	}
}

// Publish delivers msg to its channel and fans out personal copies.
func (d *Dispatcher) Publish(ctx context.Context, msg Message) error {
	if err := d.bus.Publish(ctx, msg.Channel, msg.Subject, msg.Body, msg.Attributes); err != nil {
		metrics.NotificationFailed.WithLabelValues(string(msg.Channel), string(msg.Kind)).Inc()
		d.log.Errorw("Failed to publish notification",
			"channel", msg.Channel,
			"type", msg.Kind,
			"subject", msg.Subject,
			"error", err)
		return faults.Dependency("notification publish failed", err)
	}
	metrics.NotificationPublished.WithLabelValues(string(msg.Channel), string(msg.Kind)).Inc()
	d.log.Infow("Notification published",
		"channel", msg.Channel,
		"type", msg.Kind,
		"subject", msg.Subject)

	d.fanOut(msg)
	return nil
}

// fanOut sends one personal copy per supervisor. Failures are logged and
// counted only.
func (d *Dispatcher) fanOut(msg Message) {
	if d.personal == nil || len(msg.Supervisors) == 0 {
		return
	}
	for _, supervisor := range msg.Supervisors {
		address := d.supervisorAddress(supervisor)
		id := msg.Attributes["episodeId"] + "/" + supervisor
		if err := d.personal.Enqueue(id, []string{address}, msg.Subject, msg.Body); err != nil {
			metrics.PersonalAlertFailed.WithLabelValues(string(msg.Kind)).Inc()
			d.log.Warnw("Personal supervisor alert failed",
				"supervisor", supervisor,
				"type", msg.Kind,
				"error", err)
		}
	}
}

func (d *Dispatcher) supervisorAddress(supervisor string) string {
	if strings.Contains(supervisor, "@") || d.supervisorDomain == "" {
		return supervisor
	}
	return supervisor + "@" + d.supervisorDomain
}
