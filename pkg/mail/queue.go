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

package mail

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/telekom/careflow/pkg/metrics"
)

// QueueItem represents a single email to be sent with retry information
type QueueItem struct {
	ID        string
	Receivers []string
	Subject   string
	Body      string
	Attempt   int
	CreatedAt time.Time
	NextRetry time.Time
	Succeeded bool
}

// Queue manages asynchronous mail sending with retries. Supervisor alerts
// go through here so a slow SMTP host never blocks a workflow operation.
type Queue struct {
	sender           Sender
	queue            chan *QueueItem
	log              *zap.SugaredLogger
	maxRetries       int
	initialBackoffMs int
	wg               sync.WaitGroup
	ctx              context.Context
	cancel           context.CancelFunc
	maxQueueSize     int
}

// NewQueue creates a new mail queue for asynchronous sending
func NewQueue(sender Sender, log *zap.SugaredLogger, maxRetries, initialBackoffMs, maxQueueSize int) *Queue {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	if initialBackoffMs <= 0 {
		initialBackoffMs = 10000
	}
	if maxQueueSize <= 0 {
		maxQueueSize = 1000
	}

	log.Infow("Initializing mail queue",
		"maxRetries", maxRetries,
		"initialBackoffMs", initialBackoffMs,
		"maxQueueSize", maxQueueSize)

	ctx, cancel := context.WithCancel(context.Background())

	return &Queue{
		sender:           sender,
		queue:            make(chan *QueueItem, maxQueueSize),
		log:              log,
		maxRetries:       maxRetries,
		initialBackoffMs: initialBackoffMs,
		maxQueueSize:     maxQueueSize,
		ctx:              ctx,
		cancel:           cancel,
	}
}

// Start begins the background worker for processing emails
func (q *Queue) Start() {
	q.wg.Add(1)
	go q.worker()
	q.log.Info("Mail queue worker started")
}

// Enqueue adds an email to the queue for sending
func (q *Queue) Enqueue(id string, receivers []string, subject, body string) error {
	if len(receivers) == 0 {
		q.log.Errorw("Cannot enqueue email: empty receivers list", "id", id, "subject", subject)
		metrics.MailQueueDropped.WithLabelValues(q.sender.GetHost()).Inc()
		return fmt.Errorf("cannot enqueue email with no receivers")
	}

	select {
	case <-q.ctx.Done():
		q.log.Errorw("Cannot enqueue, queue is shutting down", "id", id)
		metrics.MailQueueDropped.WithLabelValues(q.sender.GetHost()).Inc()
		return fmt.Errorf("queue is shutting down")
	default:
	}

	item := &QueueItem{
		ID:        id,
		Receivers: receivers,
		Subject:   subject,
		Body:      body,
		Attempt:   0,
		CreatedAt: time.Now(),
		NextRetry: time.Now(),
	}

	select {
	case q.queue <- item:
		metrics.MailQueued.WithLabelValues(q.sender.GetHost()).Inc()
		q.log.Debugw("Email queued for sending", "id", id, "receivers", len(receivers), "subject", subject)
		return nil
	case <-q.ctx.Done():
		metrics.MailQueueDropped.WithLabelValues(q.sender.GetHost()).Inc()
		return fmt.Errorf("queue is shutting down")
	default:
		metrics.MailQueueDropped.WithLabelValues(q.sender.GetHost()).Inc()
		q.log.Errorw("Mail queue is full, dropping message",
			"id", id, "receivers", len(receivers), "queueSize", q.maxQueueSize)
		return fmt.Errorf("mail queue is full (capacity: %d)", q.maxQueueSize)
	}
}

// worker processes items from the queue
func (q *Queue) worker() {
	defer q.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			q.log.Errorw("panic in mail queue worker recovered", "panic", r)
			metrics.MailFailed.WithLabelValues(q.sender.GetHost()).Inc()
			q.wg.Add(1)
			go q.worker()
		}
	}()

	pendingItems := make([]*QueueItem, 0)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			q.log.Info("Mail queue worker shutting down")
			q.processPending(pendingItems)
			return

		case item := <-q.queue:
			if item != nil {
				q.processItem(item)
				if !item.Succeeded && item.Attempt < q.maxRetries {
					pendingItems = append(pendingItems, item)
				}
			}

		case <-ticker.C:
			now := time.Now()
			remainingPending := make([]*QueueItem, 0)

			for _, item := range pendingItems {
				if !item.Succeeded && now.After(item.NextRetry) {
					q.processItem(item)
				}
				if !item.Succeeded && item.Attempt < q.maxRetries {
					remainingPending = append(remainingPending, item)
				}
			}
			pendingItems = remainingPending
		}
	}
}

// processItem attempts to send an email and schedules retry if needed
func (q *Queue) processItem(item *QueueItem) {
	item.Attempt++

	err := q.sender.Send(item.Receivers, item.Subject, item.Body)
	if err == nil {
		q.log.Infow("Queued email sent",
			"id", item.ID, "attempt", item.Attempt, "receivers", len(item.Receivers))
		item.Succeeded = true
		return
	}

	if item.Attempt < q.maxRetries {
		backoffMs := q.calculateBackoff(item.Attempt)
		item.NextRetry = time.Now().Add(time.Duration(backoffMs) * time.Millisecond)

		q.log.Warnw("Email send failed, scheduling retry",
			"id", item.ID,
			"attempt", item.Attempt,
			"error", err,
			"retryIn", fmt.Sprintf("%dms", backoffMs))
		metrics.MailRetryScheduled.WithLabelValues(q.sender.GetHost()).Inc()
	} else {
		q.log.Errorw("Email send failed after all retries",
			"id", item.ID,
			"attempts", item.Attempt,
			"error", err,
			"subject", item.Subject)
		metrics.MailFailed.WithLabelValues(q.sender.GetHost()).Inc()
	}
}

// processPending processes any remaining pending items on shutdown
func (q *Queue) processPending(items []*QueueItem) {
	for _, item := range items {
		if item.Attempt < q.maxRetries {
			q.processItem(item)
		}
	}
}

// calculateBackoff computes exponential backoff: 10s → 20s → 40s → ...
func (q *Queue) calculateBackoff(attempt int) int {
	backoffMs := int(float64(q.initialBackoffMs) * math.Pow(2, float64(attempt-1)))
	if backoffMs > 1800000 {
		backoffMs = 1800000
	}
	return backoffMs
}

// Stop gracefully shuts down the queue and waits for the worker to drain
func (q *Queue) Stop(ctx context.Context) error {
	q.log.Info("Stopping mail queue")
	q.cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.log.Info("Mail queue stopped gracefully")
		return nil
	case <-ctx.Done():
		q.log.Warn("Mail queue shutdown timeout, some items may not have been processed")
		return ctx.Err()
	}
}

// Length returns the current number of items in the queue
func (q *Queue) Length() int {
	return len(q.queue)
}
