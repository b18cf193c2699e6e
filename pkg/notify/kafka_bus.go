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
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/telekom/careflow/pkg/config"
)

// KafkaBus publishes notifications to one Kafka topic per channel.
type KafkaBus struct {
	writers map[Channel]*kafka.Writer
	logger  *zap.Logger
	mu      sync.Mutex
	closed  bool
}

// kafkaEnvelope is the JSON value written to the topic; the attribute map is
// duplicated into message headers for broker-side filtering.
type kafkaEnvelope struct {
	Subject    string            `json:"subject"`
	Body       string            `json:"body"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewKafkaBus creates a KafkaBus from configuration. Both topic names are
// required.
func NewKafkaBus(cfg config.Kafka, logger *zap.Logger) (*KafkaBus, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required")
	}
	if cfg.GeneralTopic == "" || cfg.EmergencyTopic == "" {
		return nil, fmt.Errorf("both general and emergency topics are required")
	}

	writeTimeout := time.Duration(cfg.WriteTimeoutMs) * time.Millisecond
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	batchTimeout := time.Duration(cfg.BatchTimeoutMs) * time.Millisecond
	if batchTimeout <= 0 {
		batchTimeout = time.Second
	}

	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			BatchTimeout:           batchTimeout,
			WriteTimeout:           writeTimeout,
			RequiredAcks:           kafka.RequireAll,
			Compression:            kafka.Snappy,
			AllowAutoTopicCreation: false,
		}
	}

	logger.Info("Kafka notification bus created",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("generalTopic", cfg.GeneralTopic),
		zap.String("emergencyTopic", cfg.EmergencyTopic))

	return &KafkaBus{
		writers: map[Channel]*kafka.Writer{
			ChannelGeneral:   newWriter(cfg.GeneralTopic),
			ChannelEmergency: newWriter(cfg.EmergencyTopic),
		},
		logger: logger.Named("kafka-notify"),
	}, nil
}

// Publish writes one notification to the channel's topic. The episode id
// attribute keys the message so per-episode ordering is preserved within a
// partition.
func (b *KafkaBus) Publish(ctx context.Context, channel Channel, subject, body string, attributes map[string]string) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("kafka bus is closed")
	}
	writer, ok := b.writers[channel]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown notification channel: %s", channel)
	}

	value, err := json.Marshal(kafkaEnvelope{
		Subject:    subject,
		Body:       body,
		Attributes: attributes,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	headers := make([]kafka.Header, 0, len(attributes))
	for k, v := range attributes {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	msg := kafka.Message{
		Key:     []byte(attributes["episodeId"]),
		Value:   value,
		Headers: headers,
	}

	start := time.Now()
	if err := writer.WriteMessages(ctx, msg); err != nil {
		b.logger.Error("failed to publish notification",
			zap.Error(err),
			zap.String("channel", string(channel)),
			zap.String("subject", subject),
			zap.Duration("duration", time.Since(start)))
		return fmt.Errorf("failed to publish to %s channel: %w", channel, err)
	}

	b.logger.Debug("notification published",
		zap.String("channel", string(channel)),
		zap.String("subject", subject),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// Close closes both topic writers.
func (b *KafkaBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var lastErr error
	for channel, writer := range b.writers {
		if err := writer.Close(); err != nil {
			b.logger.Warn("failed to close Kafka writer",
				zap.String("channel", string(channel)),
				zap.String("error", err.Error()))
			lastErr = err
		}
	}
	return lastErr
}
