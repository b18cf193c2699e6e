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
	"sync"
)

// Bus is the publish interface for notification channels. Implementations
// must treat a returned error as "the message was not delivered".
type Bus interface {
	// Publish delivers one message to the given channel.
	Publish(ctx context.Context, channel Channel, subject, body string, attributes map[string]string) error

	// Close releases any resources held by the bus.
	Close() error
}

// PublishedMessage is one message recorded by the MemoryBus.
type PublishedMessage struct {
	Channel    Channel
	Subject    string
	Body       string
	Attributes map[string]string
}

// MemoryBus is an in-process Bus that records published messages. It backs
// tests and local runs without a broker.
type MemoryBus struct {
	mu       sync.Mutex
	messages []PublishedMessage
	failWith error
}

// NewMemoryBus creates an empty MemoryBus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

// FailWith makes every subsequent Publish return err (nil restores normal
// operation).
func (b *MemoryBus) FailWith(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWith = err
}

func (b *MemoryBus) Publish(_ context.Context, channel Channel, subject, body string, attributes map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWith != nil {
		return b.failWith
	}
	attrs := make(map[string]string, len(attributes))
	for k, v := range attributes {
		attrs[k] = v
	}
	b.messages = append(b.messages, PublishedMessage{
		Channel:    channel,
		Subject:    subject,
		Body:       body,
		Attributes: attrs,
	})
	return nil
}

func (b *MemoryBus) Close() error { return nil }

// Messages returns a snapshot of everything published so far.
func (b *MemoryBus) Messages() []PublishedMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]PublishedMessage(nil), b.messages...)
}

// MessagesOn returns the published messages for one channel.
func (b *MemoryBus) MessagesOn(channel Channel) []PublishedMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []PublishedMessage
	for _, m := range b.messages {
		if m.Channel == channel {
			out = append(out, m)
		}
	}
	return out
}
