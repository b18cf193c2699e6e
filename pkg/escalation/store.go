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

package escalation

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/telekom/careflow/pkg/episode"
	"github.com/telekom/careflow/pkg/faults"
	"github.com/telekom/careflow/pkg/model"
)

// ProtocolStore persists escalation protocol records. Two implementations
// exist: a dedicated table store, and a fallback that embeds records as a
// list on the owning episode. The coordinator is agnostic to the choice.
type ProtocolStore interface {
	// Save inserts a new protocol record.
	Save(ctx context.Context, proto *model.EscalationProtocol) error

	// Update rewrites an existing protocol record, matched by id.
	Update(ctx context.Context, proto *model.EscalationProtocol) error

	// Get returns the protocol by id, or a NotFound fault.
	Get(ctx context.Context, escalationID string) (*model.EscalationProtocol, error)

	// ListByEpisode returns all protocols for one episode, oldest first.
	ListByEpisode(ctx context.Context, episodeID string) ([]model.EscalationProtocol, error)

	// ListActive returns every protocol with status active.
	ListActive(ctx context.Context) ([]model.EscalationProtocol, error)
}

// TableStore keeps protocol records in a dedicated in-memory table, the
// analog of a secondary database table keyed by escalation id.
type TableStore struct {
	mu        sync.RWMutex
	records   map[string]model.EscalationProtocol
	byEpisode map[string][]string
}

// NewTableStore creates an empty TableStore.
func NewTableStore() *TableStore {
	return &TableStore{
		records:   make(map[string]model.EscalationProtocol),
		byEpisode: make(map[string][]string),
	}
}

func (s *TableStore) Save(_ context.Context, proto *model.EscalationProtocol) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[proto.EscalationID]; exists {
		return faults.Conflict("escalation already exists: " + proto.EscalationID)
	}
	s.records[proto.EscalationID] = *proto
	s.byEpisode[proto.EpisodeID] = append(s.byEpisode[proto.EpisodeID], proto.EscalationID)
	return nil
}

func (s *TableStore) Update(_ context.Context, proto *model.EscalationProtocol) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[proto.EscalationID]; !exists {
		return faults.NotFound("escalation", proto.EscalationID)
	}
	s.records[proto.EscalationID] = *proto
	return nil
}

func (s *TableStore) Get(_ context.Context, escalationID string) (*model.EscalationProtocol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[escalationID]
	if !ok {
		return nil, faults.NotFound("escalation", escalationID)
	}
	return &rec, nil
}

func (s *TableStore) ListByEpisode(_ context.Context, episodeID string) ([]model.EscalationProtocol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byEpisode[episodeID]
	out := make([]model.EscalationProtocol, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.records[id])
	}
	return out, nil
}

func (s *TableStore) ListActive(_ context.Context) ([]model.EscalationProtocol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.EscalationProtocol
	for _, rec := range s.records {
		if rec.Status == model.ProtocolActive {
			out = append(out, rec)
		}
	}
	return out, nil
}

// EmbeddedStore persists protocols as a list on the owning episode. Used
// when no dedicated protocol table is available; queries scan episodes
// client-side.
type EmbeddedStore struct {
	episodes episode.Store
}

// NewEmbeddedStore creates an EmbeddedStore over the episode store.
func NewEmbeddedStore(episodes episode.Store) *EmbeddedStore {
	return &EmbeddedStore{episodes: episodes}
}

func (s *EmbeddedStore) Save(ctx context.Context, proto *model.EscalationProtocol) error {
	ep, err := s.episodes.Get(ctx, proto.EpisodeID)
	if err != nil {
		return errors.Wrap(err, "loading episode for embedded escalation save")
	}
	ep.Escalations = append(ep.Escalations, *proto)
	return s.episodes.Update(ctx, ep)
}

func (s *EmbeddedStore) Update(ctx context.Context, proto *model.EscalationProtocol) error {
	ep, err := s.episodes.Get(ctx, proto.EpisodeID)
	if err != nil {
		return errors.Wrap(err, "loading episode for embedded escalation update")
	}
	for i := range ep.Escalations {
		if ep.Escalations[i].EscalationID == proto.EscalationID {
			ep.Escalations[i] = *proto
			return s.episodes.Update(ctx, ep)
		}
	}
	return faults.NotFound("escalation", proto.EscalationID)
}

func (s *EmbeddedStore) Get(ctx context.Context, escalationID string) (*model.EscalationProtocol, error) {
	eps, err := s.episodes.List(ctx, func(ep *model.Episode) bool {
		for i := range ep.Escalations {
			if ep.Escalations[i].EscalationID == escalationID {
				return true
			}
		}
		return false
	})
	if err != nil {
		return nil, errors.Wrap(err, "scanning episodes for embedded escalation")
	}
	for _, ep := range eps {
		for i := range ep.Escalations {
			if ep.Escalations[i].EscalationID == escalationID {
				rec := ep.Escalations[i]
				return &rec, nil
			}
		}
	}
	return nil, faults.NotFound("escalation", escalationID)
}

func (s *EmbeddedStore) ListByEpisode(ctx context.Context, episodeID string) ([]model.EscalationProtocol, error) {
	ep, err := s.episodes.Get(ctx, episodeID)
	if err != nil {
		return nil, errors.Wrap(err, "loading episode for embedded escalation list")
	}
	return append([]model.EscalationProtocol(nil), ep.Escalations...), nil
}

func (s *EmbeddedStore) ListActive(ctx context.Context) ([]model.EscalationProtocol, error) {
	eps, err := s.episodes.List(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "scanning episodes for active escalations")
	}
	var out []model.EscalationProtocol
	for _, ep := range eps {
		for i := range ep.Escalations {
			if ep.Escalations[i].Status == model.ProtocolActive {
				out = append(out, ep.Escalations[i])
			}
		}
	}
	return out, nil
}
