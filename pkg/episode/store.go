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

// Package episode provides access to the episode record store. The workflow
// coordinators are storage-agnostic; they see only the Store interface.
package episode

import (
	"context"
	"sync"
	"time"

	"github.com/telekom/careflow/pkg/faults"
	"github.com/telekom/careflow/pkg/model"
)

// Store is the episode record store. Updates use optimistic concurrency: the
// episode's Version must match the stored record or the write is rejected
// with a Conflict fault for the caller to retry.
type Store interface {
	// Get returns the episode by id, or a NotFound fault.
	Get(ctx context.Context, episodeID string) (*model.Episode, error)

	// Create inserts a new episode. The stored Version starts at 1.
	Create(ctx context.Context, ep *model.Episode) error

	// Update writes back a modified episode. Returns a Conflict fault when
	// the stored version no longer matches ep.Version.
	Update(ctx context.Context, ep *model.Episode) error

	// List returns all episodes matching the filter; a nil filter matches
	// everything. Order is unspecified.
	List(ctx context.Context, filter func(*model.Episode) bool) ([]*model.Episode, error)
}

// MemoryStore is an in-memory Store. It backs tests and single-node
// deployments; records are deep-ish copies so callers never share memory
// with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	episodes map[string]*model.Episode
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{episodes: make(map[string]*model.Episode)}
}

func (s *MemoryStore) Get(_ context.Context, episodeID string) (*model.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ep, ok := s.episodes[episodeID]
	if !ok {
		return nil, faults.NotFound("episode", episodeID)
	}
	return copyEpisode(ep), nil
}

func (s *MemoryStore) Create(_ context.Context, ep *model.Episode) error {
	if ep.EpisodeID == "" {
		return faults.InvalidInput("episode id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.episodes[ep.EpisodeID]; exists {
		return faults.Conflict("episode already exists: " + ep.EpisodeID)
	}
	now := time.Now().UTC()
	if ep.CreatedAt.IsZero() {
		ep.CreatedAt = now
	}
	ep.UpdatedAt = now
	ep.Version = 1
	s.episodes[ep.EpisodeID] = copyEpisode(ep)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, ep *model.Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.episodes[ep.EpisodeID]
	if !ok {
		return faults.NotFound("episode", ep.EpisodeID)
	}
	if stored.Version != ep.Version {
		return faults.Conflict("episode version mismatch: " + ep.EpisodeID)
	}
	ep.Version++
	ep.UpdatedAt = time.Now().UTC()
	s.episodes[ep.EpisodeID] = copyEpisode(ep)
	return nil
}

func (s *MemoryStore) List(_ context.Context, filter func(*model.Episode) bool) ([]*model.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Episode, 0, len(s.episodes))
	for _, ep := range s.episodes {
		if filter == nil || filter(ep) {
			out = append(out, copyEpisode(ep))
		}
	}
	return out, nil
}

func copyEpisode(ep *model.Episode) *model.Episode {
	cp := *ep
	cp.Interactions = append([]model.Interaction(nil), ep.Interactions...)
	cp.Escalations = append([]model.EscalationProtocol(nil), ep.Escalations...)
	cp.EmergencyAlerts = append([]model.EmergencyAlert(nil), ep.EmergencyAlerts...)
	cp.EmergencyResponses = append([]model.EmergencyResponse(nil), ep.EmergencyResponses...)
	if ep.Triage != nil {
		triage := *ep.Triage
		if ep.Triage.HumanValidation != nil {
			hv := *ep.Triage.HumanValidation
			triage.HumanValidation = &hv
		}
		cp.Triage = &triage
	}
	if ep.QueuedAt != nil {
		q := *ep.QueuedAt
		cp.QueuedAt = &q
	}
	return &cp
}
