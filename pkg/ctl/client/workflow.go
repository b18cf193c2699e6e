package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/telekom/careflow/pkg/emergency"
	"github.com/telekom/careflow/pkg/model"
	"github.com/telekom/careflow/pkg/validation"
)

// ValidationService calls the validation queue endpoints.
type ValidationService struct {
	client *Client
}

func (c *Client) Validation() *ValidationService {
	return &ValidationService{client: c}
}

type QueueListOptions struct {
	SupervisorID string
	UrgencyLevel string
	Limit        int
}

func (s *ValidationService) Queue(ctx context.Context, opts QueueListOptions) ([]validation.QueueItem, error) {
	endpoint := "api/validation/queue"
	params := url.Values{}
	if opts.SupervisorID != "" {
		params.Set("supervisorId", opts.SupervisorID)
	}
	if opts.UrgencyLevel != "" {
		params.Set("urgencyLevel", opts.UrgencyLevel)
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}
	if encoded := params.Encode(); encoded != "" {
		endpoint = fmt.Sprintf("%s?%s", endpoint, encoded)
	}
	var items []validation.QueueItem
	if err := s.client.do(ctx, http.MethodGet, endpoint, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

type DecisionRequest struct {
	EpisodeID      string `json:"episodeId"`
	SupervisorID   string `json:"supervisorId"`
	Approved       bool   `json:"approved"`
	OverrideReason string `json:"overrideReason,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

func (s *ValidationService) Decide(ctx context.Context, req DecisionRequest) (*validation.DecisionResult, error) {
	var result validation.DecisionResult
	if err := s.client.do(ctx, http.MethodPost, "api/validation/decisions", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// EmergencyService calls the emergency alert endpoints.
type EmergencyService struct {
	client *Client
}

func (c *Client) Emergency() *EmergencyService {
	return &EmergencyService{client: c}
}

func (s *EmergencyService) Queue(ctx context.Context, supervisorID string) ([]emergency.QueueEntry, error) {
	endpoint := "api/emergency/queue"
	if supervisorID != "" {
		endpoint = fmt.Sprintf("%s?supervisorId=%s", endpoint, url.QueryEscape(supervisorID))
	}
	var entries []emergency.QueueEntry
	if err := s.client.do(ctx, http.MethodGet, endpoint, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EscalationService calls the escalation endpoints.
type EscalationService struct {
	client *Client
}

func (c *Client) Escalations() *EscalationService {
	return &EscalationService{client: c}
}

type EscalationRequest struct {
	EpisodeID      string `json:"episodeId"`
	Reason         string `json:"reason"`
	TargetLevel    string `json:"targetLevel,omitempty"`
	UrgentResponse bool   `json:"urgentResponse,omitempty"`
}

// EscalationResponse mirrors the process-escalation endpoint payload.
type EscalationResponse struct {
	Escalation              *model.EscalationProtocol `json:"escalation"`
	EscalationLevel         model.EscalationLevel     `json:"escalationLevel"`
	AssignedSupervisors     []string                  `json:"assignedSupervisors"`
	ExpectedResponseMinutes int                       `json:"expectedResponseMinutes"`
}

func (s *EscalationService) Process(ctx context.Context, req EscalationRequest) (*EscalationResponse, error) {
	var result EscalationResponse
	if err := s.client.do(ctx, http.MethodPost, "api/escalations", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *EscalationService) ListActive(ctx context.Context, episodeID string) ([]model.EscalationProtocol, error) {
	var escalations []model.EscalationProtocol
	endpoint := fmt.Sprintf("api/escalations/episode/%s", url.PathEscape(episodeID))
	if err := s.client.do(ctx, http.MethodGet, endpoint, nil, &escalations); err != nil {
		return nil, err
	}
	return escalations, nil
}
