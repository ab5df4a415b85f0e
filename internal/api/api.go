// Package api holds the request and response bodies of the REST API that are not plain domain
// entities. The server decodes them and the HTTP client encodes them.
package api

import (
	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/promotion"
	"github.com/vanshika/marketplace/internal/service"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ActorRequest identifies the user performing an action.
type ActorRequest struct {
	ActorID string `json:"actorId"`
}

type UserStatusRequest struct {
	ActorID string            `json:"actorId"`
	Status  domain.UserStatus `json:"status"`
}

type CategoryRequest struct {
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
}

type PromotionRequest struct {
	ActorID string `json:"actorId"`
	service.PromotionInput
}

type ValidatePromotionRequest struct {
	Code  string           `json:"code"`
	Lines []promotion.Line `json:"lines"`
}

type AssignDisputeRequest struct {
	ActorID    string `json:"actorId"`
	AssigneeID string `json:"assigneeId"`
}

type ResolveDisputeRequest struct {
	ActorID string `json:"actorId"`
	service.ResolveDisputeInput
}

type KYCReviewRequest struct {
	ActorID string `json:"actorId"`
	service.KYCReviewInput
}
