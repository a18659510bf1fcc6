// Package service holds the per-resource API services. Each wraps the HTTP
// client with typed request/response shapes, pagination parameter building,
// and the normalization rules (enum literals, monetary amounts) that must
// run exactly once, here at the service boundary.
package service

import (
	"context"
	"fmt"

	"github.com/exotrack/exotrack-console/internal/api"
	"github.com/exotrack/exotrack-console/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service")

// UserService manages customer and admin accounts.
type UserService struct {
	client *api.Client
	logger *zap.Logger
}

// NewUserService creates a user service on top of the shared API client.
func NewUserService(client *api.Client, logger *zap.Logger) *UserService {
	return &UserService{client: client, logger: logger}
}

// FindAllWithPagination fetches one page of users with the full envelope,
// the canonical shape for list views that need page counts.
func (s *UserService) FindAllWithPagination(ctx context.Context, q domain.PageQuery) (domain.Page[domain.User], error) {
	ctx, span := tracer.Start(ctx, "UserService.FindAllWithPagination")
	defer span.End()
	span.SetAttributes(attribute.Int("limit", q.Limit), attribute.Int("offset", q.Offset))

	var page domain.Page[domain.User]
	err := s.client.Get(ctx, "/users?"+q.Values().Encode(), &page)
	return page, err
}

// FindAll returns a bare slice for call sites that do not need paging
// metadata. Internally it issues the same request.
func (s *UserService) FindAll(ctx context.Context, q *domain.PageQuery) ([]domain.User, error) {
	query := domain.PageQuery{}
	if q != nil {
		query = *q
	}
	page, err := s.FindAllWithPagination(ctx, query)
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}

// FindOne fetches a single user by id.
func (s *UserService) FindOne(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := s.client.Get(ctx, "/users/"+id, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Create registers a new account with the given role.
func (s *UserService) Create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	var user domain.User
	if err := s.client.Post(ctx, "/users", req, &user); err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.String("user_id", user.ID))
	return &user, nil
}

// userUpdatePayload is the mutable subset of a user. Role and document
// number are immutable through this API and must never be sent.
type userUpdatePayload struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	IsActive    bool   `json:"isActive"`
}

// Update sends the mutable fields of the given user record. The narrowing
// happens here, not at call sites: passing a full User never leaks its
// role or documentNumber into the request body.
func (s *UserService) Update(ctx context.Context, id string, user domain.User) (*domain.User, error) {
	payload := userUpdatePayload{
		FullName:    user.FullName,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		IsActive:    user.IsActive,
	}

	var updated domain.User
	if err := s.client.Put(ctx, "/users/"+id, payload, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Remove deletes a user account.
func (s *UserService) Remove(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, "/users/"+id); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}

// Stats fetches the aggregate user counters for the dashboard.
func (s *UserService) Stats(ctx context.Context) (*domain.UserStats, error) {
	var stats domain.UserStats
	if err := s.client.Get(ctx, "/users/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
