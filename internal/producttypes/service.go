package producttypes

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RepositoryPort defines data access methods for product types.
type RepositoryPort interface {
	List(ctx context.Context) ([]ProductType, error)
	Get(ctx context.Context, id string) (*ProductType, error)
	Create(ctx context.Context, pt ProductType) error
	Update(ctx context.Context, pt ProductType) error
	Delete(ctx context.Context, id string) error
}

// Service handles product type business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns all product types.
func (s *Service) List(ctx context.Context) ([]ProductType, error) {
	return s.repo.List(ctx)
}

// Create registers a new product type.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*ProductType, error) {
	pt := ProductType{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, pt); err != nil {
		return nil, fmt.Errorf("create product type: %w", err)
	}
	return &pt, nil
}

// Update renames an existing product type.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*ProductType, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product type: %w", err)
	}
	existing.Name = req.Name
	existing.Description = req.Description
	if err := s.repo.Update(ctx, *existing); err != nil {
		return nil, fmt.Errorf("update product type: %w", err)
	}
	return existing, nil
}

// Delete removes a product type.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
