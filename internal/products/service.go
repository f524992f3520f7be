package products

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salesdesk/salesdesk/internal/platform/httpx"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	List(ctx context.Context, typeID string) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	TypeExists(ctx context.Context, typeID string) (bool, error)
	Create(ctx context.Context, p Product) error
	Update(ctx context.Context, p Product) error
	Delete(ctx context.Context, id string) error
}

// Service implements product catalog operations.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns products, optionally filtered by product type.
func (s *Service) List(ctx context.Context, typeID string) ([]Product, error) {
	items, err := s.repo.List(ctx, typeID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return items, nil
}

// Get returns a single product by id.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Create registers a new product after validating the referenced type.
func (s *Service) Create(ctx context.Context, createdBy string, req CreateRequest) (*Product, error) {
	ok, err := s.repo.TypeExists(ctx, req.TypeID)
	if err != nil {
		return nil, fmt.Errorf("check product type: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: invalid product type %q", httpx.ErrInvalidReference, req.TypeID)
	}

	p := Product{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Price:     req.Price,
		Unit:      req.Unit,
		TypeID:    req.TypeID,
		Stock:     req.Stock,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &p, nil
}

// Update applies partial changes to a product.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Unit != nil {
		p.Unit = *req.Unit
	}
	if req.TypeID != nil {
		ok, err := s.repo.TypeExists(ctx, *req.TypeID)
		if err != nil {
			return nil, fmt.Errorf("check product type: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: invalid product type %q", httpx.ErrInvalidReference, *req.TypeID)
		}
		p.TypeID = *req.TypeID
	}
	if req.Stock != nil {
		p.Stock = req.Stock
	}

	if err := s.repo.Update(ctx, *p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// Delete removes a product from the catalog.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}
