package invoices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/salesdesk/salesdesk/internal/platform/db"
	"github.com/salesdesk/salesdesk/internal/platform/httpx"
	"github.com/salesdesk/salesdesk/internal/shared"
)

// CacheBumper invalidates cached dashboard aggregates after a sale.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// Service implements the invoice workflow.
type Service struct {
	logger *slog.Logger
	repo   RepositoryPort
	cache  CacheBumper
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, repo RepositoryPort, cache CacheBumper) *Service {
	return &Service{
		logger: logger,
		repo:   repo,
		cache:  cache,
		now:    time.Now,
	}
}

// maxCreateAttempts bounds retries when two same-day creations race on the
// counter row and the repeatable read transaction loses with a
// serialization failure.
const maxCreateAttempts = 3

// Create validates references, snapshots line items, claims the next invoice
// number and decrements stock, all inside one transaction. Any failure rolls
// the whole sale back.
func (s *Service) Create(ctx context.Context, actor shared.Actor, req CreateRequest) (*Invoice, error) {
	var inv *Invoice
	var err error
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		inv, err = s.createOnce(ctx, actor, req)
		if err == nil || !db.IsSerializationFailure(err) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("dashboard cache bump failed", slog.Any("error", err))
	}
	return inv, nil
}

func (s *Service) createOnce(ctx context.Context, actor shared.Actor, req CreateRequest) (*Invoice, error) {
	now := s.now()
	inv := Invoice{
		ID:        uuid.NewString(),
		CreatedAt: now.UTC(),
	}

	err := s.repo.InTx(ctx, func(tx TxPort) error {
		customer, err := tx.Customer(ctx, req.CustomerID)
		if err != nil {
			if errors.Is(err, httpx.ErrNotFound) {
				return fmt.Errorf("%w: customer %q", httpx.ErrInvalidReference, req.CustomerID)
			}
			return fmt.Errorf("load customer: %w", err)
		}
		inv.Customer = *customer

		creator, err := tx.Creator(ctx, actor.UserID)
		if err != nil {
			return fmt.Errorf("load creator: %w", err)
		}
		inv.CreatedBy = *creator

		var subtotal float64
		tracked := []ItemRequest{}
		products := map[string]*SaleProduct{}
		for _, item := range req.Items {
			p, err := tx.ProductForSale(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, httpx.ErrNotFound) {
					return fmt.Errorf("%w: product %q", httpx.ErrInvalidReference, item.ProductID)
				}
				return fmt.Errorf("load product: %w", err)
			}
			products[p.ID] = p

			price := p.Price
			if item.Price != nil {
				price = *item.Price
			}
			amount := price * float64(item.Quantity)
			subtotal += amount

			inv.Items = append(inv.Items, LineItem{
				ProductID: p.ID,
				Name:      p.Name,
				Unit:      p.Unit,
				Price:     price,
				Quantity:  item.Quantity,
				Amount:    amount,
			})
			if p.Stock != nil {
				tracked = append(tracked, item)
			}
		}

		inv.Subtotal = subtotal
		inv.DiscountAmount = 0
		if req.Discount != nil {
			inv.DiscountType = req.Discount.Type
			inv.DiscountValue = req.Discount.Value
			switch req.Discount.Type {
			case DiscountPercentage:
				inv.DiscountAmount = subtotal * req.Discount.Value / 100
			case DiscountFixed:
				inv.DiscountAmount = req.Discount.Value
			}
		}
		inv.Total = subtotal - inv.DiscountAmount
		if inv.Total < 0 {
			inv.Total = 0
		}

		seq, err := tx.NextSequence(ctx, now)
		if err != nil {
			return fmt.Errorf("claim invoice number: %w", err)
		}
		inv.InvoiceID = FormatInvoiceID(now, seq)

		if err := tx.InsertInvoice(ctx, inv); err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}

		for _, item := range tracked {
			ok, err := tx.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if !ok {
				p := products[item.ProductID]
				return fmt.Errorf("%w: %s has %d in stock, %d requested",
					httpx.ErrInsufficientStock, p.Name, *p.Stock, item.Quantity)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// List returns invoices visible to the actor. Supervisors only see invoices
// they issued.
func (s *Service) List(ctx context.Context, actor shared.Actor) ([]Invoice, error) {
	creatorID := ""
	if !actor.IsAdmin() {
		creatorID = actor.UserID
	}
	items, err := s.repo.List(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return items, nil
}

// Get returns one invoice, restricted to its creator for supervisors.
func (s *Service) Get(ctx context.Context, actor shared.Actor, id string) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if !actor.IsAdmin() && inv.CreatedBy.ID != actor.UserID {
		return nil, httpx.ErrForbidden
	}
	return inv, nil
}
