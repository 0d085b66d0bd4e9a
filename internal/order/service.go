package order

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/pizzafoundry/pizza-service/internal/apperr"
	"github.com/pizzafoundry/pizza-service/internal/order/entity"
	orderrepo "github.com/pizzafoundry/pizza-service/internal/order/repo"
	userentity "github.com/pizzafoundry/pizza-service/internal/user/entity"
	"github.com/pizzafoundry/pizza-service/pkg/utilities"
)

// Service orchestrates menu and order flows, including the hand-off to the
// fulfillment factory after a successful order write.
type Service struct {
	repo    *orderrepo.OrderRepo
	factory *FulfillmentClient
}

func NewService(db *sqlx.DB, r *orderrepo.OrderRepo, factory *FulfillmentClient) *Service {
	if r == nil {
		r = orderrepo.NewOrderRepo(db)
	}
	return &Service{repo: r, factory: factory}
}

// AddMenuItem inserts a catalog item and returns the refreshed menu.
func (s *Service) AddMenuItem(ctx context.Context, item *entity.MenuItem) ([]entity.MenuItem, error) {
	if item.Title == "" {
		return nil, apperr.New(apperr.Validation, "menu item title is required")
	}
	if item.Price < 0 {
		return nil, apperr.New(apperr.Validation, "menu item price must not be negative")
	}
	if err := s.repo.AddMenuItem(ctx, item); err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "unable to add menu item", err)
	}
	return s.GetMenu(ctx)
}

// GetMenu returns the full catalog in insertion order.
func (s *Service) GetMenu(ctx context.Context) ([]entity.MenuItem, error) {
	menu, err := s.repo.GetMenu(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "unable to get menu", err)
	}
	if menu == nil {
		menu = []entity.MenuItem{}
	}
	return menu, nil
}

// Create persists the diner's order, then submits it to the factory. A
// fulfillment failure is returned alongside the order: the write is already
// committed and is never rolled back for a vendor error.
func (s *Service) Create(ctx context.Context, diner *userentity.User, o *entity.Order) (*entity.Order, *FulfillmentResult, error) {
	if len(o.Items) == 0 {
		return nil, nil, apperr.New(apperr.Validation, "order must include at least one item")
	}
	o.Reference = utilities.NewOrderReference()
	if err := s.repo.AddOrder(ctx, diner.ID, o); err != nil {
		if errors.Is(err, orderrepo.ErrUnknownStore) {
			return nil, nil, apperr.New(apperr.NotFound, "unknown franchise or store")
		}
		return nil, nil, apperr.Wrap(apperr.Persistence, "unable to add order", err)
	}
	result, err := s.factory.Submit(ctx, diner, o)
	if err != nil {
		return o, nil, err
	}
	return o, result, nil
}

// ListForDiner returns one page of the diner's own orders.
func (s *Service) ListForDiner(ctx context.Context, dinerID int64, page utilities.Page) ([]entity.Order, error) {
	orders, err := s.repo.ListForDiner(ctx, dinerID, page.Limit, page.Offset())
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "unable to get orders", err)
	}
	if orders == nil {
		orders = []entity.Order{}
	}
	return orders, nil
}
