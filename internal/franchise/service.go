package franchise

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/pizzafoundry/pizza-service/internal/apperr"
	"github.com/pizzafoundry/pizza-service/internal/franchise/entity"
	franchiserepo "github.com/pizzafoundry/pizza-service/internal/franchise/repo"
)

// Service orchestrates franchise and store lifecycle flows.
type Service struct {
	repo *franchiserepo.FranchiseRepo
}

func NewService(db *sqlx.DB, r *franchiserepo.FranchiseRepo) *Service {
	if r == nil {
		r = franchiserepo.NewFranchiseRepo(db)
	}
	return &Service{repo: r}
}

// Create inserts the franchise with its admin associations. Every admin
// entry must resolve to an existing user by email or the whole operation
// fails with not-found and nothing is persisted.
func (s *Service) Create(ctx context.Context, f *entity.Franchise) (*entity.Franchise, error) {
	if f.Name == "" {
		return nil, apperr.New(apperr.Validation, "franchise name is required")
	}
	if err := s.repo.Create(ctx, f); err != nil {
		if errors.Is(err, franchiserepo.ErrUnknownAdmin) {
			return nil, apperr.New(apperr.NotFound, "unknown user for franchise admin")
		}
		return nil, apperr.Wrap(apperr.Persistence, "unable to create a franchise", err)
	}
	if f.Stores == nil {
		f.Stores = []entity.Store{}
	}
	return f, nil
}

// ListForUser returns the franchises the user administers, with nested
// stores.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]entity.Franchise, error) {
	franchises, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "unable to get user franchises", err)
	}
	return franchises, nil
}

// ListAll returns every franchise. Reserved for global admins; the
// authorization layer decides who sees it.
func (s *Service) ListAll(ctx context.Context) ([]entity.Franchise, error) {
	franchises, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "unable to get franchises", err)
	}
	return franchises, nil
}

// Delete removes the franchise and cascades to its stores and admin
// associations. Historical orders are retained.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.NotFound, "unknown franchise")
		}
		return apperr.Wrap(apperr.Persistence, "unable to delete franchise", err)
	}
	return nil
}

// CreateStore adds a store under the franchise.
func (s *Service) CreateStore(ctx context.Context, franchiseID int64, st *entity.Store) (*entity.Store, error) {
	if st.Name == "" {
		return nil, apperr.New(apperr.Validation, "store name is required")
	}
	if err := s.repo.CreateStore(ctx, franchiseID, st); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "unknown franchise")
		}
		return nil, apperr.Wrap(apperr.Persistence, "unable to create store", err)
	}
	return st, nil
}

// DeleteStore removes a store scoped to its parent franchise.
func (s *Service) DeleteStore(ctx context.Context, franchiseID, storeID int64) error {
	if err := s.repo.DeleteStore(ctx, franchiseID, storeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.NotFound, "unknown store")
		}
		return apperr.Wrap(apperr.Persistence, "unable to delete store", err)
	}
	return nil
}
