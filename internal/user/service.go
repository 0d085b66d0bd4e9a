package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/pizzafoundry/pizza-service/internal/apperr"
	"github.com/pizzafoundry/pizza-service/internal/user/entity"
	userrepo "github.com/pizzafoundry/pizza-service/internal/user/repo"
	"github.com/pizzafoundry/pizza-service/pkg/utilities"
)

// PasswordHasher defines minimal hashing interface (abstract so we can swap
// to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Service orchestrates user lifecycle flows on top of UserRepo.
type Service struct {
	repo   *userrepo.UserRepo
	hasher PasswordHasher
}

func NewService(db *sqlx.DB, r *userrepo.UserRepo, hasher PasswordHasher) *Service {
	if r == nil {
		r = userrepo.NewUserRepo(db)
	}
	if hasher == nil {
		hasher = BcryptHasher{Cost: bcrypt.DefaultCost}
	}
	return &Service{repo: r, hasher: hasher}
}

// Add hashes the credential, inserts the user with its role assignments
// (defaulting to diner) and returns the created record with the credential
// stripped.
func (s *Service) Add(ctx context.Context, u *entity.User) (*entity.User, error) {
	if u.Name == "" || u.Email == "" || u.Password == "" {
		return nil, apperr.New(apperr.Validation, "name, email, and password are required")
	}
	hash, err := s.hasher.Hash(u.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "unable to add user", err)
	}
	created := entity.User{
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: hash,
		Roles:        u.Roles,
	}
	if len(created.Roles) == 0 {
		created.Roles = []entity.Role{{Role: entity.RoleDiner}}
	}
	if err := s.repo.Create(ctx, &created); err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "unable to add user", err)
	}
	out := created.Public()
	return &out, nil
}

// Authenticate looks the user up by email and compares the supplied password
// against the stored hash. Missing user and wrong password both surface the
// same unauthorized error so accounts cannot be enumerated.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.Unauthorized, "unauthorized")
		}
		return nil, apperr.Wrap(apperr.Persistence, "unable to get user", err)
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return nil, apperr.New(apperr.Unauthorized, "unauthorized")
	}
	out := u.Public()
	return &out, nil
}

// Get returns the public view of a user by id.
func (s *Service) Get(ctx context.Context, id int64) (*entity.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "unknown user")
		}
		return nil, apperr.Wrap(apperr.Persistence, "unable to get user", err)
	}
	out := u.Public()
	return &out, nil
}

// Update applies the provided fields (empty means unchanged), re-hashing the
// credential when present, and returns the refreshed public view. The repo
// drops the user's token records on a credential change.
func (s *Service) Update(ctx context.Context, id int64, name, email, password string) (*entity.User, error) {
	hash := ""
	if password != "" {
		var err error
		if hash, err = s.hasher.Hash(password); err != nil {
			return nil, apperr.Wrap(apperr.Persistence, "unable to update user", err)
		}
	}
	if err := s.repo.Update(ctx, id, name, email, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "unknown user")
		}
		return nil, apperr.Wrap(apperr.Persistence, "unable to update user", err)
	}
	return s.Get(ctx, id)
}

// Delete removes the user, its role assignments and its outstanding tokens.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.NotFound, "unknown user")
		}
		return apperr.Wrap(apperr.Persistence, "unable to delete user", err)
	}
	return nil
}

// List returns one page of users (roles included, credentials stripped) and
// whether a subsequent page has further results.
func (s *Service) List(ctx context.Context, page utilities.Page, nameFilter string) ([]entity.User, bool, error) {
	pattern := ""
	if nameFilter != "" {
		pattern = utilities.LikePattern(nameFilter)
	}
	rows, err := s.repo.List(ctx, page.FetchLimit(), page.Offset(), pattern)
	if err != nil {
		return nil, false, apperr.Wrap(apperr.Persistence, "unable to list users", err)
	}
	users, more := utilities.TrimOverflow(rows, page.Limit)
	for i := range users {
		users[i] = users[i].Public()
	}
	return users, more, nil
}
