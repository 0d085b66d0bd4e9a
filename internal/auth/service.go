package auth

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/pizzafoundry/pizza-service/internal/apperr"
	authrepo "github.com/pizzafoundry/pizza-service/internal/auth/repo"
	"github.com/pizzafoundry/pizza-service/internal/user/entity"
)

// UserDirectory is the slice of the user service the session layer needs:
// account creation for register and credential verification for login.
type UserDirectory interface {
	Add(ctx context.Context, u *entity.User) (*entity.User, error)
	Authenticate(ctx context.Context, email, password string) (*entity.User, error)
}

// Service issues, validates and revokes bearer session credentials. Tokens
// are self-describing but validity is hybrid: the signature must verify AND
// a revocation-tracking record must still exist.
type Service struct {
	users  UserDirectory
	repo   *authrepo.TokenRepo
	tokens *TokenService
}

func NewService(db *sqlx.DB, users UserDirectory, tokens *TokenService) *Service {
	return &Service{users: users, repo: authrepo.NewTokenRepo(db), tokens: tokens}
}

// Register creates a diner account and logs it in.
func (s *Service) Register(ctx context.Context, name, email, password string) (*entity.User, string, error) {
	u, err := s.users.Add(ctx, &entity.User{Name: name, Email: email, Password: password})
	if err != nil {
		return nil, "", err
	}
	token, err := s.IssueFor(ctx, u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login authenticates the credentials and issues a fresh token. Failure is
// a uniform unauthorized error regardless of the cause.
func (s *Service) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	u, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	token, err := s.IssueFor(ctx, u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// IssueFor signs a token for the user and persists its revocation-tracking
// record so the token validates until logout or a credential change.
func (s *Service) IssueFor(ctx context.Context, u *entity.User) (string, error) {
	token, err := s.tokens.Sign(u)
	if err != nil {
		return "", apperr.Wrap(apperr.Persistence, "unable to log in user", err)
	}
	sig, err := Signature(token)
	if err != nil {
		return "", apperr.Wrap(apperr.Persistence, "unable to log in user", err)
	}
	if err := s.repo.Save(ctx, sig, u.ID); err != nil {
		return "", apperr.Wrap(apperr.Persistence, "unable to log in user", err)
	}
	return token, nil
}

// Logout removes the token's revocation-tracking record. Revoking an
// already-revoked or unknown token is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	sig, err := Signature(token)
	if err != nil {
		return apperr.New(apperr.Unauthorized, "unauthorized")
	}
	if err := s.repo.Delete(ctx, sig); err != nil {
		return apperr.Wrap(apperr.Persistence, "unable to log out user", err)
	}
	return nil
}

// Validate fails closed: the token must carry a verifiable, unexpired
// signature AND a matching revocation-tracking record. On success the
// decoded identity is returned.
func (s *Service) Validate(ctx context.Context, token string) (*Identity, error) {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperr.New(apperr.Unauthorized, "unauthorized")
	}
	sig, err := Signature(token)
	if err != nil {
		return nil, apperr.New(apperr.Unauthorized, "unauthorized")
	}
	ok, err := s.repo.Exists(ctx, sig)
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "unable to validate token", err)
	}
	if !ok {
		return nil, apperr.New(apperr.Unauthorized, "unauthorized")
	}
	return id, nil
}
