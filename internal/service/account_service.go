package service

import (
	"context"
	"fmt"
	"time"

	"styledecor/internal/auth"
	"styledecor/internal/config"
	"styledecor/internal/domain"
	"styledecor/internal/models"
	"styledecor/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type AccountService struct {
	repo      domain.AccountRepository
	auth      config.AuthConfig
	validator *validation.Validator
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewAccountService(repo domain.AccountRepository, authCfg config.AuthConfig, logger *zerolog.Logger) *AccountService {
	return &AccountService{
		repo:      repo,
		auth:      authCfg,
		validator: validation.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates a plain user account. Emails listed in auth.admin_emails
// become administrators. An existing account is returned with created=false.
func (s *AccountService) Register(ctx context.Context, req *models.RegisterRequest) (*models.Account, bool, error) {
	req.Email = auth.NormalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, false, err
	}

	email := req.Email
	role := models.RoleUser
	if s.auth.IsAdminEmail(email) {
		role = models.RoleAdmin
	}

	now := s.now().UTC()
	account := &models.Account{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      req.Name,
		PhotoURL:  req.PhotoURL,
		Role:      role,
		Status:    models.StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.repo.CreateAccount(ctx, account)
	if err != nil {
		return nil, false, err
	}
	if !created {
		existing, err := s.repo.GetAccountByEmail(ctx, email)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	s.logger.Info().Str("email", email).Str("role", role).Msg("account registered")
	return account, true, nil
}

func (s *AccountService) List(ctx context.Context) ([]*models.Account, error) {
	return s.repo.ListAccounts(ctx)
}

// Role returns the role of the account registered under email.
func (s *AccountService) Role(ctx context.Context, email string) (string, error) {
	account, err := s.repo.GetAccountByEmail(ctx, auth.NormalizeEmail(email))
	if err != nil {
		return "", err
	}
	return account.Role, nil
}

func (s *AccountService) UpdateRole(ctx context.Context, id, role string) (*models.Account, error) {
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}
	account, err := s.repo.UpdateAccountRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("account_id", id).Str("role", role).Msg("account role changed")
	return account, nil
}

func (s *AccountService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteAccount(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("account_id", id).Msg("account deleted")
	return nil
}

// AvailableDecorators lists decorators that can take a new booking.
func (s *AccountService) AvailableDecorators(ctx context.Context) ([]*models.Account, error) {
	decorators, err := s.repo.ListDecorators(ctx, models.StatusOpen)
	if err != nil {
		return nil, err
	}
	if decorators == nil {
		decorators = []*models.Account{}
	}
	return decorators, nil
}
